package review

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/guardrails"
	recmodel "github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/review/model"
)

func TestMemoryStore_ConcurrentUpsertKeepsOnePending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpsertPending(ctx, 5, sampleData(), model.DecisionTrace{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pending, err := s.ListPending(ctx, OrderNewest)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	history, err := s.ListByUser(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMemoryStore_LifecycleAndTerminalImmutability(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewStore()

	first, err := s.UpsertPending(ctx, 9, sampleData(), model.DecisionTrace{})
	require.NoError(t, err)

	approved, err := s.Transition(ctx, first.ReviewID, model.StatusApproved, "fine", "ops")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	_, err = s.Transition(ctx, first.ReviewID, model.StatusOverridden, "changed my mind", "ops2")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := s.GetByID(ctx, first.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Equal(t, "fine", *stored.OperatorNotes)
	assert.Equal(t, "ops", *stored.ReviewedBy)

	pending, err := s.FindPending(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, pending)

	// a new cycle after a terminal decision creates a new pending record
	second, err := s.UpsertPending(ctx, 9, sampleData(), model.DecisionTrace{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ReviewID, second.ReviewID)

	latest, err := s.FindApproved(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, first.ReviewID, latest.ReviewID)

	history, err := s.ListByUser(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMemoryStore_UpsertOverwritesPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewStore()

	first, err := s.UpsertPending(ctx, 3, sampleData(), model.DecisionTrace{})
	require.NoError(t, err)

	data := sampleData()
	data.Summary = "regenerated"
	second, err := s.UpsertPending(ctx, 3, data, model.DecisionTrace{})
	require.NoError(t, err)

	assert.Equal(t, first.ReviewID, second.ReviewID)
	assert.Equal(t, "regenerated", second.RecommendationData.Summary)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryReviewStore()
	_, err := s.Transition(context.Background(), "missing", model.StatusApproved, "", "ops")
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestMemoryStore_ListPendingOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewStore().(*memoryStore)
	clock := int64(100)
	s.now = func() int64 { clock += 10; return clock }

	for _, userID := range []int64{3, 1, 2} {
		_, err := s.UpsertPending(ctx, userID, sampleData(), model.DecisionTrace{})
		require.NoError(t, err)
	}

	users := func(order string) []int64 {
		reviews, err := s.ListPending(ctx, order)
		require.NoError(t, err)
		out := make([]int64, 0, len(reviews))
		for _, r := range reviews {
			out = append(out, r.UserID)
		}
		return out
	}

	assert.Equal(t, []int64{2, 1, 3}, users(OrderNewest))
	assert.Equal(t, []int64{3, 1, 2}, users(OrderOldest))
	assert.Equal(t, []int64{1, 2, 3}, users(OrderUser))
}

func TestMemoryStore_ReturnedReviewsDoNotAliasStoredRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReviewStore()

	data := sampleData()
	data.PartnerOffers[0].Eligibility.Reasons = []string{"income verified"}
	trace := model.DecisionTrace{
		Persona: recmodel.Persona{ID: "p1", MatchedSignals: []string{"utilization"}},
		Signals: recmodel.Signals{"utilization": 0.68},
		Guardrails: model.GuardrailTrace{
			EligibilityChecked: model.GuardrailOutcome{Checked: 2, Retained: 1, Dropped: 1, Drops: []guardrails.DroppedItem{
				{ID: "offer-2", Reasons: []string{"credit score below 650"}},
			}},
		},
	}
	created, err := s.UpsertPending(ctx, 3, data, trace)
	require.NoError(t, err)

	// the caller's input is not retained either
	data.PartnerOffers[0].Eligibility.Eligible = false
	trace.Signals["utilization"] = 0

	approved, err := s.Transition(ctx, created.ReviewID, model.StatusApproved, "ok", "ops")
	require.NoError(t, err)

	approved.RecommendationData.PartnerOffers[0].Eligibility.Eligible = false
	approved.RecommendationData.PartnerOffers[0].Eligibility.Reasons[0] = "tampered"
	approved.DecisionTrace.Guardrails.EligibilityChecked.Drops[0].Reasons[0] = "tampered"
	approved.DecisionTrace.Persona.MatchedSignals[0] = "tampered"
	approved.DecisionTrace.Signals["utilization"] = 1
	*approved.OperatorNotes = "tampered"

	stored, err := s.GetByID(ctx, created.ReviewID)
	require.NoError(t, err)
	offer := stored.RecommendationData.PartnerOffers[0]
	assert.True(t, offer.Eligibility.Eligible)
	assert.Equal(t, []string{"income verified"}, offer.Eligibility.Reasons)
	assert.Equal(t, []string{"credit score below 650"}, stored.DecisionTrace.Guardrails.EligibilityChecked.Drops[0].Reasons)
	assert.Equal(t, []string{"utilization"}, stored.DecisionTrace.Persona.MatchedSignals)
	assert.Equal(t, 0.68, stored.DecisionTrace.Signals["utilization"])
	assert.Equal(t, "ok", *stored.OperatorNotes)
}
