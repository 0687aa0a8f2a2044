package review

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/wso2/financial-recommendation-api/internal/guardrails"
	recmodel "github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// memoryStore keeps the ledger in process memory. A single lock makes the upsert atomic.
type memoryStore struct {
	mu      sync.Mutex
	reviews map[string]*model.Review
	pending map[int64]string
	now     func() int64
}

// NewMemoryReviewStore creates an in-process review ledger.
func NewMemoryReviewStore() ReviewStore {
	return &memoryStore{
		reviews: make(map[string]*model.Review),
		pending: make(map[int64]string),
		now:     utils.GetCurrentTimeMillis,
	}
}

func (m *memoryStore) FindPending(_ context.Context, userID int64) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.pending[userID]
	if !ok {
		return nil, nil
	}
	return cloneReview(m.reviews[id]), nil
}

func (m *memoryStore) FindApproved(_ context.Context, userID int64) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Review
	for _, r := range m.reviews {
		if r.UserID != userID || r.Status != model.StatusApproved {
			continue
		}
		if latest == nil || *r.ReviewedAt > *latest.ReviewedAt {
			latest = r
		}
	}
	return cloneReview(latest), nil
}

func (m *memoryStore) UpsertPending(
	_ context.Context,
	userID int64,
	data model.RecommendationData,
	trace model.DecisionTrace,
) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.pending[userID]; ok {
		r := m.reviews[id]
		r.RecommendationData = cloneData(data)
		r.DecisionTrace = cloneTrace(trace)
		r.CreatedAt = m.now()
		return cloneReview(r), nil
	}

	r := &model.Review{
		ReviewID:           utils.GenerateUUID(),
		UserID:             userID,
		RecommendationData: cloneData(data),
		DecisionTrace:      cloneTrace(trace),
		Status:             model.StatusPending,
		CreatedAt:          m.now(),
	}
	m.reviews[r.ReviewID] = r
	m.pending[userID] = r.ReviewID
	return cloneReview(r), nil
}

func (m *memoryStore) Transition(
	_ context.Context,
	reviewID string,
	status model.Status,
	notes, reviewedBy string,
) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[reviewID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	if !r.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: review %s is %s", ErrInvalidTransition, reviewID, r.Status)
	}

	now := m.now()
	r.Status = status
	r.OperatorNotes = &notes
	r.ReviewedBy = &reviewedBy
	r.ReviewedAt = &now
	delete(m.pending, r.UserID)
	return cloneReview(r), nil
}

func (m *memoryStore) ListPending(_ context.Context, order string) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Review, 0, len(m.pending))
	for _, id := range m.pending {
		out = append(out, *cloneReview(m.reviews[id]))
	}
	sortReviews(out, order)
	return out, nil
}

func (m *memoryStore) GetByID(_ context.Context, reviewID string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return cloneReview(r), nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID int64) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Review, 0)
	for _, r := range m.reviews {
		if r.UserID == userID {
			out = append(out, *cloneReview(r))
		}
	}
	sortReviews(out, OrderNewest)
	return out, nil
}

func sortReviews(reviews []model.Review, order string) {
	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i], reviews[j]
		switch order {
		case OrderOldest:
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt < b.CreatedAt
			}
		case OrderUser:
			if a.UserID != b.UserID {
				return a.UserID < b.UserID
			}
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		default:
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		}
		return a.ReviewID < b.ReviewID
	})
}

// cloneReview deep-copies a review so callers never share state with the stored record.
func cloneReview(r *model.Review) *model.Review {
	if r == nil {
		return nil
	}
	c := *r
	c.RecommendationData = cloneData(r.RecommendationData)
	c.DecisionTrace = cloneTrace(r.DecisionTrace)
	c.OperatorNotes = clonePtr(r.OperatorNotes)
	c.ReviewedBy = clonePtr(r.ReviewedBy)
	c.ReviewedAt = clonePtr(r.ReviewedAt)
	return &c
}

func cloneData(d model.RecommendationData) model.RecommendationData {
	d.Education = cloneItems(d.Education)
	d.PartnerOffers = cloneItems(d.PartnerOffers)
	return d
}

func cloneItems(items []recmodel.Item) []recmodel.Item {
	if items == nil {
		return nil
	}
	out := make([]recmodel.Item, len(items))
	for i, item := range items {
		if item.Eligibility != nil {
			v := *item.Eligibility
			v.Reasons = slices.Clone(v.Reasons)
			item.Eligibility = &v
		}
		out[i] = item
	}
	return out
}

func cloneTrace(t model.DecisionTrace) model.DecisionTrace {
	t.Persona.MatchedSignals = slices.Clone(t.Persona.MatchedSignals)
	t.Signals = maps.Clone(t.Signals)
	t.Guardrails.EligibilityChecked.Drops = cloneDrops(t.Guardrails.EligibilityChecked.Drops)
	t.Guardrails.ToneValidated.Drops = cloneDrops(t.Guardrails.ToneValidated.Drops)
	t.Guardrails.RationalePresent.Drops = cloneDrops(t.Guardrails.RationalePresent.Drops)
	return t
}

func cloneDrops(drops []guardrails.DroppedItem) []guardrails.DroppedItem {
	if drops == nil {
		return nil
	}
	out := make([]guardrails.DroppedItem, len(drops))
	for i, d := range drops {
		d.Reasons = slices.Clone(d.Reasons)
		out[i] = d
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
