package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
)

func offer(id string, eligible bool, reasons ...string) model.Item {
	return model.Item{
		ID:          id,
		Title:       "Offer " + id,
		Description: "A partner offer",
		Rationale:   "Matches your savings pattern",
		Eligibility: &model.Verdict{Eligible: eligible, Reasons: reasons},
	}
}

func TestEligibilityFilter_StableAndKeepsReasons(t *testing.T) {
	education := model.Item{ID: "edu-1", Title: "Budgeting 101", Rationale: "High spend"}
	candidates := []model.Item{
		offer("o1", true),
		education,
		offer("o2", false, "credit utilization above 30%", "income below threshold"),
		offer("o3", true),
		offer("o4", false),
	}

	res := NewEligibilityFilter().Filter(candidates)

	ids := make([]string, 0, len(res.Retained))
	for _, r := range res.Retained {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"o1", "edu-1", "o3"}, ids)
	require.Len(t, res.Dropped, 2)
	assert.Equal(t, "o2", res.Dropped[0].ID)
	assert.Equal(t, []string{"credit utilization above 30%", "income below threshold"}, res.Dropped[0].Reasons)
	assert.Equal(t, []string{"not eligible"}, res.Dropped[1].Reasons)
}

func TestEligibilityFilter_Empty(t *testing.T) {
	res := NewEligibilityFilter().Recheck(nil)
	assert.Empty(t, res.Retained)
	assert.Empty(t, res.Dropped)
}

func TestToneValidator_Validate(t *testing.T) {
	v := NewToneValidator(config.ToneConfig{MaxExclamations: 1, MaxUppercaseWords: 2})

	tests := []struct {
		name      string
		content   ToneContent
		valid     bool
		violation string
	}{
		{
			name:    "neutral",
			content: ToneContent{Title: "Build an emergency fund", Description: "Start with one month of expenses.", Rationale: "Savings growth is low"},
			valid:   true,
		},
		{
			name:    "single exclamation and acronyms",
			content: ToneContent{Title: "Lower your APR!", Description: "Compare ETF and IRA fees.", Rationale: "Interest charges detected"},
			valid:   true,
		},
		{
			name:      "shaming phrase in rationale",
			content:   ToneContent{Title: "Budget tips", Description: "Plan ahead.", Rationale: "You are Bad With Money"},
			violation: `prohibited phrase "bad with money"`,
		},
		{
			name:      "guaranteed returns",
			content:   ToneContent{Title: "Invest today", Description: "Guaranteed returns on every deposit."},
			violation: `prohibited phrase "guaranteed returns"`,
		},
		{
			name:      "double exclamation",
			content:   ToneContent{Title: "Save now!!", Description: "Start today."},
			violation: "excessive urgency punctuation",
		},
		{
			name:      "too many exclamations",
			content:   ToneContent{Title: "Save now!", Description: "Start today!"},
			violation: "excessive urgency punctuation",
		},
		{
			name:      "shouting",
			content:   ToneContent{Title: "STOP SPENDING MONEY", Description: "Now."},
			violation: "3 fully upper-case words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.content)
			if tt.violation == "" {
				assert.True(t, res.IsValid, "violations: %v", res.Violations)
				assert.Empty(t, res.Violations)
				return
			}
			assert.False(t, res.IsValid)
			assert.Contains(t, res.Violations, tt.violation)
		})
	}
}

func TestToneValidator_ConfiguredPhrasesReplaceDefaults(t *testing.T) {
	v := NewToneValidator(config.ToneConfig{ProhibitedPhrases: []string{"  Payday Loan "}, MaxExclamations: 1, MaxUppercaseWords: 2})

	assert.False(t, v.Validate(ToneContent{Title: "Try a payday loan"}).IsValid)
	assert.True(t, v.Validate(ToneContent{Title: "Stop being reckless"}).IsValid)
}

func TestToneValidator_FilterDropsWholeItem(t *testing.T) {
	v := NewToneValidator(config.ToneConfig{MaxExclamations: 1, MaxUppercaseWords: 2})
	items := []model.Item{
		{ID: "a", Title: "Track subscriptions", Description: "Review recurring charges.", Rationale: "Subscriptions are 12% of spend"},
		{ID: "b", Title: "Track subscriptions", Description: "Review recurring charges.", Rationale: "Stop being irresponsible"},
	}

	res := v.Filter(items)

	require.Len(t, res.Retained, 1)
	assert.Equal(t, "a", res.Retained[0].ID)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "b", res.Dropped[0].ID)
	assert.NotEmpty(t, res.Dropped[0].Reasons)
}

func TestRequireRationale(t *testing.T) {
	res := RequireRationale([]model.Item{
		{ID: "a", Rationale: "Credit utilization 68%"},
		{ID: "b", Rationale: "   "},
	})

	require.Len(t, res.Retained, 1)
	assert.Equal(t, "a", res.Retained[0].ID)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, []string{"missing rationale"}, res.Dropped[0].Reasons)
}
