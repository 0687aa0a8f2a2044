// Package guardrails holds the content policies every candidate must pass before it is
// persisted or served. Guardrail drops are filtering decisions, never errors.
package guardrails

import (
	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
)

// Guardrail names as recorded in decision traces and metrics
const (
	GuardrailEligibility = "eligibility"
	GuardrailTone        = "tone"
	GuardrailRationale   = "rationale"
)

// DroppedItem records why an item was removed from a candidate set.
type DroppedItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Reasons []string `json:"reasons,omitempty"`
}

// Result is the outcome of running a guardrail over a list of items.
// Retained preserves input order.
type Result struct {
	Retained []model.Item
	Dropped  []DroppedItem
}

// EligibilityFilter retains education items and partner offers whose verdict is eligible.
type EligibilityFilter struct{}

// NewEligibilityFilter creates an eligibility filter.
func NewEligibilityFilter() *EligibilityFilter {
	return &EligibilityFilter{}
}

// Filter applies the eligibility rule to generator candidates.
func (f *EligibilityFilter) Filter(candidates []model.Item) Result {
	result := Result{Retained: make([]model.Item, 0, len(candidates))}
	for _, c := range candidates {
		if c.Eligibility == nil || c.Eligibility.Eligible {
			result.Retained = append(result.Retained, c)
			continue
		}
		reasons := append([]string(nil), c.Eligibility.Reasons...)
		if len(reasons) == 0 {
			reasons = []string{"not eligible"}
		}
		result.Dropped = append(result.Dropped, DroppedItem{ID: c.ID, Title: c.Title, Reasons: reasons})
	}
	return result
}

// Recheck applies the same rule to items read back from a stored snapshot.
func (f *EligibilityFilter) Recheck(items []model.Item) Result {
	return f.Filter(items)
}
