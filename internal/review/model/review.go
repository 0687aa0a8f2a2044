// Package model defines the review ledger types.
package model

import (
	"github.com/wso2/financial-recommendation-api/internal/guardrails"
	recmodel "github.com/wso2/financial-recommendation-api/internal/recommendation/model"
)

// Status is the lifecycle state of a review. Pending is the only non-terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusOverridden Status = "overridden"
)

// ParseStatus converts a stored status value, rejecting anything outside the lifecycle.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusOverridden:
		return Status(s), true
	}
	return "", false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusOverridden
}

// CanTransitionTo reports whether an operator decision may move a review from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusOverridden
	case StatusApproved, StatusOverridden:
		return false
	}
	return false
}

// RecommendationData is the frozen, filtered output of one generation cycle.
type RecommendationData struct {
	Education     []recmodel.Item `json:"education"`
	PartnerOffers []recmodel.Item `json:"partnerOffers"`
	Summary       string          `json:"summary"`
}

// GuardrailOutcome records what a single guardrail did to a cycle's candidates.
type GuardrailOutcome struct {
	Checked  int                      `json:"checked"`
	Retained int                      `json:"retained"`
	Dropped  int                      `json:"dropped"`
	Drops    []guardrails.DroppedItem `json:"drops,omitempty"`
}

// GuardrailTrace lists every guardrail that ran during a cycle.
type GuardrailTrace struct {
	ConsentDataProcessing bool             `json:"consentDataProcessing"`
	ConsentAIFeatures     bool             `json:"consentAiFeatures"`
	EligibilityChecked    GuardrailOutcome `json:"eligibilityChecked"`
	ToneValidated         GuardrailOutcome `json:"toneValidated"`
	RationalePresent      GuardrailOutcome `json:"rationalePresent"`
}

// SelectedCounts records how much content survived the guardrails.
type SelectedCounts struct {
	Education     int `json:"education"`
	PartnerOffers int `json:"partnerOffers"`
}

// DecisionTrace is the audit payload explaining how a recommendation set was produced.
type DecisionTrace struct {
	Persona     recmodel.Persona `json:"persona"`
	Signals     recmodel.Signals `json:"signals"`
	Guardrails  GuardrailTrace   `json:"guardrails"`
	Selected    SelectedCounts   `json:"selected"`
	GeneratedAt int64            `json:"generatedAt"`
	// CacheGeneration is the user's cache generation the cycle was computed under.
	// It is meaningful only when CacheGenerationKnown is set.
	CacheGeneration      uint64 `json:"cacheGeneration"`
	CacheGenerationKnown bool   `json:"cacheGenerationKnown"`
}

// Review is one generation cycle's output for a user and its operator decision.
type Review struct {
	ReviewID           string             `json:"reviewId"`
	UserID             int64              `json:"userId"`
	RecommendationData RecommendationData `json:"recommendationData"`
	DecisionTrace      DecisionTrace      `json:"decisionTrace"`
	Status             Status             `json:"status"`
	OperatorNotes      *string            `json:"operatorNotes,omitempty"`
	ReviewedBy         *string            `json:"reviewedBy,omitempty"`
	ReviewedAt         *int64             `json:"reviewedAt,omitempty"`
	CreatedAt          int64              `json:"createdAt"`
}

// DecisionRequest is the operator request body for approve and override.
type DecisionRequest struct {
	Notes      string `json:"notes"`
	ReviewedBy string `json:"reviewedBy"`
}

// ListResponse wraps review lists returned over HTTP.
type ListResponse struct {
	Data  []Review `json:"data"`
	Count int      `json:"count"`
}
