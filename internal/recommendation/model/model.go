// Package model defines the content exchanged with the external generators.
package model

// Persona is the behavioral persona assigned to a user by the profile generator.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// MatchedSignals names the signals that drove this assignment.
	MatchedSignals []string `json:"matchedSignals,omitempty"`
}

// Signals are the behavioral signal values computed for a user, keyed by signal name.
type Signals map[string]float64

// Verdict is an externally computed partner offer eligibility decision.
type Verdict struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Item is a single piece of recommended content. Candidates from the generator and
// items frozen into a review share this shape; education items carry no eligibility verdict.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url,omitempty"`
	Category    string   `json:"category,omitempty"`
	Rationale   string   `json:"rationale"`
	Eligibility *Verdict `json:"eligibility,omitempty"`
}

// CandidateSet is the raw generator output, before any guardrail runs.
type CandidateSet struct {
	Education     []Item `json:"education"`
	PartnerOffers []Item `json:"partnerOffers"`
}
