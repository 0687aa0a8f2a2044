// Package model defines consent records and request/response types.
package model

// Kind is one of the independent consent flags a user controls.
type Kind string

const (
	KindDataProcessing Kind = "data_processing"
	KindAIFeatures     Kind = "ai_features"
)

// Kinds lists every consent kind in display order.
var Kinds = []Kind{KindDataProcessing, KindAIFeatures}

// ParseKind validates a consent kind from a path or CLI argument.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindDataProcessing, KindAIFeatures:
		return Kind(s), true
	}
	return "", false
}

// ConsentRecord is the current state of one consent kind for a user.
type ConsentRecord struct {
	UserID    int64  `json:"userId"`
	Kind      Kind   `json:"kind"`
	Granted   bool   `json:"granted"`
	GrantedAt *int64 `json:"grantedAt,omitempty"`
	RevokedAt *int64 `json:"revokedAt,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// StatusResponse is the answer to a consent status query.
type StatusResponse struct {
	UserID  int64 `json:"userId"`
	Kind    Kind  `json:"kind"`
	Granted bool  `json:"granted"`
}

// ListResponse holds every consent kind for a user.
type ListResponse struct {
	UserID   int64           `json:"userId"`
	Consents []ConsentRecord `json:"consents"`
}
