package recommendation

import (
	"context"
	"errors"

	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
)

// ErrInsufficientData is returned by a ProfileGenerator when signals cannot be computed.
var ErrInsufficientData = errors.New("insufficient data to compute behavioral signals")

// ProfileGenerator assigns a persona from a user's behavioral signals.
type ProfileGenerator interface {
	GeneratePersonaProfile(ctx context.Context, userID int64) (model.Persona, model.Signals, error)
}

// CandidateGenerator scores raw candidate content for a persona.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, userID int64, persona model.Persona, signals model.Signals) (model.CandidateSet, error)
}
