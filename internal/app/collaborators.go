package service

import (
	"context"

	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/valuation"
)

// ChainReader reads token state. The registry implements it for local runs;
// a contract client implements it against the ledger.
type ChainReader interface {
	Horse(ctx context.Context, id model.TokenID) (repository.Horse, error)
	Offspring(ctx context.Context, parent model.TokenID) ([]model.TokenID, model.OffspringSexMap, error)
	Siblings(ctx context.Context, id model.TokenID) ([]model.TokenID, model.OffspringSexMap, error)
	Pedigree(ctx context.Context, id model.TokenID, depth int) (model.Pedigree, error)
}

// ChainWriter submits valuations together with the committing event hash.
type ChainWriter interface {
	SetValue(ctx context.Context, id model.TokenID, value float64, eventHash string) (repository.Horse, error)
}

// Valuation is one value change written for an event.
type Valuation struct {
	TokenID       model.TokenID `json:"tokenId"`
	PreviousValue float64       `json:"previousValue"`
	NewValue      float64       `json:"newValue"`
	Reason        string        `json:"reason"`
}

// Outcome is everything the pipeline did for one event.
type Outcome struct {
	Commitment   canonical.Commitment        `json:"commitment"`
	Valuations   []Valuation                 `json:"valuations"`
	Breakdown    []valuation.Component       `json:"breakdown"`
	Injury       *injury.Adjustment          `json:"injury,omitempty"`
	Cascade      []model.OffspringAdjustment `json:"cascade,omitempty"`
	BlobRoot     string                      `json:"blobRoot,omitempty"`
	PredictionID string                      `json:"predictionId,omitempty"`
	Explanation  string                      `json:"explanation,omitempty"`
}

// SubmitResult acknowledges an accepted event.
type SubmitResult struct {
	EventHash string `json:"eventHash"`
	Duplicate bool   `json:"duplicate"`
}
