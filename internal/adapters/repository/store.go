// Package repository is the valuation registry: the oracle's local view of
// tokenized horses, their lineage and current values.
package repository

import (
	"context"
	"time"

	"github.com/okian/turforacle/internal/domain/model"
)

// Horse is a registered horse.
type Horse struct {
	TokenID       model.TokenID  `json:"tokenId"`
	Name          string         `json:"name"`
	Sex           model.Sex      `json:"sex"`
	SireID        *model.TokenID `json:"sireId,omitempty"`
	DamID         *model.TokenID `json:"damId,omitempty"`
	PedigreeScore int            `json:"pedigreeScore"`
	XFactor       bool           `json:"xFactorConfirmed,omitempty"`
	Value         float64        `json:"value"`
	LastEventHash string         `json:"lastEventHash,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Entry is a row of the valuation ranking.
type Entry struct {
	Rank    int           `json:"rank"`
	TokenID model.TokenID `json:"tokenId"`
	Name    string        `json:"name"`
	Value   float64       `json:"value"`
}

// Store provides read/write access to the registry.
type Store interface {
	// Register inserts or replaces a horse profile and its value.
	Register(ctx context.Context, h Horse) error

	// Horse returns ErrNotFound for unknown ids.
	Horse(ctx context.Context, id model.TokenID) (Horse, error)

	// SetValue records a new valuation and the event hash that justified it.
	SetValue(ctx context.Context, id model.TokenID, value float64, eventHash string) (Horse, error)

	// Offspring lists the registered foals of parent, ordered by id, with
	// their sexes.
	Offspring(ctx context.Context, parent model.TokenID) ([]model.TokenID, model.OffspringSexMap, error)

	// Siblings lists horses sharing a sire or dam with id, excluding id.
	Siblings(ctx context.Context, id model.TokenID) ([]model.TokenID, model.OffspringSexMap, error)

	// Pedigree returns id and its registered ancestors, at most depth
	// generations back, keyed by decimal token id.
	Pedigree(ctx context.Context, id model.TokenID, depth int) (model.Pedigree, error)

	// Rank returns the position of id by value, highest first.
	Rank(ctx context.Context, id model.TokenID) (Entry, error)

	// TopN returns the n most valuable horses.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of registered horses.
	Count(ctx context.Context) int
}
