// Package valuation defines the seam to the overall valuation model and a
// simple in-memory form model used for local runs.
package valuation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/turforacle/internal/domain/model"
)

// Default model configuration constants.
const (
	defaultRaceWeight = 0.05
	defaultNewsWeight = 0.02
	maxSentimentBps   = 10000
)

// Features is what the model knows about a horse before the event.
type Features struct {
	TokenID       model.TokenID
	Sex           model.Sex
	PedigreeScore int
	XFactor       bool
	CurrentValue  float64
}

// Input is one valuation request.
type Input struct {
	Horse Features
	Event model.Event
}

// Component is one named contribution to a valuation.
type Component struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Signal float64 `json:"signal"`
	Delta  float64 `json:"delta"`
}

// Result is the model's answer.
type Result struct {
	Value       float64     `json:"value"`
	Breakdown   []Component `json:"breakdown"`
	Explanation string      `json:"explanation,omitempty"`
}

// Valuer computes a new value for a horse given an event. Implementations
// may call a remote model and should honor ctx.
type Valuer interface {
	Value(ctx context.Context, in Input) (Result, error)
}

// FormValuer nudges the current value by a weighted form signal per event type.
type FormValuer struct {
	weights map[model.EventType]float64

	minLatency time.Duration
	maxLatency time.Duration
}

// NewFormValuer creates a FormValuer with configuration options.
func NewFormValuer(opts ...Option) *FormValuer {
	v := &FormValuer{
		weights: map[model.EventType]float64{
			model.EventRaceResult: defaultRaceWeight,
			model.EventNews:       defaultNewsWeight,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Value implements Valuer. The result is never negative.
func (v *FormValuer) Value(ctx context.Context, in Input) (Result, error) { //nolint:gocritic // hugeParam
	if err := v.simulateLatency(ctx); err != nil {
		return Result{}, err
	}

	current := in.Horse.CurrentValue
	signal, name := formSignal(in.Event)
	weight := v.weights[in.Event.Type]
	delta := current * weight * signal

	return Result{
		Value: math.Max(0, current+delta),
		Breakdown: []Component{
			{Name: name, Weight: weight, Signal: signal, Delta: delta},
		},
	}, nil
}

func (v *FormValuer) simulateLatency(ctx context.Context) error {
	if v.maxLatency <= 0 {
		return ctx.Err()
	}
	latency := v.minLatency + rand.N(v.maxLatency-v.minLatency) //nolint:gosec // jitter only
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
		return nil
	}
}

// formSignal maps an event onto [-1, 1].
func formSignal(e model.Event) (float64, string) { //nolint:gocritic // hugeParam
	switch e.Type {
	case model.EventRaceResult:
		r, ok := e.Race()
		if !ok || r.FieldSize < 2 || r.FinishPosition < 1 {
			return 0, "race_form"
		}
		pos := math.Min(float64(r.FinishPosition), float64(r.FieldSize))
		return 1 - 2*(pos-1)/float64(r.FieldSize-1), "race_form"
	case model.EventNews:
		n, ok := e.News()
		if !ok {
			return 0, "news_sentiment"
		}
		return math.Max(-1, math.Min(1, float64(n.SentimentBps)/maxSentimentBps)), "news_sentiment"
	default:
		return 0, "carry_forward"
	}
}
