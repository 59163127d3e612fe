package valuation

import (
	"time"

	"github.com/okian/turforacle/internal/domain/model"
)

// Option applies a configuration option to the FormValuer.
type Option func(*FormValuer)

// WithLatencyRange simulates a remote model call.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(v *FormValuer) {
		if minLatency >= 0 && maxLatency > minLatency {
			v.minLatency = minLatency
			v.maxLatency = maxLatency
		}
	}
}

// WithWeight sets the weight for one event type. Weights outside [0, 1]
// are ignored.
func WithWeight(t model.EventType, weight float64) Option {
	return func(v *FormValuer) {
		if weight >= 0 && weight <= 1 {
			v.weights[t] = weight
		}
	}
}
