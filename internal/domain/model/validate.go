package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("invalid event")

// FieldError names one offending field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every structural problem found in a record.
type ValidationError struct {
	Problems []FieldError `json:"problems"`
}

func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Problems))
	for i, p := range v.Problems {
		parts[i] = p.Field + ": " + p.Reason
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrValidation) match.
func (v *ValidationError) Is(target error) bool { return target == ErrValidation }

func (v *ValidationError) add(field, reason string) {
	v.Problems = append(v.Problems, FieldError{Field: field, Reason: reason})
}

func (v *ValidationError) errOrNil() error {
	if len(v.Problems) == 0 {
		return nil
	}
	return v
}

// Validate checks the structural invariants of an event. All problems are
// collected; the returned error is a *ValidationError or nil.
func (e Event) Validate() error {
	v := &ValidationError{}

	if e.SchemaVersion != SchemaVersion {
		v.add("schemaVersion", fmt.Sprintf("must be %q", SchemaVersion))
	}
	if strings.TrimSpace(e.EventID) == "" {
		v.add("eventId", "required")
	}
	if strings.TrimSpace(e.OccurredAt) == "" {
		v.add("occurredAt", "required")
	} else if _, err := time.Parse(time.RFC3339Nano, e.OccurredAt); err != nil {
		v.add("occurredAt", "must be an ISO-8601 (RFC 3339) timestamp")
	}

	switch e.Source.Kind {
	case SourceSimulation, SourceOfficial, SourceAPIVendor:
	case "":
		v.add("source.kind", "required")
	default:
		v.add("source.kind", "must be SIMULATION, OFFICIAL or API_VENDOR")
	}
	if strings.TrimSpace(e.Source.Provider) == "" {
		v.add("source.provider", "required")
	}
	if !finite(e.Source.Confidence) || e.Source.Confidence < 0 || e.Source.Confidence > 1 {
		v.add("source.confidence", "must be within [0,1]")
	}

	switch e.Type {
	case EventRaceResult, EventInjury, EventNews:
	case "":
		v.add("eventType", "required")
	default:
		v.add("eventType", "must be RACE_RESULT, INJURY or NEWS")
	}

	if e.Payload == nil {
		v.add("payload", "required")
		return v.errOrNil()
	}
	if e.Type != "" && e.Payload.EventType() != e.Type {
		v.add("payload", fmt.Sprintf("carries %s data for a %s event", e.Payload.EventType(), e.Type))
	}

	if r, ok := e.Race(); ok {
		validateRace(v, r)
	}
	if i, ok := e.Injury(); ok {
		validateInjury(v, i)
	}
	if n, ok := e.News(); ok {
		validateNews(v, n)
	}
	return v.errOrNil()
}

func validateRace(v *ValidationError, r RaceResult) {
	if strings.TrimSpace(r.Track) == "" {
		v.add("payload.track", "required")
	}
	if r.DistanceMeters <= 0 {
		v.add("payload.distanceMeters", "must be positive")
	}
	if r.FieldSize < 1 {
		v.add("payload.fieldSize", "must be at least 1")
	}
	if r.FinishPosition < 1 {
		v.add("payload.finishPosition", "must be at least 1")
	} else if r.FieldSize >= 1 && r.FinishPosition > r.FieldSize {
		v.add("payload.finishPosition", "exceeds field size")
	}
	if !finite(r.MarginLengths) {
		v.add("payload.marginLengths", "must be a finite number")
	}
	nonNegative(v, "payload.purse", r.Purse)
	nonNegative(v, "payload.earnings", r.Earnings)
	nonNegative(v, "payload.odds", r.Odds)
}

func nonNegative(v *ValidationError, field string, x float64) {
	switch {
	case !finite(x):
		v.add(field, "must be a finite number")
	case x < 0:
		v.add(field, "must not be negative")
	}
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func validateInjury(v *ValidationError, i InjuryReport) {
	if strings.TrimSpace(i.Type) == "" {
		v.add("payload.type", "required")
	}
	if i.SeverityBps < 0 || i.SeverityBps > 10000 {
		v.add("payload.severityBps", "must be within [0,10000]")
	}
	if i.ExpectedDaysOut < 0 {
		v.add("payload.expectedDaysOut", "must not be negative")
	}
}

func validateNews(v *ValidationError, n NewsItem) {
	if strings.TrimSpace(n.Headline) == "" {
		v.add("payload.headline", "required")
	}
	if n.SentimentBps < -10000 || n.SentimentBps > 10000 {
		v.add("payload.sentimentBps", "must be within [-10000,10000]")
	}
}
