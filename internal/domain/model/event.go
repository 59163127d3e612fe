// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// SchemaVersion is the only event schema this oracle commits to.
const SchemaVersion = "horse-event/1.0"

// EventType tags the payload variant carried by an Event.
type EventType string

// Event variants.
const (
	EventRaceResult EventType = "RACE_RESULT"
	EventInjury     EventType = "INJURY"
	EventNews       EventType = "NEWS"
)

// SourceKind describes where an event came from.
type SourceKind string

// Source kinds.
const (
	SourceSimulation SourceKind = "SIMULATION"
	SourceOfficial   SourceKind = "OFFICIAL"
	SourceAPIVendor  SourceKind = "API_VENDOR"
)

// TokenID identifies a tokenized horse on the ledger.
type TokenID uint64

// HorseRef points at the horse an event is about.
type HorseRef struct {
	TokenID    TokenID `json:"tokenId"`
	ExternalID string  `json:"externalId,omitempty"`
	Name       string  `json:"name,omitempty"`
}

// Source describes the reporter of an event.
type Source struct {
	Kind       SourceKind `json:"kind"`
	Provider   string     `json:"provider"`
	URI        string     `json:"uri,omitempty"`
	Confidence float64    `json:"confidence"`
}

// Payload is implemented only by the event variants in this package.
type Payload interface {
	EventType() EventType
}

// Event is a real-world occurrence reported against a horse. EventID and
// OccurredAt are assigned by the reporter and are part of the committed content.
type Event struct {
	SchemaVersion string    `json:"schemaVersion"`
	EventID       string    `json:"eventId"`
	Type          EventType `json:"eventType"`
	OccurredAt    string    `json:"occurredAt"`
	Horse         HorseRef  `json:"horse"`
	Source        Source    `json:"source"`
	Payload       Payload   `json:"payload"`
}

// Connections are the people attached to a runner.
type Connections struct {
	Jockey  string `json:"jockey"`
	Trainer string `json:"trainer"`
	Owner   string `json:"owner,omitempty"`
}

// RaceResult is the RACE_RESULT payload.
type RaceResult struct {
	Track          string      `json:"track"`
	RaceClass      string      `json:"raceClass"`
	Surface        string      `json:"surface"`
	DistanceMeters int         `json:"distanceMeters"`
	FieldSize      int         `json:"fieldSize"`
	FinishPosition int         `json:"finishPosition"`
	MarginLengths  float64     `json:"marginLengths"`
	FinalTimeMs    int64       `json:"finalTimeMs"`
	Purse          float64     `json:"purse"`
	Earnings       float64     `json:"earnings"`
	Odds           float64     `json:"odds"`
	Connections    Connections `json:"connections"`
}

// EventType implements Payload.
func (RaceResult) EventType() EventType { return EventRaceResult }

// IsWin reports a first-place finish.
func (r RaceResult) IsWin() bool { return r.FinishPosition == 1 }

// InjuryReport is the INJURY payload. Type is an injury catalog code.
type InjuryReport struct {
	Type            string `json:"type"`
	SeverityBps     int    `json:"severityBps"`
	ExpectedDaysOut int    `json:"expectedDaysOut"`
	Notes           string `json:"notes,omitempty"`
}

// EventType implements Payload.
func (InjuryReport) EventType() EventType { return EventInjury }

// NewsItem is the NEWS payload.
type NewsItem struct {
	Headline     string `json:"headline"`
	SentimentBps int    `json:"sentimentBps"`
	Notes        string `json:"notes,omitempty"`
}

// EventType implements Payload.
func (NewsItem) EventType() EventType { return EventNews }

// Race returns the race payload when the event carries one.
func (e Event) Race() (RaceResult, bool) {
	switch p := e.Payload.(type) {
	case RaceResult:
		return p, true
	case *RaceResult:
		if p != nil {
			return *p, true
		}
	}
	return RaceResult{}, false
}

// Injury returns the injury payload when the event carries one.
func (e Event) Injury() (InjuryReport, bool) {
	switch p := e.Payload.(type) {
	case InjuryReport:
		return p, true
	case *InjuryReport:
		if p != nil {
			return *p, true
		}
	}
	return InjuryReport{}, false
}

// News returns the news payload when the event carries one.
func (e Event) News() (NewsItem, bool) {
	switch p := e.Payload.(type) {
	case NewsItem:
		return p, true
	case *NewsItem:
		if p != nil {
			return *p, true
		}
	}
	return NewsItem{}, false
}

// UnmarshalJSON decodes the payload into the variant named by eventType.
// Keys the record does not declare, at any level, come back as a
// *ValidationError listing each one.
func (e *Event) UnmarshalJSON(b []byte) error {
	var wire struct {
		SchemaVersion string          `json:"schemaVersion"`
		EventID       string          `json:"eventId"`
		Type          EventType       `json:"eventType"`
		OccurredAt    string          `json:"occurredAt"`
		Horse         HorseRef        `json:"horse"`
		Source        Source          `json:"source"`
		Payload       json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*e = Event{
		SchemaVersion: wire.SchemaVersion,
		EventID:       wire.EventID,
		Type:          wire.Type,
		OccurredAt:    wire.OccurredAt,
		Horse:         wire.Horse,
		Source:        wire.Source,
	}
	v := &ValidationError{}
	undeclaredKeys(v, "", b, reflect.TypeOf(wire))
	if len(wire.Payload) == 0 || string(wire.Payload) == "null" {
		return v.errOrNil()
	}

	var (
		p   Payload
		err error
	)
	switch wire.Type {
	case EventRaceResult:
		var r RaceResult
		err = json.Unmarshal(wire.Payload, &r)
		p = r
	case EventInjury:
		var i InjuryReport
		err = json.Unmarshal(wire.Payload, &i)
		p = i
	case EventNews:
		var n NewsItem
		err = json.Unmarshal(wire.Payload, &n)
		p = n
	default:
		// Unknown tag: leave the payload empty and let Validate report it.
		return v.errOrNil()
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", wire.Type, err)
	}
	e.Payload = p
	undeclaredKeys(v, "payload", wire.Payload, reflect.TypeOf(p))
	return v.errOrNil()
}

// undeclaredKeys adds a problem for every key of the JSON object raw that t
// has no field for, descending into nested structs. Key matching is exact.
func undeclaredKeys(v *ValidationError, prefix string, raw []byte, t reflect.Type) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	fields := jsonFields(t)
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		ft, ok := fields[key]
		if !ok {
			v.add(path, "unknown field")
			continue
		}
		if ft.Kind() == reflect.Struct {
			undeclaredKeys(v, path, obj[key], ft)
		}
	}
}

func jsonFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out[name] = f.Type
	}
	return out
}
