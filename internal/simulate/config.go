// Package simulate drives a running oracle with a synthetic herd and a stream
// of SIMULATION-sourced events, then checks the resulting leaderboard.
package simulate

import (
	"fmt"
	"time"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the oracle
	Horses     int           // Herd size, at least 2
	Events     int           // Number of distinct events to submit
	Replays    int           // Events submitted a second time to exercise dedupe
	TopN       int           // Leaderboard entries to fetch and verify
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // Max wait for the queue to drain
	Seed       uint64        // Generator seed; equal seeds give equal runs
	FirstToken uint64        // Token id of the first generated horse
	OutputFile string        // Optional JSON dump of the submitted events
	Verbose    bool
}

// Validate checks that a run can be executed.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrConfig)
	case c.Horses < minHerd:
		return fmt.Errorf("%w: need at least %d horses", ErrConfig, minHerd)
	case c.Events < 1:
		return fmt.Errorf("%w: events must be positive", ErrConfig)
	case c.Replays < 0 || c.Replays > c.Events:
		return fmt.Errorf("%w: replays must be within [0,events]", ErrConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	HorsesRegistered   int
	EventsGenerated    int
	EventsSubmitted    int
	EventsAccepted     int
	EventsDuplicate    int
	EventsRejected     int
	EventsFailed       int
	Backpressured      int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
