package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/pkg/logger"
)

const directoryPermission = 0o750

// Run executes a complete simulation against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("horses", config.Horses),
		logger.Int("events", config.Events),
		logger.Int("replays", config.Replays),
		logger.Int("workers", config.Workers),
		logger.Any("seed", config.Seed))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if _, err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register the herd
	gen := NewGenerator(config.Seed, stats.StartTime)
	herd := gen.Herd(config.Horses, model.TokenID(config.FirstToken))
	for _, h := range herd {
		if err := client.Register(ctx, h); err != nil {
			return stats, fmt.Errorf("herd registration failed: %w", err)
		}
		stats.HorsesRegistered++
	}
	log.Info(ctx, "herd registered", logger.Int("horses", stats.HorsesRegistered))

	// Step 3: Generate and submit events, then replay a prefix
	events := gen.Events(config.Events)
	stats.EventsGenerated = len(events)
	submitEvents(ctx, config, client, events, stats, log)
	if config.Replays > 0 {
		submitEvents(ctx, config, client, events[:config.Replays], stats, log)
	}

	// Step 4: Wait for the queue to drain
	if err := waitForDrain(ctx, client, config.Settle); err != nil {
		log.Warn(ctx, "queue did not drain before verification", logger.Error(err))
	}

	// Step 5: Fetch and verify the leaderboard
	top, err := client.Top(ctx, min(config.TopN, config.Horses))
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(top)
	if err := VerifyLeaderboard(top); err != nil {
		return stats, err
	}
	if err := verifyDedupe(stats, config.Replays); err != nil {
		return stats, err
	}

	// Step 6: Save events to file
	if config.OutputFile != "" {
		if err := saveEvents(config.OutputFile, events); err != nil {
			log.Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// submitEvents submits events concurrently using a worker pool.
func submitEvents(ctx context.Context, config *Config, client *Client, events []model.Event, stats *Stats, log logger.Logger) {
	var submitted, accepted, duplicate, rejected, failed, backpressured int64

	eventChan := make(chan model.Event, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range eventChan {
				outcome, retries := submitWithRetry(ctx, client, e)
				atomic.AddInt64(&submitted, 1)
				atomic.AddInt64(&backpressured, int64(retries))
				switch outcome {
				case OutcomeAccepted:
					atomic.AddInt64(&accepted, 1)
				case OutcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case OutcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose && outcome != OutcomeAccepted {
					log.Debug(ctx, "event not accepted", logger.String("eventId", e.EventID), logger.Int("outcome", int(outcome)))
				}
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, e := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- e:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted += int(submitted)
	stats.EventsAccepted += int(accepted)
	stats.EventsDuplicate += int(duplicate)
	stats.EventsRejected += int(rejected)
	stats.EventsFailed += int(failed)
	stats.Backpressured += int(backpressured)

	log.Info(ctx, "event submission completed",
		logger.Int("submitted", int(submitted)),
		logger.Int("accepted", int(accepted)),
		logger.Int("duplicate", int(duplicate)),
		logger.Int("rejected", int(rejected)),
		logger.Int("failed", int(failed)))
}

// submitWithRetry backs off while the oracle reports backpressure.
func submitWithRetry(ctx context.Context, client *Client, e model.Event) (Outcome, int) { //nolint:gocritic // hugeParam
	for attempt := 0; ; attempt++ {
		outcome, err := client.Submit(ctx, e)
		if err != nil || outcome != OutcomeBackpressure {
			return outcome, attempt
		}
		if attempt == maxBackpressureRetries {
			return OutcomeFailed, attempt
		}
		select {
		case <-ctx.Done():
			return OutcomeFailed, attempt
		case <-time.After(backpressureBackoff * time.Duration(attempt+1)):
		}
	}
}

// waitForDrain polls the health endpoint until the queue is empty.
func waitForDrain(ctx context.Context, client *Client, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		stats, err := client.Health(ctx)
		if err == nil {
			if n, ok := stats["queueLength"].(float64); ok && n == 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for queue to drain: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// saveEvents writes the generated events as a JSON array.
func saveEvents(filename string, events []model.Event) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("horsesRegistered", stats.HorsesRegistered),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsRejected", stats.EventsRejected),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("backpressured", stats.Backpressured),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
