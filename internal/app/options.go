package service

import (
	"time"

	"github.com/okian/turforacle/internal/adapters/blobstore"
	"github.com/okian/turforacle/internal/adapters/ledger"
	eventqueue "github.com/okian/turforacle/internal/adapters/mq/queue"
	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/dedupe"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/valuation"
	"github.com/okian/turforacle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the default event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the default in-memory replay guard.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithXFactorDepth bounds pedigree traversal for x-factor detection.
func WithXFactorDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.xfactorDepth = depth
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry replaces the in-memory registry. It also becomes the chain
// reader and writer unless those are set separately.
func WithRegistry(r repository.Store) Option {
	return func(s *Service) { s.registry = r }
}

// WithChainReader sets where token state is read from.
func WithChainReader(r ChainReader) Option {
	return func(s *Service) { s.reader = r }
}

// WithChainWriter sets where valuations are submitted.
func WithChainWriter(w ChainWriter) Option {
	return func(s *Service) { s.writer = w }
}

// WithDeduper sets the replay guard, e.g. a Redis one shared by instances.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) { s.deduper = d }
}

// WithQueue sets the event queue.
func WithQueue(q eventqueue.Queue) Option {
	return func(s *Service) { s.queue = q }
}

// WithValuer sets the valuation model.
func WithValuer(v valuation.Valuer) Option {
	return func(s *Service) { s.valuer = v }
}

// WithExplainer sets the explanation generator.
func WithExplainer(e valuation.Explainer) Option {
	return func(s *Service) { s.explainer = e }
}

// WithInjuryCatalog replaces the built-in injury catalog.
func WithInjuryCatalog(c *injury.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithBlobStore stores every committed canonical event.
func WithBlobStore(b blobstore.BlobStore) Option {
	return func(s *Service) { s.blobs = b }
}

// WithLedger sets the prediction ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithPredictionAgent logs the model's value for every processed event under
// agent in the prediction ledger.
func WithPredictionAgent(agent string) Option {
	return func(s *Service) { s.predictionAgent = agent }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
