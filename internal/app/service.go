// Package service runs the oracle pipeline: it commits reported events,
// guards against replays, revalues the affected horses and their relatives,
// and records the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/turforacle/internal/adapters/blobstore"
	"github.com/okian/turforacle/internal/adapters/ledger"
	eventqueue "github.com/okian/turforacle/internal/adapters/mq/queue"
	workerpool "github.com/okian/turforacle/internal/adapters/mq/worker"
	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/dedupe"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/valuation"
	"github.com/okian/turforacle/internal/domain/xfactor"
	"github.com/okian/turforacle/pkg/logger"
	"github.com/okian/turforacle/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
)

// Service wires the pipeline components together. Collaborators left unset
// get in-memory defaults in New.
type Service struct {
	mu sync.RWMutex

	registry  repository.Store
	reader    ChainReader
	writer    ChainWriter
	deduper   dedupe.Deduper
	queue     eventqueue.Queue
	valuer    valuation.Valuer
	explainer valuation.Explainer
	catalog   *injury.Catalog
	blobs     blobstore.BlobStore
	ledger    ledger.Ledger
	pool      *workerpool.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	xfactorDepth    int
	predictionAgent string

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		xfactorDepth: xfactor.DefaultMaxDepth,
		catalog:      injury.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("oracle")
	}
	if s.registry == nil {
		s.registry = repository.NewTreapStore()
	}
	if s.reader == nil {
		s.reader = s.registry
	}
	if s.writer == nil {
		s.writer = s.registry
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.queue == nil {
		s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	}
	if s.valuer == nil {
		s.valuer = valuation.NewFormValuer()
	}
	if s.explainer == nil {
		s.explainer = valuation.TemplateExplainer{}
	}
	return s
}

// Start launches the worker pool. Accepted events are processed until Stop,
// even after ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.queue.IsClosed() {
		return fmt.Errorf("start: %w", eventqueue.ErrClosed)
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, workerpool.WithLogger(s.logger.Named("worker")))
	// Workers outlive ctx; Stop closes the queue and waits for them to drain it.
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true

	s.logger.Info(ctx, "oracle service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("blobStore", s.blobs != nil),
		logger.Bool("predictionLedger", s.ledger != nil),
	)
	return nil
}

// Stop closes intake and drains queued events.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping oracle service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "oracle service stopped")
	return err
}

// Submit validates and commits e, records its hash against replays and
// queues it for the workers. A replay is acknowledged as a duplicate.
func (s *Service) Submit(ctx context.Context, e model.Event, requestID string) (SubmitResult, error) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return SubmitResult{}, ErrNotStarted
	}

	c, err := s.commit(e)
	if err != nil {
		return SubmitResult{}, err
	}
	hash := c.Hash.Hex()

	seen, err := s.deduper.SeenAndRecord(ctx, hash)
	if err != nil {
		metrics.RecordPipelineFailure("dedupe")
		return SubmitResult{}, err
	}
	if seen {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event", logger.String("eventID", e.EventID), logger.String("hash", hash))
		return SubmitResult{EventHash: hash, Duplicate: true}, nil
	}

	job := eventqueue.Job{Event: e, Commitment: c, RequestID: requestID, ReceivedAt: s.now()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		// Let the reporter retry once there is room.
		s.release(ctx, hash)
		return SubmitResult{}, err
	}
	return SubmitResult{EventHash: hash}, nil
}

// ProcessEvent runs the whole pipeline for e synchronously.
func (s *Service) ProcessEvent(ctx context.Context, e model.Event) (Outcome, error) { //nolint:gocritic // hugeParam
	c, err := s.commit(e)
	if err != nil {
		return Outcome{}, err
	}
	hash := c.Hash.Hex()

	seen, err := s.deduper.SeenAndRecord(ctx, hash)
	if err != nil {
		metrics.RecordPipelineFailure("dedupe")
		return Outcome{}, err
	}
	if seen {
		metrics.RecordEventDuplicate()
		return Outcome{Commitment: c}, ErrDuplicate
	}
	return s.run(ctx, e, c)
}

// release forgets hash so the same event can be submitted again.
func (s *Service) release(ctx context.Context, hash string) {
	if err := s.deduper.Unrecord(ctx, hash); err != nil {
		s.logger.Warn(ctx, "failed to release event hash", logger.String("hash", hash), logger.Error(err))
	}
}

func (s *Service) commit(e model.Event) (canonical.Commitment, error) { //nolint:gocritic // hugeParam
	c, err := canonical.Commit(e)
	if err != nil {
		reason := "encoding"
		if errors.Is(err, model.ErrValidation) {
			reason = "validation"
		}
		metrics.RecordEventRejected(reason)
		return canonical.Commitment{}, err
	}
	metrics.RecordEventCommitted()
	return c, nil
}

// Register adds or replaces a horse in the registry.
func (s *Service) Register(ctx context.Context, h repository.Horse) error { //nolint:gocritic // hugeParam
	return s.registry.Register(ctx, h)
}

// Horse returns a registered horse.
func (s *Service) Horse(ctx context.Context, id model.TokenID) (repository.Horse, error) {
	return s.registry.Horse(ctx, id)
}

// TopN returns the n most valuable horses.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.registry.TopN(ctx, n)
}

// Rank returns the value rank of a horse.
func (s *Service) Rank(ctx context.Context, id model.TokenID) (repository.Entry, error) {
	return s.registry.Rank(ctx, id)
}

// XFactor traces the trait through the registered pedigree of id.
func (s *Service) XFactor(ctx context.Context, id model.TokenID) (xfactor.Result, error) {
	graph, err := s.reader.Pedigree(ctx, id, s.xfactorDepth)
	if err != nil {
		return xfactor.Result{}, err
	}
	res := xfactor.Detect(strconv.FormatUint(uint64(id), 10), graph, xfactor.WithMaxDepth(s.xfactorDepth))
	metrics.RecordXFactorDetection(res.IsCarrier)
	return res, nil
}

// Ledger exposes the prediction ledger, nil when none is configured.
func (s *Service) Ledger() ledger.Ledger { return s.ledger }

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"queueLength": s.queue.Len(ctx),
		"horses":      s.registry.Count(ctx),
	}
}
