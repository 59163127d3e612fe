// Package worker runs committed events through the valuation pipeline.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/turforacle/internal/adapters/mq/queue"
	"github.com/okian/turforacle/pkg/logger"
	"github.com/okian/turforacle/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Processor handles one job. The oracle pipeline implements it.
type Processor interface {
	Process(ctx context.Context, j queue.Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, j queue.Job) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, j queue.Job) error { return f(ctx, j) } //nolint:gocritic // hugeParam

// Source is where workers receive jobs from.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for it.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	source    Source
	processor Processor
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:    source,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Name identifies the worker in logs.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called or the source closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing event",
					logger.String("eventID", j.Event.EventID),
					logger.String("hash", j.Commitment.Hash.Hex()),
					logger.String("requestID", j.RequestID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the worker and waits until it exits or ctx expires.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) (err error) { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return w.processor.Process(ctx, j)
}

// Pool manages multiple workers over one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// twice the CPU count.
func NewPool(workerCount int, source Source, processor Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		source:  source,
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(source, processor, wopts...)
	}
	p.logger = p.workers[0].logger
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals every worker and waits for them without draining the source.
func (p *Pool) Stop(ctx context.Context) {
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the source when it can be closed, lets workers drain it
// and waits for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
