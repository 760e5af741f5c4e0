// Package worker runs queued scan tasks on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/chordscan/internal/adapters/mq/queue"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/logger"
	"github.com/okian/chordscan/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Processor runs the scan pipeline for one job.
type Processor interface {
	Process(ctx context.Context, job model.Job) (model.ScanResult, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job model.Job) (model.ScanResult, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, job model.Job) (model.ScanResult, error) {
	return f(ctx, job)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes tasks off the queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current task.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for scan tasks.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	shutdown chan struct{}
	done     chan struct{}

	processed *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		processed: &atomic.Int64{},
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.processTask(ctx, task)
		}
	}
}

// Shutdown stops the worker after its current task.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many tasks this worker has finished.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

// processTask runs one task and always delivers a result.
func (w *InMemoryWorker) processTask(ctx context.Context, task queue.Task) {
	start := time.Now()
	metrics.RecordQueueWait(float64(start.Sub(task.EnqueuedAt).Milliseconds()))
	metrics.AddWorkerBusy(1)

	log := logger.With(w.logger, logger.Job(task.Job.ID, task.Job.TraceID)...)

	result := w.run(ctx, task.Job)

	metrics.AddWorkerBusy(-1)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	w.processed.Add(1)

	if result.Err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", model.KindOf(result.Err).String())
		log.Warn(ctx, "scan task failed", logger.Error(result.Err), logger.Duration("took", time.Since(start)))
	} else {
		log.Debug(ctx, "scan task done", logger.Duration("took", time.Since(start)))
	}

	task.Result <- result
}

// run guards the processor so a panic fails the task instead of the pool.
func (w *InMemoryWorker) run(ctx context.Context, job model.Job) (res queue.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = queue.Result{Err: model.WrapKind(model.KindUnknown, "scan panicked", fmt.Errorf("%w: %v", ErrPanic, r))}
		}
	}()
	scan, err := w.processor.Process(ctx, job)
	if err != nil {
		if _, ok := model.AsError(err); !ok {
			err = model.WrapKind(model.KindUnknown, "scan failed", err)
		}
	}
	return queue.Result{Scan: scan, Err: err}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses NumCPU.
func NewPool(workerCount int, q Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, processor, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the total tasks finished across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var failed int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			failed++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d workers still running", ErrShutdownTimeout, failed)
	}
	return nil
}
