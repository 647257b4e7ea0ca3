package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maxkimambo/shellchain/internal/logger"
)

// ErrPoolClosed is returned by Submit once the pool has been closed.
var ErrPoolClosed = errors.New("worker pool is closed")

// Worker pulls jobs off the shared queue one at a time.
type Worker struct {
	id    int
	queue *JobQueue
	wg    *sync.WaitGroup
}

// NewWorker creates a new worker bound to queue
func NewWorker(id int, queue *JobQueue, wg *sync.WaitGroup) *Worker {
	return &Worker{
		id:    id,
		queue: queue,
		wg:    wg,
	}
}

// GetID returns the worker ID
func (w *Worker) GetID() int {
	return w.id
}

// ProcessJob runs a single job. A panicking job is logged and does not take
// the worker down with it.
func (w *Worker) ProcessJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
			logger.Op.WithFields(map[string]interface{}{
				"workerID": w.id,
				"jobID":    job.ID,
				"panic":    fmt.Sprint(r),
			}).Error("Job panicked")
		}
	}()

	logger.Op.WithFields(map[string]interface{}{
		"workerID": w.id,
		"jobID":    job.ID,
		"waited":   time.Since(job.EnqueuedAt).String(),
	}).Debug("Worker processing job")

	if job.Run != nil {
		job.Run(ctx)
	}
	return nil
}

// Start begins the worker's job processing loop
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		logger.Op.WithFields(map[string]interface{}{
			"workerID": w.id,
		}).Debug("Worker started")

		for {
			job, err := w.queue.Dequeue(ctx)
			if err != nil {
				logger.Op.WithFields(map[string]interface{}{
					"workerID": w.id,
					"reason":   err.Error(),
				}).Debug("Worker stopped")
				return
			}
			_ = w.ProcessJob(ctx, job)
		}
	}()
}

// Pool is a fixed-size set of workers sharing one FIFO queue. Jobs submitted
// to a pool of size one run strictly in submission order.
type Pool struct {
	size    int
	queue   *JobQueue
	workers []*Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

// New creates a pool with size workers. Sizes below one are raised to one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:    size,
		queue:   NewJobQueue(),
		workers: make([]*Worker, 0, size),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}
	if p.queue.IsClosed() {
		return ErrPoolClosed
	}

	for i := 0; i < p.size; i++ {
		worker := NewWorker(i+1, p.queue, &p.wg)
		p.workers = append(p.workers, worker)
		worker.Start(p.ctx)
	}
	p.started = true

	logger.Op.WithFields(map[string]interface{}{
		"workerCount": len(p.workers),
	}).Debug("Worker pool started")
	return nil
}

// Submit queues a job. It never blocks and is safe to call from a job.
func (p *Pool) Submit(job Job) error {
	if err := p.queue.Enqueue(job); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Close stops accepting jobs and returns immediately. Workers exit after the
// jobs already queued have run. Close is safe to call from inside a job.
func (p *Pool) Close() {
	p.queue.Shutdown()
}

// Wait blocks until every worker has exited. Call it after Close; it must
// not be called from inside a job.
func (p *Pool) Wait() {
	p.wg.Wait()
	p.cancel()
	p.markStopped()
}

// Shutdown closes the pool and waits for the workers to drain the queue. If
// they do not finish within timeout the context handed to running jobs is
// cancelled. Shutdown must not be called from inside a job.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.markStopped()
		return nil
	case <-time.After(timeout):
		p.cancel()
		logger.Op.Warn("Worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown timed out after %v", timeout)
	}
}

func (p *Pool) markStopped() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

// Context is cancelled when a Shutdown gives up waiting.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// IsStarted returns whether the worker pool is currently started
func (p *Pool) IsStarted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

// IsClosed reports whether Submit will refuse new jobs
func (p *Pool) IsClosed() bool {
	return p.queue.IsClosed()
}

// GetWorkerCount returns the number of workers in the pool
func (p *Pool) GetWorkerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// Size returns the configured number of workers
func (p *Pool) Size() int {
	return p.size
}

// GetMetrics returns the queue metrics
func (p *Pool) GetMetrics() QueueMetrics {
	return p.queue.GetMetrics()
}
