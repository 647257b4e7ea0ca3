package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxkimambo/shellchain/internal/logger"
)

// ErrQueueClosed is returned by Enqueue after Shutdown and by Dequeue once a
// closed queue has been drained.
var ErrQueueClosed = errors.New("queue is closed")

// Job is a unit of work executed by a pool worker.
type Job struct {
	ID         string
	Run        func(ctx context.Context)
	EnqueuedAt time.Time
}

// QueueMetrics tracks metrics for the job queue
type QueueMetrics struct {
	jobsEnqueued int64
	jobsDequeued int64
	jobsDropped  int64
	queueSize    int64
}

// NewQueueMetrics creates a new QueueMetrics instance
func NewQueueMetrics() *QueueMetrics {
	return &QueueMetrics{}
}

// GetJobsEnqueued returns the number of jobs enqueued
func (m *QueueMetrics) GetJobsEnqueued() int64 {
	return atomic.LoadInt64(&m.jobsEnqueued)
}

// GetJobsDequeued returns the number of jobs dequeued
func (m *QueueMetrics) GetJobsDequeued() int64 {
	return atomic.LoadInt64(&m.jobsDequeued)
}

// GetJobsDropped returns the number of jobs refused by a closed queue
func (m *QueueMetrics) GetJobsDropped() int64 {
	return atomic.LoadInt64(&m.jobsDropped)
}

// GetQueueSize returns the current queue size
func (m *QueueMetrics) GetQueueSize() int64 {
	return atomic.LoadInt64(&m.queueSize)
}

// JobQueue is an unbounded FIFO. Enqueue never blocks, so a worker can
// schedule follow-up work on its own pool without deadlocking.
type JobQueue struct {
	mu      sync.Mutex
	jobs    []Job
	notify  chan struct{}
	done    chan struct{}
	closed  bool
	metrics *QueueMetrics
}

// NewJobQueue creates an empty JobQueue
func NewJobQueue() *JobQueue {
	return &JobQueue{
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		metrics: NewQueueMetrics(),
	}
}

// Enqueue appends a job to the queue
func (q *JobQueue) Enqueue(job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		atomic.AddInt64(&q.metrics.jobsDropped, 1)
		return ErrQueueClosed
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	atomic.AddInt64(&q.metrics.jobsEnqueued, 1)
	atomic.AddInt64(&q.metrics.queueSize, 1)
	q.wake()

	logger.Op.WithFields(map[string]interface{}{
		"jobID": job.ID,
	}).Debug("Job enqueued")
	return nil
}

// Dequeue blocks until a job is available, the queue is closed and empty,
// or ctx is done.
func (q *JobQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = Job{}
			q.jobs = q.jobs[1:]
			remaining := len(q.jobs)
			q.mu.Unlock()

			atomic.AddInt64(&q.metrics.jobsDequeued, 1)
			atomic.AddInt64(&q.metrics.queueSize, -1)
			if remaining > 0 {
				// pass the signal on to another idle worker
				q.wake()
			}
			return job, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Job{}, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-q.notify:
		case <-q.done:
		}
	}
}

func (q *JobQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Size returns the current number of jobs in the queue
func (q *JobQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// IsClosed returns true if the queue is closed
func (q *JobQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// GetMetrics returns a copy of the current queue metrics
func (q *JobQueue) GetMetrics() QueueMetrics {
	return QueueMetrics{
		jobsEnqueued: q.metrics.GetJobsEnqueued(),
		jobsDequeued: q.metrics.GetJobsDequeued(),
		jobsDropped:  q.metrics.GetJobsDropped(),
		queueSize:    q.metrics.GetQueueSize(),
	}
}

// Shutdown refuses new jobs. Jobs already queued are still handed out.
func (q *JobQueue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	logger.Op.Debug("Shutting down job queue")
	close(q.done)
}
