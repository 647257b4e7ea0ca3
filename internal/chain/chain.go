// Package chain runs an ordered list of commands one after another on a
// worker pool. Each item's outcome hook decides whether the next item runs,
// and the chain's completion hook fires exactly once per run.
package chain

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
	"github.com/maxkimambo/shellchain/internal/runner"
	"github.com/maxkimambo/shellchain/internal/workerpool"
)

// Config controls how a chain schedules its items.
type Config struct {
	// PoolSize is the number of workers of the pool the chain creates for
	// itself when Pool is nil. Items of one chain never run in parallel;
	// values above one only matter for pools shared between chains.
	PoolSize int
	// Pool is a caller-owned pool shared with other chains. The chain does
	// not start or shut it down.
	Pool *workerpool.Pool
	// StepTimeout bounds each runner call. Zero means no limit.
	StepTimeout time.Duration
}

// Chain sequences items. It is safe to call Stop, LastResult and LastError
// from any goroutine, including from inside hooks.
type Chain struct {
	id     string
	runner runner.Runner
	config Config

	mu              sync.RWMutex
	items           []Item
	started         bool
	lastResult      string
	lastError       string
	onAllCompleted  func()
	onStepCompleted func(StepReport)
	current         *run

	cancelled atomic.Bool
	running   atomic.Bool
}

// run holds the state of one Start..completion cycle.
type run struct {
	ctx      context.Context
	items    []Item
	pool     *workerpool.Pool
	ownsPool bool
	done     chan struct{}
	once     sync.Once
	reports  []StepReport
}

// New creates a chain that executes commands with r. A nil r falls back to
// runner.NewExecRunner.
func New(r runner.Runner, config Config) *Chain {
	if r == nil {
		r = runner.NewExecRunner()
	}
	if config.PoolSize < 1 {
		config.PoolSize = 1
	}
	return &Chain{
		id:     uuid.NewString(),
		runner: r,
		config: config,
	}
}

// ID identifies the chain in logs and step reports.
func (c *Chain) ID() string {
	return c.id
}

// Append copies items onto the end of the chain. Items cannot be added once
// the chain has been started.
func (c *Chain) Append(items ...Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return chainerrors.NewChainStartedError(c.id)
	}
	c.items = append(c.items, items...)
	return nil
}

// Items returns a copy of the configured items.
func (c *Chain) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// OnAllCompleted sets the hook fired once when a run ends, whether every
// item ran or the chain stopped early.
func (c *Chain) OnAllCompleted(hook func()) {
	c.mu.Lock()
	c.onAllCompleted = hook
	c.mu.Unlock()
}

// OnStepCompleted sets a hook fired on the worker after each step report has
// been recorded and before the next item is dispatched.
func (c *Chain) OnStepCompleted(hook func(StepReport)) {
	c.mu.Lock()
	c.onStepCompleted = hook
	c.mu.Unlock()
}

// LastResult is the stdout of the latest item, as rewritten by its outcome hook.
func (c *Chain) LastResult() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastResult
}

// LastError is the stderr of the latest item, as rewritten by its outcome hook.
func (c *Chain) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Stop prevents any further item from being dispatched. The item currently
// running is not interrupted.
func (c *Chain) Stop() {
	c.cancelled.Store(true)
	logger.Op.WithFields(map[string]interface{}{
		"chain_id": c.id,
	}).Debug("Chain stop requested")
}

// Cancelled reports whether the current or last run was stopped early.
func (c *Chain) Cancelled() bool {
	return c.cancelled.Load()
}

// Running reports whether a run is in progress.
func (c *Chain) Running() bool {
	return c.running.Load()
}

// Start validates the chain and dispatches its first item. It returns
// without waiting; use Wait or Done to observe completion.
//
// A chain containing an item without both outcome hooks is refused before
// anything runs. ctx is the parent of every step's context; cancelling it
// interrupts the running command and stops the chain.
func (c *Chain) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return chainerrors.NewChainRunningError(c.id)
	}
	if len(c.items) == 0 {
		return chainerrors.NewEmptyChainError()
	}
	for i, item := range c.items {
		if !item.Executable() {
			return chainerrors.NewMissingHookError(i, stepName(item, i), item.missingHooks()...)
		}
	}

	log := logger.Op.WithFields(map[string]interface{}{
		"chain_id": c.id,
		"items":    len(c.items),
	})
	if c.onAllCompleted == nil {
		log.Warn("No completion hook set; results are only visible through LastResult and LastError")
	}

	r := &run{
		ctx:   ctx,
		items: make([]Item, len(c.items)),
		pool:  c.config.Pool,
		done:  make(chan struct{}),
	}
	// Before hooks rewrite commands on the run's copies, so a chain can be
	// started again with its placeholders intact.
	copy(r.items, c.items)

	if r.pool == nil {
		r.pool = workerpool.New(c.config.PoolSize)
		r.ownsPool = true
		if err := r.pool.Start(); err != nil {
			return fmt.Errorf("failed to start worker pool: %w", err)
		}
	}

	c.cancelled.Store(false)
	c.lastResult = ""
	c.lastError = ""
	c.running.Store(true)

	// c.mu is held until Start returns, so the first step cannot record its
	// report before the run is published below.
	if err := c.dispatch(r, 0); err != nil {
		c.running.Store(false)
		if r.ownsPool {
			r.pool.Close()
			r.pool.Wait()
		}
		return fmt.Errorf("failed to dispatch first item: %w", err)
	}
	c.started = true
	c.current = r

	log.Debug("Chain started")
	return nil
}

// Wait blocks until the current run has completed or ctx is done. It
// returns nil immediately if the chain was never started.
func (c *Chain) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after the completion hook of the current run has returned.
func (c *Chain) Done() <-chan struct{} {
	c.mu.RLock()
	r := c.current
	c.mu.RUnlock()

	if r == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return r.done
}

// Run starts the chain and blocks until it has completed. Cancelling ctx
// interrupts the running command and stops the chain, but Run still returns
// only after the completion hook has fired.
func (c *Chain) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	<-c.Done()
	return nil
}

// Summary returns the step reports of the current or last run.
func (c *Chain) Summary() []StepReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return nil
	}
	out := make([]StepReport, len(c.current.reports))
	copy(out, c.current.reports)
	return out
}

func (c *Chain) dispatch(r *run, index int) error {
	return r.pool.Submit(workerpool.Job{
		ID: fmt.Sprintf("%s/%d", c.id, index),
		Run: func(poolCtx context.Context) {
			report := c.execute(r, index, poolCtx)
			c.handleReport(r, report)
		},
	})
}

// handleReport records a finished step and either dispatches the next item
// or completes the run.
func (c *Chain) handleReport(r *run, report StepReport) {
	if !report.Decision.Continuable() {
		c.cancelled.Store(true)
	}
	if err := r.ctx.Err(); err != nil {
		c.cancelled.Store(true)
	}

	c.mu.Lock()
	if report.Outcome.Kind == Success {
		c.lastResult = report.Outcome.Value
		c.lastError = report.Stderr
	} else {
		c.lastResult = report.Stdout
		c.lastError = report.Outcome.Value
	}
	r.reports = append(r.reports, report)
	stepHook := c.onStepCompleted
	c.mu.Unlock()

	fields := map[string]interface{}{
		"chain_id": c.id,
		"step":     report.Index,
		"item":     report.Name,
		"outcome":  report.Outcome.Kind.String(),
		"decision": report.Decision.String(),
		"duration": report.Duration.Round(time.Millisecond).String(),
	}
	if report.Err != nil {
		fields["error"] = chainerrors.DisplayErrorSummary(report.Err)
	}
	logger.Op.WithFields(fields).Debug("Step finished")

	if stepHook != nil {
		c.callStepHook(stepHook, report)
	}

	next := report.Index + 1
	switch {
	case c.cancelled.Load():
		c.finish(r)
	case next < len(r.items):
		if err := c.dispatch(r, next); err != nil {
			logger.Op.WithFields(map[string]interface{}{
				"chain_id": c.id,
				"step":     next,
				"error":    err.Error(),
			}).Warn("Failed to dispatch next item; stopping chain")
			c.cancelled.Store(true)
			c.finish(r)
		}
	default:
		c.finish(r)
	}
}

func (c *Chain) callStepHook(hook func(StepReport), report StepReport) {
	defer func() {
		if rec := recover(); rec != nil {
			c.cancelled.Store(true)
			logger.Op.WithFields(map[string]interface{}{
				"chain_id": c.id,
				"step":     report.Index,
				"panic":    fmt.Sprint(rec),
			}).Error("Step completion hook panicked; stopping chain")
		}
	}()
	hook(report)
}

// finish fires the completion hook once per run and releases the run's
// resources. Done is closed only after the workers of an owned pool have
// exited.
func (c *Chain) finish(r *run) {
	r.once.Do(func() {
		c.mu.RLock()
		hook := c.onAllCompleted
		c.mu.RUnlock()

		if hook != nil {
			c.callCompletionHook(hook)
		}

		logger.Op.WithFields(map[string]interface{}{
			"chain_id":  c.id,
			"cancelled": c.cancelled.Load(),
		}).Debug("Chain completed")

		if !r.ownsPool {
			c.running.Store(false)
			close(r.done)
			return
		}

		// finish runs on one of the pool's workers, so the wait for them to
		// exit happens off the worker.
		r.pool.Close()
		go func() {
			r.pool.Wait()
			c.running.Store(false)
			close(r.done)
		}()
	})
}

func (c *Chain) callCompletionHook(hook func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := chainerrors.NewCompletionPanicError(c.id, rec)
			logger.Op.Error(chainerrors.DisplayErrorSummary(err))
		}
	}()
	hook()
}

func stepName(item Item, index int) string {
	if item.name != "" {
		return item.name
	}
	return fmt.Sprintf("step-%d", index)
}
