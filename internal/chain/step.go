package chain

import (
	"context"
	"errors"
	"time"

	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
)

// execute runs one item through Before, the runner, the outcome hook and
// After. It never panics: a panicking hook turns the step into a Stop.
func (c *Chain) execute(r *run, index int, poolCtx context.Context) StepReport {
	item := &r.items[index]
	report := StepReport{
		ChainID:  c.id,
		Index:    index,
		Name:     stepName(*item, index),
		Decision: Continue,
		Started:  time.Now(),
	}
	defer func() {
		report.Duration = time.Since(report.Started)
	}()

	logger.Op.WithFields(map[string]interface{}{
		"chain_id": c.id,
		"step":     index,
		"item":     report.Name,
	}).Debug("Step started")

	ranBefore := true
	if item.before != nil {
		ranBefore = c.invoke(&report, "Before", func() { item.before(item) })
	}
	report.Command = item.command

	if !ranBefore {
		// the command never ran; record the panic as the step's error output
		report.Outcome = Outcome{Kind: Failure, Value: chainerrors.DisplayErrorSummary(report.Err)}
	} else {
		stdout, stderr, err := c.runCommand(r.ctx, poolCtx, item.command)
		report.Stdout = stdout
		report.Stderr = stderr
		if err != nil {
			report.Err = err
			if stderr == "" {
				// a runner failure must not look like a silent success
				stderr = chainerrors.DisplayErrorSummary(err)
			}
		}

		if stderr != "" {
			value := stderr
			report.Outcome = Outcome{Kind: Failure, Value: value}
			c.invoke(&report, "OnError", func() {
				report.Decision = item.onError(item, &value)
			})
			report.Outcome.Value = value
		} else {
			value := stdout
			report.Outcome = Outcome{Kind: Success, Value: value}
			c.invoke(&report, "OnSuccess", func() {
				report.Decision = item.onSuccess(item, &value)
			})
			report.Outcome.Value = value
		}
	}

	if item.after != nil {
		c.invoke(&report, "After", func() { item.after(item) })
	}

	return report
}

// runCommand calls the runner with a context bounded by the step timeout
// and cancelled when either the run or the pool goes away.
func (c *Chain) runCommand(runCtx, poolCtx context.Context, command string) (string, string, error) {
	ctx, cancel := context.WithCancel(runCtx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	if c.config.StepTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.config.StepTimeout)
		defer cancelTimeout()
	}

	stdout, stderr, err := c.runner.Run(ctx, command)
	if err != nil && c.config.StepTimeout > 0 && errors.Is(err, context.DeadlineExceeded) && runCtx.Err() == nil {
		err = chainerrors.NewStepTimeoutError(command, c.config.StepTimeout, err)
	}
	return stdout, stderr, err
}

// invoke calls a user hook, turning a panic into a Stop decision.
func (c *Chain) invoke(report *StepReport, hook string, fn func()) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			err := chainerrors.NewHookPanicError(report.Index, report.Name, hook, rec)
			if report.Err == nil {
				report.Err = err
			}
			report.Decision = Stop
			ok = false

			logger.Op.WithFields(map[string]interface{}{
				"chain_id": c.id,
				"step":     report.Index,
				"hook":     hook,
			}).Error(chainerrors.DisplayErrorSummary(err))
		}
	}()
	fn()
	return true
}
