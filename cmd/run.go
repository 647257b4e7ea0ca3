package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maxkimambo/shellchain/internal/chain"
	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
	"github.com/maxkimambo/shellchain/internal/progress"
	"github.com/maxkimambo/shellchain/internal/runner"
	"github.com/maxkimambo/shellchain/internal/utils"
	"github.com/spf13/cobra"
)

const maxCellWidth = 48

type runOptions struct {
	file     string
	timeout  time.Duration
	poolSize int
	vars     []string
	confirm  bool
	retries  int
	backoff  time.Duration
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a chain file",
		Long: `Runs the steps of a chain file in order, one at a time.

Each step's command is executed directly (no shell). A step whose command
writes to stderr takes its on_error action, any other step takes its
on_success action. The exit status is non-zero when the chain stopped on a
failed step or was interrupted.

Example:
shellchain run -f export.yaml
shellchain run -f export.yaml --var device=emulator-5554 --timeout 30s
`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.poolSize < 1 || opts.poolSize > 64 {
				return fmt.Errorf("--pool-size must be between 1 and 64, got %d", opts.poolSize)
			}
			if opts.retries < 0 {
				return fmt.Errorf("--retries must not be negative, got %d", opts.retries)
			}
			if opts.timeout < 0 {
				return fmt.Errorf("--timeout must not be negative, got %v", opts.timeout)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Chain file to run (required)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-step timeout, overrides step_timeout from the file (0 = none)")
	cmd.Flags().IntVar(&opts.poolSize, "pool-size", 1, "Workers in the chain's pool (1-64)")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "Override a chain var as key=value (repeatable)")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "Run a step's command again up to this many times while it writes to stderr")
	cmd.Flags().DurationVar(&opts.backoff, "retry-backoff", time.Second, "Wait before the first retry, doubling on each further retry")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "List the commands and ask before running them")

	return cmd
}

func runChain(cmd *cobra.Command, global *globalOptions, opts *runOptions) error {
	f, err := loadChainFile(opts.file, opts.vars)
	if err != nil {
		return err
	}
	name := chainName(f, opts.file)

	stepTimeout, _ := f.Timeout()
	if cmd.Flags().Changed("timeout") {
		stepTimeout = opts.timeout
	}

	var r runner.Runner = runner.NewExecRunner()
	if opts.retries > 0 {
		policy := runner.NewDefaultRetryPolicy(opts.retries)
		policy.InitialBackoff = opts.backoff
		r = runner.NewRetryRunner(r, policy)
	}

	c := chain.New(r, chain.Config{
		PoolSize:    opts.poolSize,
		StepTimeout: stepTimeout,
	})
	items, err := f.Items(c)
	if err != nil {
		return err
	}
	if err := c.Append(items...); err != nil {
		return err
	}

	if opts.confirm {
		commands := make([]string, len(items))
		for i, item := range items {
			commands[i] = item.Command()
		}
		ok, err := utils.PromptForConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), false, "run", commands)
		if err != nil {
			return err
		}
		if !ok {
			logger.User.Warn("Chain run cancelled by user")
			return nil
		}
	}

	reporter := progress.NewReporter(name, len(items))
	c.OnStepCompleted(func(report chain.StepReport) {
		logStep(reporter.Record(report), report)
	})
	c.OnAllCompleted(func() {
		logger.Op.WithFields(map[string]interface{}{
			"chain":     name,
			"chain_id":  c.ID(),
			"cancelled": c.Cancelled(),
		}).Debug("Completion hook fired")
	})

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	logger.User.Startingf("Running chain %s (%d steps)", name, len(items))
	logger.Op.WithFields(map[string]interface{}{
		"chain_id":     c.ID(),
		"pool_size":    opts.poolSize,
		"retries":      opts.retries,
		"step_timeout": stepTimeout.String(),
	}).Debug("Chain configured")

	// Run returns once the interrupted step has finished and the completion
	// hook has fired, so the summary below is complete.
	if err := c.Run(ctx); err != nil {
		return err
	}

	reports := c.Summary()
	if !global.quiet && !global.jsonLogs {
		printSummary(cmd.OutOrStdout(), name, reports, len(items), ctx.Err() != nil)
	}
	logger.User.Info(reporter.Report())

	return runResult(ctx, name, reports, len(items))
}

// logStep prints one finished step and, at debug level, its raw output.
func logStep(line string, report chain.StepReport) {
	if report.Outcome.Kind == chain.Failure {
		logger.User.Failure(line)
	} else {
		logger.User.Success(line)
	}

	fields := map[string]interface{}{
		"step":    report.Index,
		"command": report.Command,
		"stdout":  strings.TrimSpace(report.Stdout),
		"stderr":  strings.TrimSpace(report.Stderr),
	}
	if report.Err != nil {
		fields["error"] = chainerrors.DisplayErrorSummary(report.Err)
	}
	logger.Op.WithFields(fields).Debug("Step output")
}

// runResult maps the end of a run to the command's error.
func runResult(ctx context.Context, name string, reports []chain.StepReport, total int) error {
	if err := ctx.Err(); err != nil {
		return chainerrors.NewChainInterruptedError(name, len(reports), total, err)
	}
	if runFailed(reports) {
		last := reports[len(reports)-1]
		return chainerrors.NewChainFailedError(name, last.Name, strings.TrimSpace(last.Outcome.Value))
	}
	return nil
}

// runFailed reports whether the run ended on a failed step that stopped it.
func runFailed(reports []chain.StepReport) bool {
	if len(reports) == 0 {
		return false
	}
	last := reports[len(reports)-1]
	return last.Outcome.Kind == chain.Failure && !last.Decision.Continuable()
}

func printSummary(w io.Writer, name string, reports []chain.StepReport, total int, interrupted bool) {
	table := utils.NewTableFormatter([]string{"#", "Step", "Outcome", "Decision", "Duration", "Output"}).
		WithMaxCellWidth(maxCellWidth)
	for _, r := range reports {
		outcome := "✓ success"
		if r.Outcome.Kind == chain.Failure {
			outcome = "✗ failure"
		}
		table.AddRow([]string{
			fmt.Sprintf("%d", r.Index+1),
			r.Name,
			outcome,
			r.Decision.String(),
			progress.FormatDuration(r.Duration),
			r.Outcome.Value,
		})
	}
	fmt.Fprint(w, table.String())

	var box *utils.Box
	switch {
	case interrupted:
		box = utils.NewBox(utils.WarningMessage, fmt.Sprintf("Chain %s interrupted", name))
	case runFailed(reports):
		box = utils.NewBox(utils.ErrorMessage, fmt.Sprintf("Chain %s failed", name))
	case len(reports) == total:
		box = utils.NewBox(utils.SuccessMessage, fmt.Sprintf("Chain %s finished", name))
	default:
		box = utils.NewBox(utils.WarningMessage, fmt.Sprintf("Chain %s stopped early", name))
	}
	box.AddKeyValue("Steps run", fmt.Sprintf("%d/%d", len(reports), total))
	if len(reports) > 0 {
		last := reports[len(reports)-1]
		box.AddKeyValue("Last step", last.Name)
		if v := strings.TrimSpace(last.Outcome.Value); v != "" {
			box.AddKeyValue("Last output", utils.Truncate(v, maxCellWidth))
		}
	}
	fmt.Fprintln(w, box.RenderFor(w))
}
