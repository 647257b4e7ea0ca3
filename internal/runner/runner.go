// Package runner executes a single command string and captures its output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/shlex"
	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
)

// Runner runs one command to completion and returns what it wrote to
// stdout and stderr. err is reserved for failures of the runner itself:
// a command that cannot be parsed or started, or one interrupted by ctx.
// A command that runs and exits non-zero is not an error.
type Runner interface {
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
}

// Func adapts a plain function to Runner.
type Func func(ctx context.Context, command string) (string, string, error)

// Run calls f.
func (f Func) Run(ctx context.Context, command string) (string, string, error) {
	return f(ctx, command)
}

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// process has been killed.
const DefaultWaitDelay = 2 * time.Second

// ExecRunner starts commands directly (no shell). The command string is
// split into argv with shell-style quoting rules.
type ExecRunner struct {
	WaitDelay time.Duration
}

// NewExecRunner creates an ExecRunner with default settings
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: DefaultWaitDelay}
}

// Run executes command and blocks until it exits or ctx is done.
func (r *ExecRunner) Run(ctx context.Context, command string) (string, string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return "", "", chainerrors.NewCommandParseError(command, err)
	}
	if len(argv) == 0 {
		return "", "", chainerrors.NewCommandParseError(command, errors.New("empty command"))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay

	started := time.Now()
	err = cmd.Run()

	fields := map[string]interface{}{
		"command":  command,
		"duration": time.Since(started).Round(time.Millisecond).String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Op.WithFields(fields).Debug("Command interrupted")
		return stdout.String(), stderr.String(), fmt.Errorf("command %q interrupted: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// outcome is classified by stderr, not by exit status
		fields["exit_code"] = exitErr.ExitCode()
		logger.Op.WithFields(fields).Debug("Command exited with non-zero status")
		return stdout.String(), stderr.String(), nil
	}
	if err != nil {
		return stdout.String(), stderr.String(), chainerrors.NewRunnerStartError(command, err)
	}

	logger.Op.WithFields(fields).Debug("Command finished")
	return stdout.String(), stderr.String(), nil
}
