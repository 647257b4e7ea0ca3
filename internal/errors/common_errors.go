package errors

import (
	"fmt"
	"time"
)

// Common error codes
const (
	// Configuration error codes
	CodeMissingHook  = "001"
	CodeEmptyChain   = "002"
	CodeChainRunning = "003"
	CodeChainStarted = "004"

	// Execution error codes
	CodeChainFailed      = "001"
	CodeChainInterrupted = "002"

	// Hook error codes
	CodeHookPanic       = "001"
	CodeCompletionPanic = "002"

	// Runner error codes
	CodeRunnerStart   = "001"
	CodeRunnerTimeout = "002"
	CodeCommandParse  = "003"

	// Validation error codes
	CodeChainFileRead    = "001"
	CodeChainFileParse   = "002"
	CodeChainFileInvalid = "003"
)

// Templates for errors.Is comparisons.
var (
	ErrMissingHook  = &ChainError{Category: ErrorCategoryConfiguration, Code: CodeMissingHook}
	ErrEmptyChain   = &ChainError{Category: ErrorCategoryConfiguration, Code: CodeEmptyChain}
	ErrChainRunning = &ChainError{Category: ErrorCategoryConfiguration, Code: CodeChainRunning}
	ErrChainStarted = &ChainError{Category: ErrorCategoryConfiguration, Code: CodeChainStarted}
	ErrChainFailed  = &ChainError{Category: ErrorCategoryExecution, Code: CodeChainFailed}
	ErrHookPanic    = &ChainError{Category: ErrorCategoryHook, Code: CodeHookPanic}
	ErrTimeout      = &ChainError{Category: ErrorCategoryRunner, Code: CodeRunnerTimeout}
	ErrCommandParse = &ChainError{Category: ErrorCategoryRunner, Code: CodeCommandParse}
)

// NewMissingHookError reports an item that lacks a success or failure hook
func NewMissingHookError(index int, name string, missing ...string) *ChainError {
	return NewConfigurationError(CodeMissingHook,
		fmt.Sprintf("Item %d (%s) is missing required hooks %v", index, name, missing),
		"Chain start").
		WithContext("index", index).
		WithContext("item", name).
		WithContext("missing", missing).
		WithTroubleshooting(
			"Set both OnSuccess and OnError on every item before calling Start",
			"No item has been executed; the chain can be fixed and started again",
		)
}

// NewEmptyChainError reports a Start on a chain without items
func NewEmptyChainError() *ChainError {
	return NewConfigurationError(CodeEmptyChain, "Chain has no items", "Chain start").
		WithTroubleshooting("Append at least one item before calling Start")
}

// NewChainRunningError reports a second Start while a run is in flight
func NewChainRunningError(chainID string) *ChainError {
	return NewConfigurationError(CodeChainRunning,
		fmt.Sprintf("Chain %s is already running", chainID),
		"Chain start").
		WithContext("chain_id", chainID).
		WithTroubleshooting(
			"Wait for Done() before starting the chain again",
			"Call Stop() to prevent further items from being dispatched",
		)
}

// NewChainStartedError reports an Append after the chain has been started
func NewChainStartedError(chainID string) *ChainError {
	return NewConfigurationError(CodeChainStarted,
		fmt.Sprintf("Chain %s has been started; items can no longer be appended", chainID),
		"Append item").
		WithContext("chain_id", chainID).
		WithTroubleshooting("Build a new chain for additional items")
}

// NewHookPanicError wraps a panic recovered from a user hook
func NewHookPanicError(index int, name, hook string, recovered interface{}) *ChainError {
	return NewHookError(CodeHookPanic,
		fmt.Sprintf("Hook %s of item %d (%s) panicked: %v", hook, index, name, recovered),
		"Step execution").
		WithContext("index", index).
		WithContext("item", name).
		WithContext("hook", hook).
		WithTroubleshooting(
			"The chain was stopped after this item",
			"Return Stop from the hook instead of panicking to end a chain early",
		)
}

// NewCompletionPanicError wraps a panic recovered from the completion hook
func NewCompletionPanicError(chainID string, recovered interface{}) *ChainError {
	return NewHookError(CodeCompletionPanic,
		fmt.Sprintf("Completion hook of chain %s panicked: %v", chainID, recovered),
		"Chain completion").
		WithContext("chain_id", chainID)
}

// NewChainFailedError reports a run that stopped on a failed step
func NewChainFailedError(chainName, step, errOut string) *ChainError {
	return NewExecutionError(CodeChainFailed,
		fmt.Sprintf("Chain %q stopped after step %q failed", chainName, step),
		"Chain run").
		WithContext("step", step).
		WithContext("stderr", errOut).
		WithTroubleshooting(
			"Re-run with --verbose to see each command's output",
			"Set on_error: continue on the step if this failure is expected",
		)
}

// NewChainInterruptedError reports a run cancelled before it finished
func NewChainInterruptedError(chainName string, completed, total int, cause error) *ChainError {
	return NewExecutionError(CodeChainInterrupted,
		fmt.Sprintf("Chain %q was interrupted after %d of %d step(s)", chainName, completed, total),
		"Chain run").
		WithOriginalError(cause)
}

// NewRunnerStartError reports a command that could not be started
func NewRunnerStartError(command string, originalErr error) *ChainError {
	return NewRunnerErrorf(CodeRunnerStart, "Process execution",
		"Failed to start command %q", command).
		WithContext("command", command).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Verify the executable exists and is on PATH",
			"Check file permissions of the executable",
		)
}

// NewStepTimeoutError reports a command killed by the step timeout
func NewStepTimeoutError(command string, timeout time.Duration, originalErr error) *ChainError {
	return NewRunnerErrorf(CodeRunnerTimeout, "Process execution",
		"Command %q did not finish within %v", command, timeout).
		WithContext("command", command).
		WithContext("timeout", timeout.String()).
		WithOriginalError(originalErr).
		WithTroubleshooting("Increase the step timeout or split the command")
}

// NewCommandParseError reports a command string that cannot be tokenized
func NewCommandParseError(command string, originalErr error) *ChainError {
	return NewRunnerErrorf(CodeCommandParse, "Command parsing",
		"Cannot parse command %q", command).
		WithContext("command", command).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check for unbalanced quotes or a trailing escape character",
			"An empty command cannot be executed",
		)
}

// NewChainFileError reports a chain definition that failed to load
func NewChainFileError(code, path, message string, originalErr error) *ChainError {
	return NewValidationError(code, message, "Chain file loading").
		WithContext("file", path).
		WithOriginalError(originalErr)
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	if ce, ok := AsChainError(err); ok {
		return ce.Category == ErrorCategoryValidation ||
			ce.Category == ErrorCategoryConfiguration
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if ce, ok := AsChainError(err); ok {
		return fmt.Sprintf("%s-%s", ce.Category, ce.Code)
	}
	return "UNKNOWN"
}
