package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryConfiguration covers chains that cannot start
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryExecution covers chain runs that ended badly
	ErrorCategoryExecution ErrorCategory = "EXECUTION"
	// ErrorCategoryHook covers failures raised inside user hooks
	ErrorCategoryHook ErrorCategory = "HOOK"
	// ErrorCategoryRunner covers failures of the process runner itself
	ErrorCategoryRunner ErrorCategory = "RUNNER"
	// ErrorCategoryValidation covers invalid chain definition files
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
)

// ChainError represents a structured error with context and troubleshooting information
type ChainError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *ChainError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for _, key := range e.contextKeys() {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *ChainError) Unwrap() error {
	return e.OriginalError
}

// Is matches on category and code so callers can compare against a template.
func (e *ChainError) Is(target error) bool {
	t, ok := target.(*ChainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

func (e *ChainError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewChainError creates a new chain error with the specified parameters
func NewChainError(category ErrorCategory, code, message, operation string) *ChainError {
	return &ChainError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *ChainError) WithContext(key string, value interface{}) *ChainError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *ChainError) WithTroubleshooting(steps ...string) *ChainError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error to the chain error
func (e *ChainError) WithOriginalError(err error) *ChainError {
	e.OriginalError = err
	return e
}

// AsChainError unwraps err until it finds a *ChainError.
func AsChainError(err error) (*ChainError, bool) {
	var ce *ChainError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(code, message, operation string) *ChainError {
	return NewChainError(ErrorCategoryConfiguration, code, message, operation)
}

// NewExecutionError creates a new execution error
func NewExecutionError(code, message, operation string) *ChainError {
	return NewChainError(ErrorCategoryExecution, code, message, operation)
}

// NewHookError creates a new hook error
func NewHookError(code, message, operation string) *ChainError {
	return NewChainError(ErrorCategoryHook, code, message, operation)
}

// NewRunnerErrorf creates a new runner error
func NewRunnerErrorf(code, operation, format string, args ...interface{}) *ChainError {
	return NewChainError(ErrorCategoryRunner, code, fmt.Sprintf(format, args...), operation)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message, operation string) *ChainError {
	return NewChainError(ErrorCategoryValidation, code, message, operation)
}
