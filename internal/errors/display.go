package errors

import (
	"fmt"
	"strings"
)

// DisplayError formats an error for user-friendly display
func DisplayError(err error) string {
	if ce, ok := AsChainError(err); ok {
		return ce.Error()
	}
	return fmt.Sprintf("Error: %v", err)
}

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	if ce, ok := AsChainError(err); ok {
		return fmt.Sprintf("%s-%s: %s", ce.Category, ce.Code, ce.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}

// ShouldDisplayTroubleshooting determines if troubleshooting info should be shown
func ShouldDisplayTroubleshooting(err error) bool {
	if ce, ok := AsChainError(err); ok {
		return len(ce.Troubleshooting) > 0
	}
	return false
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	ce, ok := AsChainError(err)
	if !ok {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	category := string(ce.Category)
	label := category[:1] + strings.ToLower(category[1:])

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s Error [%s-%s]\n", label, ce.Category, ce.Code))
	sb.WriteString(fmt.Sprintf("  %s\n", ce.Message))

	if ce.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nFailed Operation: %s\n", ce.Operation))
	}

	if len(ce.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range ce.contextKeys() {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, ce.Context[key]))
		}
	}

	if len(ce.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range ce.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if ce.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", ce.OriginalError))
	}

	return sb.String()
}
