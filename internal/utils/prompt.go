package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptForConfirmation lists items and asks whether to go ahead with action.
// If autoApprove is true, it automatically returns true without prompting.
// Anything other than "y" or "yes" is a refusal.
func PromptForConfirmation(in io.Reader, out io.Writer, autoApprove bool, action string, items []string) (bool, error) {
	if autoApprove {
		return true, nil
	}

	fmt.Fprintf(out, "\nAbout to %s the following %d command(s):\n", action, len(items))
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
	fmt.Fprint(out, "\nAre you sure you want to continue? (yes/no): ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return false, fmt.Errorf("failed to read user confirmation: %w", err)
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "yes" || input == "y", nil
}
