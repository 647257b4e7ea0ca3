package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptForConfirmation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "yes\n", true},
		{"y uppercase", "Y\n", true},
		{"no", "no\n", false},
		{"empty line", "\n", false},
		{"no trailing newline", "yes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := PromptForConfirmation(strings.NewReader(tt.input), &out, false, "run", []string{"adb devices", "adb pull x"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "About to run the following 2 command(s)")
			assert.Contains(t, out.String(), "  2. adb pull x")
		})
	}
}

func TestPromptForConfirmation_AutoApprove(t *testing.T) {
	var out bytes.Buffer
	ok, err := PromptForConfirmation(strings.NewReader(""), &out, true, "run", []string{"x"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, out.String())
}

func TestPromptForConfirmation_ClosedInput(t *testing.T) {
	var out bytes.Buffer
	ok, err := PromptForConfirmation(strings.NewReader(""), &out, false, "run", []string{"x"})
	assert.Error(t, err)
	assert.False(t, ok)
}
