package utils

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWidth(t *testing.T, width int) {
	t.Helper()
	prevWidth := terminalWidth
	prevProfile := lipgloss.ColorProfile()
	terminalWidth = func(io.Writer) int { return width }
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() {
		terminalWidth = prevWidth
		lipgloss.SetColorProfile(prevProfile)
	})
}

func TestBox_Render(t *testing.T) {
	withWidth(t, 80)

	out := NewBox(SuccessMessage, "Chain export finished").
		AddKeyValue("Steps", "2/2").
		AddBullet("locate").
		Render()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, lines[1], "✓ Chain export finished")
	assert.Contains(t, lines[2], "Steps: 2/2")
	assert.Contains(t, lines[3], "• locate")
	assert.True(t, strings.HasPrefix(lines[4], "╰"))
}

func TestBox_PrefixPerType(t *testing.T) {
	withWidth(t, 80)

	assert.Contains(t, Info("i"), "ℹ i")
	assert.Contains(t, Success("s"), "✓ s")
	assert.Contains(t, Warning("w"), "⚠ w")
	assert.Contains(t, Error("e", "detail"), "✗ e")
	assert.Contains(t, Error("e", "detail"), "detail")
}

func TestBox_WrapsLongLines(t *testing.T) {
	withWidth(t, 30)

	out := Warning("Stopped", "the chain stopped after step two because the device went offline")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 30)
	}
	assert.Contains(t, out, "offline")
}

func TestTerminalWidth_NonTerminalWriter(t *testing.T) {
	assert.Equal(t, defaultWidth, terminalWidth(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, defaultWidth, terminalWidth(f))
}

func TestBox_RenderForMeasuresGivenWriter(t *testing.T) {
	withWidth(t, 80)
	var measured io.Writer
	terminalWidth = func(w io.Writer) int {
		measured = w
		return 40
	}

	var buf bytes.Buffer
	out := NewBox(InfoMessage, "Chain demo").RenderFor(&buf)

	assert.Same(t, &buf, measured)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 40)
	}
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("   ", 10))
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Equal(t, []string{"averyveryverylongword"}, wrapText("averyveryverylongword", 5))
}
