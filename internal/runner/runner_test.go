package runner

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestFunc_Run(t *testing.T) {
	f := Func(func(ctx context.Context, command string) (string, string, error) {
		return "out:" + command, "", nil
	})

	stdout, stderr, err := f.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "out:x", stdout)
	assert.Empty(t, stderr)
}

func TestExecRunner_CapturesStdout(t *testing.T) {
	requireShell(t)
	logger.Setup(false, false, true)

	stdout, stderr, err := NewExecRunner().Run(context.Background(), `sh -c "printf 'package:/data/app/base.apk'"`)
	require.NoError(t, err)
	assert.Equal(t, "package:/data/app/base.apk", stdout)
	assert.Empty(t, stderr)
}

func TestExecRunner_CapturesStderr(t *testing.T) {
	requireShell(t)
	logger.Setup(false, false, true)

	stdout, stderr, err := NewExecRunner().Run(context.Background(), `sh -c "echo boom >&2"`)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "boom\n", stderr)
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)
	logger.Setup(false, false, true)

	stdout, stderr, err := NewExecRunner().Run(context.Background(), `sh -c "echo partial; exit 3"`)
	require.NoError(t, err)
	assert.Equal(t, "partial\n", stdout)
	assert.Empty(t, stderr)
}

func TestExecRunner_ContextDeadline(t *testing.T) {
	requireShell(t)
	logger.Setup(false, false, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, _, err := NewExecRunner().Run(ctx, "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 4*time.Second)
}

func TestExecRunner_ParseErrors(t *testing.T) {
	logger.Setup(false, false, true)

	tests := []struct {
		name    string
		command string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"unbalanced quote", `echo "unterminated`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewExecRunner().Run(context.Background(), tt.command)
			require.Error(t, err)
			ce, ok := chainerrors.AsChainError(err)
			require.True(t, ok)
			assert.Equal(t, chainerrors.ErrorCategoryRunner, ce.Category)
			assert.Equal(t, chainerrors.CodeCommandParse, ce.Code)
		})
	}
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	logger.Setup(false, false, true)

	_, _, err := NewExecRunner().Run(context.Background(), "definitely-not-a-real-binary-4711 --flag")
	require.Error(t, err)

	ce, ok := chainerrors.AsChainError(err)
	require.True(t, ok)
	assert.Equal(t, chainerrors.CodeRunnerStart, ce.Code)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}
