package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInitialization(t *testing.T) {
	assert.NotNil(t, User, "User logger should not be nil after init")
	assert.NotNil(t, Op, "Op logger should not be nil after init")
}

func TestUnifiedLoggerInitialization(t *testing.T) {
	ul := GetLogger()
	require.NotNil(t, ul)
	assert.Same(t, ul, GetLogger(), "GetLogger should return the same instance")
}

func TestLoggerSetup(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		jsonLogs bool
		quiet    bool
	}{
		{"Default", false, false, false},
		{"Verbose", true, false, false},
		{"Quiet", false, false, true},
		{"JSON", false, true, false},
		{"Verbose JSON", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() { Setup(tt.verbose, tt.jsonLogs, tt.quiet) })
			assert.NotNil(t, User)
			assert.NotNil(t, Op)
		})
	}
}

func TestSetupWithWriters_RoutesByLogType(t *testing.T) {
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "")

	var userBuf, opBuf bytes.Buffer
	SetupWithWriters(false, false, false, &userBuf, &opBuf)
	defer Setup(false, false, false)

	User.Successf("step %s finished", "locate")
	Op.WithFields(map[string]interface{}{"chain_id": "abc"}).Info("dispatching step")

	assert.Equal(t, "✓ step locate finished\n", userBuf.String())
	assert.Contains(t, opBuf.String(), "INFO: dispatching step chain_id=abc")
	assert.NotContains(t, opBuf.String(), "log_type")
}

func TestSetupWithWriters_QuietSuppressesInfo(t *testing.T) {
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "")

	var userBuf, opBuf bytes.Buffer
	SetupWithWriters(false, false, true, &userBuf, &opBuf)
	defer Setup(false, false, false)

	User.Starting("chain")
	Op.Info("op message")
	Op.Error("op failure")

	assert.Empty(t, userBuf.String())
	assert.Contains(t, opBuf.String(), "op failure")
	assert.NotContains(t, opBuf.String(), "op message")
}

func TestSetupWithWriters_EnvOverridesFormat(t *testing.T) {
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "json")

	var userBuf, opBuf bytes.Buffer
	SetupWithWriters(false, false, false, &userBuf, &opBuf)
	defer Setup(false, false, false)

	Op.Info("json line")
	assert.True(t, strings.HasPrefix(opBuf.String(), "{"), "expected JSON output, got %q", opBuf.String())
	assert.Contains(t, opBuf.String(), `"msg":"json line"`)
}

func TestUserLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	testLogger := logrus.New()
	testLogger.SetOutput(&buf)
	testLogger.SetLevel(logrus.InfoLevel)

	userLogger := &UserLogger{logger: testLogger}

	userLogger.Info("test message")
	assert.Contains(t, buf.String(), "test message")

	buf.Reset()
	userLogger.Starting("starting test")
	assert.Contains(t, buf.String(), "starting test")
}

func TestOpLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	testLogger := logrus.New()
	testLogger.SetOutput(&buf)
	testLogger.SetLevel(logrus.InfoLevel)

	opLogger := &OpLogger{logger: testLogger}

	opLogger.Info("operational message")
	assert.Contains(t, buf.String(), "operational message")

	buf.Reset()
	opLogger.WithFields(map[string]interface{}{
		"step":    1,
		"command": "echo hi",
	}).Info("step finished")
	assert.Contains(t, buf.String(), "step finished")
	assert.Contains(t, buf.String(), "command=\"echo hi\"")
}

func TestLogTypeRouting(t *testing.T) {
	captureHook := &testHook{}

	Setup(false, false, false)
	ul := GetLogger()
	ul.GetInternalLogger().AddHook(captureHook)
	defer Setup(false, false, false)

	User.Info("user message")
	require.NotEmpty(t, captureHook.entries)
	last := captureHook.entries[len(captureHook.entries)-1]
	assert.Equal(t, string(UserLog), last.Data["log_type"])

	Op.Info("op message")
	require.Len(t, captureHook.entries, 2)
	last = captureHook.entries[len(captureHook.entries)-1]
	assert.Equal(t, string(OpLog), last.Data["log_type"])
}

// testHook captures log entries in tests
type testHook struct {
	entries []*logrus.Entry
}

func (h *testHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *testHook) Fire(entry *logrus.Entry) error {
	h.entries = append(h.entries, entry)
	return nil
}
