package progress

import (
	"testing"
	"time"

	"github.com/maxkimambo/shellchain/internal/chain"
	"github.com/stretchr/testify/assert"
)

func step(name string, kind chain.OutcomeKind, decision chain.Decision, d time.Duration) chain.StepReport {
	return chain.StepReport{
		Name:     name,
		Outcome:  chain.Outcome{Kind: kind},
		Decision: decision,
		Duration: d,
	}
}

func TestReporter_RecordAndSnapshot(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewReporter("export", 4)
	r.startTime = start
	r.now = func() time.Time { return start.Add(10 * time.Second) }

	line := r.Record(step("locate", chain.Success, chain.Continue, 1500*time.Millisecond))
	assert.Equal(t, "[1/4] COMPLETED locate (took 1s)", line)

	line = r.Record(step("pull", chain.Failure, chain.Continue, 200*time.Millisecond))
	assert.Equal(t, "[2/4] FAILED pull (took 200ms)", line)

	info := r.Snapshot()
	assert.Equal(t, 2, info.CompletedSteps)
	assert.Equal(t, 1, info.FailedSteps)
	assert.Equal(t, 10*time.Second, info.ElapsedTime)
	assert.Equal(t, 10*time.Second, info.EstimatedLeft)
	assert.Equal(t, "pull", info.CurrentStep)
	assert.False(t, info.Stopped)

	assert.Equal(t, "export: 2/4 steps completed (50.0%), 1 failed | Elapsed: 10s | ETA: 10s\n   Last step: pull", r.Report())
}

func TestReporter_StopClearsETA(t *testing.T) {
	r := NewReporter("", 3)
	line := r.Record(step("probe", chain.Failure, chain.Stop, time.Second))
	assert.Equal(t, "[1/3] FAILED probe (took 1s), stopping chain", line)

	info := r.Snapshot()
	assert.True(t, info.Stopped)
	assert.Zero(t, info.EstimatedLeft)
	assert.Contains(t, r.Report(), "Stopped after: probe")
}

func TestReportStepComplete_LastStepStopDoesNotMentionStopping(t *testing.T) {
	line := ReportStepComplete(2, 2, step("pull", chain.Success, chain.Stop, 0))
	assert.Equal(t, "[2/2] COMPLETED pull (took 0ms)", line)
}

func TestReportStepStart(t *testing.T) {
	assert.Equal(t, "[1/2] locate: adb shell pm path x", ReportStepStart(0, 2, "locate", "adb shell pm path x"))
}

func TestCalculateETA(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		elapsed   time.Duration
		want      time.Duration
	}{
		{"nothing done", 0, 4, time.Minute, 0},
		{"all done", 4, 4, time.Minute, 0},
		{"no steps", 1, 0, time.Minute, 0},
		{"half", 2, 4, time.Minute, time.Minute},
		{"one of three", 1, 3, 30 * time.Second, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateETA(tt.completed, tt.total, tt.elapsed))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h 7m", FormatDuration(2*time.Hour+7*time.Minute))
}
