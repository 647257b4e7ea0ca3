// Package progress formats per-step progress lines for a running chain.
package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maxkimambo/shellchain/internal/chain"
)

// Info is a snapshot of a chain run.
type Info struct {
	ChainName      string
	TotalSteps     int
	CompletedSteps int
	FailedSteps    int
	ElapsedTime    time.Duration
	EstimatedLeft  time.Duration
	CurrentStep    string
	Stopped        bool
}

// Reporter tracks step reports as they arrive. It is safe for use from the
// worker that fires OnStepCompleted while the CLI reads snapshots.
type Reporter struct {
	mu        sync.Mutex
	chainName string
	total     int
	completed int
	failed    int
	stopped   bool
	last      string
	startTime time.Time
	now       func() time.Time
}

// NewReporter creates a reporter for a chain of total steps.
func NewReporter(chainName string, total int) *Reporter {
	return &Reporter{
		chainName: chainName,
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Record adds a step report and returns the line to show for it.
func (r *Reporter) Record(report chain.StepReport) string {
	r.mu.Lock()
	r.completed++
	if report.Outcome.Kind == chain.Failure {
		r.failed++
	}
	if !report.Decision.Continuable() {
		r.stopped = true
	}
	r.last = report.Name
	completed, total := r.completed, r.total
	r.mu.Unlock()

	return ReportStepComplete(completed, total, report)
}

// Snapshot returns the current progress.
func (r *Reporter) Snapshot() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.now().Sub(r.startTime)
	eta := time.Duration(0)
	if !r.stopped {
		eta = CalculateETA(r.completed, r.total, elapsed)
	}
	return Info{
		ChainName:      r.chainName,
		TotalSteps:     r.total,
		CompletedSteps: r.completed,
		FailedSteps:    r.failed,
		ElapsedTime:    elapsed,
		EstimatedLeft:  eta,
		CurrentStep:    r.last,
		Stopped:        r.stopped,
	}
}

// Report generates a formatted progress report
func (r *Reporter) Report() string {
	return FormatInfo(r.Snapshot())
}

// FormatInfo renders a progress snapshot on one or two lines.
func FormatInfo(info Info) string {
	var sb strings.Builder

	percentage := 0.0
	if info.TotalSteps > 0 {
		percentage = float64(info.CompletedSteps) / float64(info.TotalSteps) * 100
	}

	if info.ChainName != "" {
		sb.WriteString(fmt.Sprintf("%s: ", info.ChainName))
	}
	sb.WriteString(fmt.Sprintf("%d/%d steps completed (%.1f%%)",
		info.CompletedSteps, info.TotalSteps, percentage))
	if info.FailedSteps > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", info.FailedSteps))
	}
	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", FormatDuration(info.ElapsedTime)))
	if info.EstimatedLeft > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(info.EstimatedLeft)))
	}

	if info.Stopped {
		sb.WriteString(fmt.Sprintf("\n   Stopped after: %s", info.CurrentStep))
	} else if info.CurrentStep != "" {
		sb.WriteString(fmt.Sprintf("\n   Last step: %s", info.CurrentStep))
	}

	return sb.String()
}

// ReportStepStart reports the start of a step
func ReportStepStart(index, total int, name, command string) string {
	return fmt.Sprintf("[%d/%d] %s: %s", index+1, total, name, command)
}

// ReportStepComplete reports step completion
func ReportStepComplete(completed, total int, report chain.StepReport) string {
	status := "COMPLETED"
	if report.Outcome.Kind == chain.Failure {
		status = "FAILED"
	}
	line := fmt.Sprintf("[%d/%d] %s %s (took %s)",
		completed, total, status, report.Name, FormatDuration(report.Duration))
	if !report.Decision.Continuable() && completed < total {
		line += ", stopping chain"
	}
	return line
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(completed, total int, elapsed time.Duration) time.Duration {
	if completed <= 0 || total <= 0 || completed >= total {
		return 0
	}

	averageTimePerStep := elapsed / time.Duration(completed)
	remaining := total - completed
	return averageTimePerStep * time.Duration(remaining)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
