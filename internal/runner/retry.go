package runner

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
)

// RetryPolicy defines how often and how fast a failing command is run again
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// JitterFactor adds up to this fraction of the backoff at random (0.0 to 1.0)
	JitterFactor float64
}

// NewDefaultRetryPolicy creates a retry policy with maxRetries retries
// starting at one second and doubling up to thirty.
func NewDefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.3,
	}
}

// BackoffDuration calculates the wait before retry number attempt (1-based)
func (p RetryPolicy) BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 || p.InitialBackoff <= 0 {
		return 0
	}

	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	backoff := time.Duration(float64(p.InitialBackoff) * math.Pow(factor, float64(attempt-1)))
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	if p.JitterFactor > 0 {
		jitter := rand.Float64() * p.JitterFactor
		backoff = time.Duration(float64(backoff) * (1 + jitter))
	}
	return backoff
}

// IsRetryableError reports whether running the command again could help.
// Parse errors and cancellation are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, chainerrors.ErrCommandParse)
}

// RetryRunner runs a command again while it fails, where failing means
// writing to stderr or a runner error. The last attempt's output is returned.
type RetryRunner struct {
	next   Runner
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryRunner wraps next with policy.
func NewRetryRunner(next Runner, policy RetryPolicy) *RetryRunner {
	return &RetryRunner{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
	}
}

// Run implements Runner.
func (r *RetryRunner) Run(ctx context.Context, command string) (string, string, error) {
	stdout, stderr, err := r.next.Run(ctx, command)

	for attempt := 1; attempt <= r.policy.MaxRetries; attempt++ {
		if stderr == "" && err == nil {
			break
		}
		if !IsRetryableError(err) || ctx.Err() != nil {
			break
		}

		backoff := r.policy.BackoffDuration(attempt)
		logger.Op.WithFields(map[string]interface{}{
			"command": command,
			"attempt": attempt,
			"backoff": backoff.String(),
		}).Debug("Retrying failed command")

		if sleepErr := r.sleep(ctx, backoff); sleepErr != nil {
			break
		}
		stdout, stderr, err = r.next.Run(ctx, command)
	}

	return stdout, stderr, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
