package linker

import (
	"time"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
)

// Option is a function that configures a Linker instance.
type Option func(*config) error

// config holds run-level settings, separate from the profile's policy.
type config struct {
	dryRun      bool
	limit       int64
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func defaultConfig() *config {
	return &config{
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    30 * time.Second,
	}
}

// WithDryRun configures whether writes are simulated.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

// WithLimit caps how many submissions a run fetches. limit <= 0 means no
// limit.
func WithLimit(limit int64) Option {
	return func(c *config) error {
		c.limit = limit
		return nil
	}
}

// WithRetryPolicy configures the per-submission retry for transient
// failures: total attempts and the backoff window.
func WithRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *config) error {
		if maxAttempts < 1 {
			return errors.NewConfigError("linker", "retry attempts must be at least 1", nil)
		}
		if baseDelay <= 0 || maxDelay < baseDelay {
			return errors.NewConfigError("linker", "invalid retry delay window", nil)
		}
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
		return nil
	}
}
