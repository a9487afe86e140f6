package snapshot

import "time"

const (
	// DefaultPollInterval is the steady-state delay between progress checks
	DefaultPollInterval = 5 * time.Second

	// DefaultBackoffUnit scales the exponential retry delay
	DefaultBackoffUnit = time.Second
)

// Backoff computes the retry delay for failed submissions and the fixed
// interval between progress polls. The zero value uses the defaults.
type Backoff struct {
	// Unit is the base duration multiplied by 2^attempt for retry delays
	Unit time.Duration

	// Poll is the fixed delay between progress checks
	Poll time.Duration
}

// RetryDelay returns 2^attempt units. Attempts are numbered from 1, so the
// first retry waits 2 units, the second 4, and so on. Attempts below 1 are
// clamped to 1.
func (b Backoff) RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	unit := b.Unit
	if unit <= 0 {
		unit = DefaultBackoffUnit
	}
	return time.Duration(1<<uint(attempt)) * unit
}

// PollInterval returns the delay between progress checks
func (b Backoff) PollInterval() time.Duration {
	if b.Poll <= 0 {
		return DefaultPollInterval
	}
	return b.Poll
}
