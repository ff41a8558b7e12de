package consumer

import (
	"time"
)

// Backoff is the consumer's fixed-interval retry policy. Attempts are
// unbounded; the partition stays blocked until the event applies.
type Backoff struct {
	Interval time.Duration
}

// Attempt is explicit backoff state: which attempt comes next and how
// long until it runs. Returned directly so callers can log the delay
// without inspecting any framework internals.
type Attempt struct {
	Number int
	Delay  time.Duration
}

// Next advances the backoff state after a failure
func (b Backoff) Next(prev Attempt) Attempt {
	return Attempt{
		Number: prev.Number + 1,
		Delay:  b.Interval,
	}
}
