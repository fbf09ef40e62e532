// Package backoff provides retry-delay policies for reconnection.
package backoff

import "time"

// Policy computes the delay before a reconnection attempt.
// Attempt numbering starts at 1.
type Policy interface {
	Delay(attempt int) time.Duration
}

// Fixed waits the same base delay before every attempt, clamped to Max.
// This is the default policy: the daemon is usually back within a few
// seconds and a constant cadence reconnects fastest.
type Fixed struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns min(Base, Max) regardless of attempt.
func (f Fixed) Delay(attempt int) time.Duration {
	d := f.Base
	if f.Max > 0 && d > f.Max {
		d = f.Max
	}
	return d
}

// Exponential doubles the base delay per attempt, clamped to Max.
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns Base*2^(attempt-1), clamped to Max.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
	}
	if e.Max > 0 && d > e.Max {
		d = e.Max
	}
	return d
}
