package clock

import "time"

// Clock abstracts wall time and delayed execution so deadlines and question
// timers can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a delayed function. Stop reports whether the call
// prevented the function from running.
type Timer interface {
	Stop() bool
}

// Real is the process clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Deadline returns the instant seconds after from.
func Deadline(from time.Time, seconds int) time.Time {
	return from.Add(time.Duration(seconds) * time.Second)
}

// Expired reports whether deadline has passed at now. A zero deadline is
// always expired.
func Expired(now, deadline time.Time) bool {
	if deadline.IsZero() {
		return true
	}
	return now.After(deadline)
}

// SecondsRemaining rounds down and never goes below zero.
func SecondsRemaining(now, deadline time.Time) int {
	if deadline.IsZero() {
		return 0
	}
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}
