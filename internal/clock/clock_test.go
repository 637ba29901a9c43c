package clock

import (
	"testing"
	"time"
)

func TestDeadlineAndExpiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	deadline := Deadline(start, 5)

	if Expired(start.Add(5*time.Second), deadline) {
		t.Fatalf("deadline instant itself must not be expired")
	}
	if !Expired(start.Add(5*time.Second+time.Nanosecond), deadline) {
		t.Fatalf("expected expiry just after deadline")
	}
	if !Expired(start, time.Time{}) {
		t.Fatalf("zero deadline should be expired")
	}
	if got := SecondsRemaining(start.Add(1500*time.Millisecond), deadline); got != 3 {
		t.Fatalf("expected 3 seconds remaining, got %d", got)
	}
	if got := SecondsRemaining(start.Add(time.Minute), deadline); got != 0 {
		t.Fatalf("expected 0 seconds remaining, got %d", got)
	}
}

func TestFakeClockFiresInOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := c.AfterFunc(time.Second, func() { fired = append(fired, "x") })

	if !stopped.Stop() {
		t.Fatalf("expected first stop to succeed")
	}
	if stopped.Stop() {
		t.Fatalf("expected second stop to be a no-op")
	}

	c.Advance(1500 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("expected only a to fire, got %v", fired)
	}
	c.Advance(time.Second)
	if len(fired) != 2 || fired[1] != "b" {
		t.Fatalf("expected b to fire second, got %v", fired)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}
