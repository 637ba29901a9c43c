package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/clock"
)

// TimerSupervisor keeps at most one armed question timer per session code.
type TimerSupervisor struct {
	clock clock.Clock

	mu     sync.Mutex
	nextID uint64
	timers map[string]armedTimer
}

type armedTimer struct {
	id    uint64
	timer clock.Timer
}

func NewTimerSupervisor(c clock.Clock) *TimerSupervisor {
	if c == nil {
		c = clock.Real{}
	}
	return &TimerSupervisor{clock: c, timers: make(map[string]armedTimer)}
}

// Arm replaces any timer for code with one that runs onExpire after d.
// onExpire does not run if the timer is cancelled or re-armed first, even
// when the underlying timer has already fired and is waiting on the lock.
func (s *TimerSupervisor) Arm(code string, d time.Duration, onExpire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(code)
	s.nextID++
	id := s.nextID
	t := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.timers[code]
		if !ok || cur.id != id {
			s.mu.Unlock()
			return
		}
		delete(s.timers, code)
		s.mu.Unlock()
		onExpire()
	})
	s.timers[code] = armedTimer{id: id, timer: t}
}

// Cancel is idempotent. It reports whether an armed timer was removed.
func (s *TimerSupervisor) Cancel(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(code)
}

func (s *TimerSupervisor) cancelLocked(code string) bool {
	cur, ok := s.timers[code]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.timers, code)
	return true
}

// Armed reports whether code currently has a pending timer.
func (s *TimerSupervisor) Armed(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[code]
	return ok
}

// StopAll cancels every timer; used on shutdown.
func (s *TimerSupervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.timers {
		s.cancelLocked(code)
	}
}
