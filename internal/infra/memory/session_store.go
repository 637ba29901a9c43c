package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// maxCodeAttempts bounds code generation; at 36^4 codes a collision streak
// this long means the space is effectively exhausted.
const maxCodeAttempts = 64

const releaseTimeout = 2 * time.Second

// CodeReserver claims a session code outside this process (e.g. Redis) so
// that several instances never hand out the same code.
type CodeReserver interface {
	Reserve(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

// SessionStore is an in-memory implementation of app.SessionRepository with
// reverse indexes for teacher and participant identities.
type SessionStore struct {
	codeLength int
	reserver   CodeReserver

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu           sync.RWMutex
	sessions     map[string]*app.Session
	teachers     map[string]string
	participants map[string]string
}

type StoreOption func(*SessionStore)

// WithCodeLength overrides app.DefaultCodeLength. Values above
// app.MaxCodeLength are clamped.
func WithCodeLength(n int) StoreOption {
	return func(s *SessionStore) {
		if n > app.MaxCodeLength {
			n = app.MaxCodeLength
		}
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithReserver makes Create claim codes through r before using them.
func WithReserver(r CodeReserver) StoreOption {
	return func(s *SessionStore) { s.reserver = r }
}

// WithRand fixes the random source (tests).
func WithRand(rnd *rand.Rand) StoreOption {
	return func(s *SessionStore) { s.rnd = rnd }
}

func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		codeLength:   app.DefaultCodeLength,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:     make(map[string]*app.Session),
		teachers:     make(map[string]string),
		participants: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) Create(ctx context.Context, params app.SessionParams) (*app.Session, error) {
	s.rndMu.Lock()
	params.QuestionIDs = app.ShuffleQuestions(s.rnd, params.QuestionIDs)
	s.rndMu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		s.rndMu.Lock()
		code := app.GenerateCode(s.rnd, s.codeLength)
		s.rndMu.Unlock()

		if s.taken(code) {
			continue
		}
		if s.reserver != nil {
			ok, err := s.reserver.Reserve(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("reserve session code: %w", err)
			}
			if !ok {
				continue
			}
		}

		s.mu.Lock()
		if _, exists := s.sessions[code]; exists {
			s.mu.Unlock()
			if s.reserver != nil {
				s.release(code)
			}
			continue
		}
		session := app.NewSession(code, params)
		s.sessions[code] = session
		s.teachers[params.TeacherIdentity] = code
		s.mu.Unlock()
		return session, nil
	}
	return nil, domain.ErrCodeSpaceExhausted
}

func (s *SessionStore) taken(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[code]
	return ok
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) GetByTeacher(identity string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(s.teachers, identity)
}

func (s *SessionStore) GetByParticipant(identity string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(s.participants, identity)
}

func (s *SessionStore) lookupLocked(index map[string]string, identity string) (*app.Session, bool) {
	code, ok := index[identity]
	if !ok {
		return nil, false
	}
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) BindTeacher(code, oldIdentity, newIdentity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return
	}
	if s.teachers[oldIdentity] == code {
		delete(s.teachers, oldIdentity)
	}
	s.teachers[newIdentity] = code
}

func (s *SessionStore) BindParticipant(code, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return
	}
	s.participants[identity] = code
}

func (s *SessionStore) UnbindParticipant(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, identity)
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	_, ok := s.sessions[code]
	if ok {
		s.dropLocked(code)
	}
	s.mu.Unlock()

	if ok && s.reserver != nil {
		// Callers may hold a session lock; the marker also expires on its own.
		go s.release(code)
	}
}

func (s *SessionStore) release(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = s.reserver.Release(ctx, code)
}

func (s *SessionStore) dropLocked(code string) {
	delete(s.sessions, code)
	for identity, c := range s.teachers {
		if c == code {
			delete(s.teachers, identity)
		}
	}
	for identity, c := range s.participants {
		if c == code {
			delete(s.participants, identity)
		}
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) DropAll() []*app.Session {
	s.mu.Lock()
	dropped := make([]*app.Session, 0, len(s.sessions))
	codes := make([]string, 0, len(s.sessions))
	for code, session := range s.sessions {
		dropped = append(dropped, session)
		codes = append(codes, code)
	}
	s.sessions = make(map[string]*app.Session)
	s.teachers = make(map[string]string)
	s.participants = make(map[string]string)
	s.mu.Unlock()

	if s.reserver != nil {
		for _, code := range codes {
			s.release(code)
		}
	}
	return dropped
}
