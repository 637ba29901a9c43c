package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func params(teacher string, ids ...int64) app.SessionParams {
	return app.SessionParams{
		TopicID:            1,
		TeacherIdentity:    teacher,
		TeacherToken:       "token",
		SecondsPerQuestion: 5,
		QuestionIDs:        ids,
		Now:                time.Unix(0, 0),
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session, err := store.Create(context.Background(), params("teacher-1", 1, 2, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if len(code) != app.DefaultCodeLength {
		t.Fatalf("expected %d char code, got %q", app.DefaultCodeLength, code)
	}
	if got, ok := store.Get(code); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if got, ok := store.GetByTeacher("teacher-1"); !ok || got != session {
		t.Fatalf("expected teacher index")
	}

	store.BindParticipant(code, "student-1")
	if got, ok := store.GetByParticipant("student-1"); !ok || got != session {
		t.Fatalf("expected participant index")
	}

	store.Delete(code)
	store.Delete(code)
	if _, ok := store.Get(code); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := store.GetByTeacher("teacher-1"); ok {
		t.Fatalf("expected teacher index cleared")
	}
	if _, ok := store.GetByParticipant("student-1"); ok {
		t.Fatalf("expected participant index cleared")
	}
}

func TestSessionStoreShufflesCopy(t *testing.T) {
	store := NewSessionStore(WithRand(rand.New(rand.NewSource(7))))
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	original := append([]int64(nil), ids...)

	session, err := store.Create(context.Background(), params("t", ids...))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := range ids {
		if ids[i] != original[i] {
			t.Fatalf("input ids mutated: %v", ids)
		}
	}
	queue := session.Queue()
	if len(queue) != len(ids) {
		t.Fatalf("expected %d queued, got %d", len(ids), len(queue))
	}
	seen := make(map[int64]bool)
	for _, id := range queue {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("queue lost id %d: %v", id, queue)
		}
	}
}

func TestSessionStoreUniqueCodesConcurrently(t *testing.T) {
	store := NewSessionStore(WithCodeLength(3))

	const n = 200
	var wg sync.WaitGroup
	codes := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := store.Create(context.Background(), params("t", 1))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			codes <- s.Code()
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		if seen[code] {
			t.Fatalf("duplicate code %s", code)
		}
		seen[code] = true
	}
	if store.Len() != n {
		t.Fatalf("expected %d sessions, got %d", n, store.Len())
	}
}

func TestSessionStoreCodeSpaceExhausted(t *testing.T) {
	store := NewSessionStore(WithCodeLength(1), WithReserver(rejectAll{}))
	_, err := store.Create(context.Background(), params("t", 1))
	if !errors.Is(err, domain.ErrCodeSpaceExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
}

func TestSessionStoreBindTeacherMovesIndex(t *testing.T) {
	store := NewSessionStore()
	session, err := store.Create(context.Background(), params("old", 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.BindTeacher(session.Code(), "old", "new")
	if _, ok := store.GetByTeacher("old"); ok {
		t.Fatalf("old teacher still indexed")
	}
	if got, ok := store.GetByTeacher("new"); !ok || got != session {
		t.Fatalf("new teacher not indexed")
	}
}

func TestSessionStoreDropAll(t *testing.T) {
	store := NewSessionStore()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(context.Background(), params("t", 1)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if dropped := store.DropAll(); len(dropped) != 3 {
		t.Fatalf("expected 3 dropped, got %d", len(dropped))
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestSessionStoreReleasesReservationOnLocalCollision(t *testing.T) {
	store := NewSessionStore()
	reserver := &racingReserver{store: store}
	WithReserver(reserver)(store)

	session, err := store.Create(context.Background(), params("t", 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reserver.mu.Lock()
	defer reserver.mu.Unlock()
	if len(reserver.released) != 1 || reserver.released[0] != reserver.stolen {
		t.Fatalf("expected %q released, got %v", reserver.stolen, reserver.released)
	}
	if session.Code() == reserver.stolen {
		t.Fatalf("session reused the colliding code %q", session.Code())
	}
}

func TestSessionStoreClampsCodeLength(t *testing.T) {
	store := NewSessionStore(WithCodeLength(64))
	session, err := store.Create(context.Background(), params("t", 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(session.Code()) != app.MaxCodeLength {
		t.Fatalf("expected %d char code, got %q", app.MaxCodeLength, session.Code())
	}
}

// racingReserver registers a competing session under the first code it
// grants, as a concurrent Create would between reservation and insert.
type racingReserver struct {
	store    *SessionStore
	mu       sync.Mutex
	stolen   string
	released []string
}

func (r *racingReserver) Reserve(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stolen == "" {
		r.stolen = code
		r.store.mu.Lock()
		r.store.sessions[code] = app.NewSession(code, params("other", 1))
		r.store.mu.Unlock()
	}
	return true, nil
}

func (r *racingReserver) Release(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, code)
	return nil
}

type rejectAll struct{}

func (rejectAll) Reserve(context.Context, string) (bool, error) { return false, nil }
func (rejectAll) Release(context.Context, string) error         { return nil }
