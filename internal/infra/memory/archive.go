package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// Archive keeps finished sessions in memory. Used when no database is configured.
type Archive struct {
	mu     sync.Mutex
	nextID int64
	stored map[int64]domain.SessionSnapshot
}

func NewArchive() *Archive {
	return &Archive{stored: make(map[int64]domain.SessionSnapshot)}
}

func (a *Archive) PersistFinishedSession(ctx context.Context, snap domain.SessionSnapshot) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.stored[a.nextID] = snap
	return a.nextID, nil
}

// Get returns a stored snapshot by its ID.
func (a *Archive) Get(id int64) (domain.SessionSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.stored[id]
	return snap, ok
}

// All returns stored snapshots in storage order.
func (a *Archive) All() []domain.SessionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.SessionSnapshot, 0, len(a.stored))
	for id := int64(1); id <= a.nextID; id++ {
		if snap, ok := a.stored[id]; ok {
			out = append(out, snap)
		}
	}
	return out
}
