package amqp

import (
	"context"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// AnnouncingArchive stores a session with next and then publishes
// SessionFinished. A failed publish is logged and does not fail the store.
type AnnouncingArchive struct {
	next app.Archive
	pub  Publisher
	log  zerolog.Logger
}

func NewAnnouncingArchive(next app.Archive, pub Publisher, log zerolog.Logger) *AnnouncingArchive {
	return &AnnouncingArchive{next: next, pub: pub, log: log.With().Str("component", "amqp").Logger()}
}

func (a *AnnouncingArchive) PersistFinishedSession(ctx context.Context, snap domain.SessionSnapshot) (int64, error) {
	id, err := a.next.PersistFinishedSession(ctx, snap)
	if err != nil {
		return 0, err
	}
	event := SessionFinished{
		StoredID:       id,
		Code:           snap.Code,
		TopicID:        snap.TopicID,
		TotalQuestions: snap.TotalQuestions(),
		Participants:   len(snap.Participants),
		FinishedAt:     snap.FinishedAt,
	}
	if err := a.pub.PublishSessionFinished(ctx, event); err != nil {
		a.log.Warn().Err(err).Str("session_code", snap.Code).Msg("failed to announce finished session")
	}
	return id, nil
}
