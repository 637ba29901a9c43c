package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type fakePublisher struct {
	events []SessionFinished
	err    error
}

func (p *fakePublisher) PublishSessionFinished(_ context.Context, event SessionFinished) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type brokenArchive struct{}

func (brokenArchive) PersistFinishedSession(context.Context, domain.SessionSnapshot) (int64, error) {
	return 0, errors.New("db down")
}

func snapshot() domain.SessionSnapshot {
	return domain.SessionSnapshot{
		Code:              "ABCD",
		TopicID:           7,
		FinishedAt:        time.Unix(100, 0),
		AnsweredQuestions: []domain.AnsweredQuestion{{QuestionID: 1, CorrectOptionID: 11}},
		Participants:      []domain.Participant{{Identity: "a", DisplayName: "A"}},
	}
}

func TestAnnouncingArchivePublishesAfterStore(t *testing.T) {
	pub := &fakePublisher{}
	archive := NewAnnouncingArchive(memory.NewArchive(), pub, zerolog.Nop())

	id, err := archive.PersistFinishedSession(context.Background(), snapshot())
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one announcement, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.StoredID != id || ev.Code != "ABCD" || ev.TotalQuestions != 1 || ev.Participants != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAnnouncingArchiveIgnoresPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	archive := NewAnnouncingArchive(memory.NewArchive(), pub, zerolog.Nop())

	if _, err := archive.PersistFinishedSession(context.Background(), snapshot()); err != nil {
		t.Fatalf("publish failure must not fail persistence: %v", err)
	}
}

func TestAnnouncingArchiveSkipsPublishWhenStoreFails(t *testing.T) {
	pub := &fakePublisher{}
	archive := NewAnnouncingArchive(brokenArchive{}, pub, zerolog.Nop())

	if _, err := archive.PersistFinishedSession(context.Background(), snapshot()); err == nil {
		t.Fatalf("expected store error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("nothing should be announced for a failed store")
	}
}
