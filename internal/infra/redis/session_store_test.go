package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	session, err := store.Create(context.Background(), app.SessionParams{
		TopicID:            1,
		TeacherIdentity:    "teacher",
		SecondsPerQuestion: 5,
		QuestionIDs:        []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := "quiz:session:" + session.Code()
	if !mr.Exists(key) {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	store.Delete(session.Code())
	deadline := time.Now().Add(time.Second)
	for mr.Exists(key) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mr.Exists(key) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestCodeReserverRejectsTakenCode(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	a := NewCodeReserver(newClient(mr), time.Minute)
	b := NewCodeReserver(newClient(mr), time.Minute)

	ok, err := a.Reserve(ctx, "ABCD")
	if err != nil || !ok {
		t.Fatalf("first reserve: %v %v", ok, err)
	}
	ok, err = b.Reserve(ctx, "ABCD")
	if err != nil || ok {
		t.Fatalf("second instance must not get the same code: %v %v", ok, err)
	}
	if err := a.Release(ctx, "ABCD"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := b.Reserve(ctx, "ABCD"); !ok {
		t.Fatalf("released code should be reusable")
	}
}

func TestSessionStoreExhaustsWhenEveryCodeIsReservedElsewhere(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	for _, r := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" {
		mr.Set("quiz:session:"+string(r), "1")
	}
	store := NewSessionStore(newClient(mr), time.Minute, memory.WithCodeLength(1))

	_, err = store.Create(context.Background(), app.SessionParams{TeacherIdentity: "t", QuestionIDs: []int64{1}})
	if !errors.Is(err, domain.ErrCodeSpaceExhausted) {
		t.Fatalf("expected exhausted code space, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("nothing should be stored")
	}
}
