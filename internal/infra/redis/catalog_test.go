package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCatalogCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingCatalog{Catalog: memory.SampleCatalog()}
	catalog := NewCatalog(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	topic, err := catalog.LoadTopic(ctx, 1)
	if err != nil {
		t.Fatalf("load topic: %v", err)
	}
	ids, err := catalog.LoadQuestionIDs(ctx, 1)
	if err != nil {
		t.Fatalf("load ids: %v", err)
	}
	q, err := catalog.LoadQuestion(ctx, ids[0])
	if err != nil {
		t.Fatalf("load question: %v", err)
	}
	if loader.calls != 3 {
		t.Fatalf("expected 3 loader calls, got %d", loader.calls)
	}
	if !mr.Exists("live:topic:1") || !mr.Exists("live:topic:1:questions") {
		t.Fatalf("expected topic keys to be cached")
	}
	if ttl := mr.TTL("live:topic:1"); ttl < time.Minute {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second round should hit cache, loader not incremented.
	topic2, _ := catalog.LoadTopic(ctx, 1)
	ids2, _ := catalog.LoadQuestionIDs(ctx, 1)
	q2, _ := catalog.LoadQuestion(ctx, ids[0])
	if loader.calls != 3 {
		t.Fatalf("expected cache hits, loader calls=%d", loader.calls)
	}
	if topic2 != topic {
		t.Fatalf("cached topic differs: %+v vs %+v", topic2, topic)
	}
	if len(ids2) != len(ids) || ids2[0] != ids[0] {
		t.Fatalf("cached ids differ: %v vs %v", ids2, ids)
	}
	want, _ := q.CorrectOptionID()
	got, ok := q2.CorrectOptionID()
	if !ok || got != want || len(q2.Options) != len(q.Options) {
		t.Fatalf("cached question lost options: %+v", q2)
	}
}

func TestCatalogPassesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	catalog := NewCatalog(newClient(mr), memory.SampleCatalog(), time.Minute)
	if _, err := catalog.LoadQuestion(context.Background(), 9999); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists("live:question:9999") {
		t.Fatalf("misses must not be cached")
	}
}

func TestCatalogFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	catalog := NewCatalog(client, memory.SampleCatalog(), time.Minute)
	if _, err := catalog.LoadTopic(context.Background(), 1); err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
}

type countingCatalog struct {
	app.Catalog
	calls int
}

func (c *countingCatalog) LoadTopic(ctx context.Context, id int64) (domain.Topic, error) {
	c.calls++
	return c.Catalog.LoadTopic(ctx, id)
}

func (c *countingCatalog) LoadQuestionIDs(ctx context.Context, id int64) ([]int64, error) {
	c.calls++
	return c.Catalog.LoadQuestionIDs(ctx, id)
}

func (c *countingCatalog) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	c.calls++
	return c.Catalog.LoadQuestion(ctx, id)
}
