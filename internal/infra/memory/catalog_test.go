package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func TestCachedCatalogCaches(t *testing.T) {
	loader := &countingCatalog{Catalog: SampleCatalog()}
	catalog := NewCachedCatalog(loader, time.Minute)

	if _, err := catalog.LoadQuestion(context.Background(), 101); err != nil {
		t.Fatalf("load question: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	if _, err := catalog.LoadQuestion(context.Background(), 101); err != nil {
		t.Fatalf("load question 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
}

func TestCachedCatalogExpires(t *testing.T) {
	loader := &countingCatalog{Catalog: SampleCatalog()}
	catalog := NewCachedCatalog(loader, time.Minute)
	now := time.Now()
	catalog.clock = func() time.Time { return now }

	if _, err := catalog.LoadTopic(context.Background(), 1); err != nil {
		t.Fatalf("load topic: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := catalog.LoadTopic(context.Background(), 1); err != nil {
		t.Fatalf("load topic 2: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.calls.Load())
	}
}

func TestCachedCatalogDoesNotCacheErrors(t *testing.T) {
	loader := &countingCatalog{Catalog: SampleCatalog()}
	catalog := NewCachedCatalog(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := catalog.LoadTopic(context.Background(), 99)
		if !errors.Is(err, domain.ErrTopicNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected error not cached, got %d calls", loader.calls.Load())
	}
}

func TestCachedCatalogSharesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	loader := &countingCatalog{Catalog: SampleCatalog(), gate: release}
	catalog := NewCachedCatalog(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := catalog.LoadQuestionIDs(context.Background(), 1); err != nil {
				t.Errorf("load ids: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() != 1 {
		t.Fatalf("expected one shared load, got %d", loader.calls.Load())
	}
}

func TestStaticCatalogQuestionIDsOrdered(t *testing.T) {
	ids, err := SampleCatalog().LoadQuestionIDs(context.Background(), 1)
	if err != nil {
		t.Fatalf("load ids: %v", err)
	}
	want := []int64{101, 102, 103}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestSampleQuestionsHaveOneCorrectOption(t *testing.T) {
	catalog := SampleCatalog()
	for _, q := range catalog.questions {
		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			t.Fatalf("question %d has %d correct options", q.ID, correct)
		}
	}
}

type countingCatalog struct {
	app.Catalog
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingCatalog) wait() {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
}

func (c *countingCatalog) LoadTopic(ctx context.Context, id int64) (domain.Topic, error) {
	c.wait()
	return c.Catalog.LoadTopic(ctx, id)
}

func (c *countingCatalog) LoadQuestionIDs(ctx context.Context, id int64) ([]int64, error) {
	c.wait()
	return c.Catalog.LoadQuestionIDs(ctx, id)
}

func (c *countingCatalog) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	c.wait()
	return c.Catalog.LoadQuestion(ctx, id)
}
