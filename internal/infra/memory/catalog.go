package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// StaticCatalog is an app.Catalog backed by in-memory maps (tests, demos,
// and the server when no Postgres URL is configured).
type StaticCatalog struct {
	topics    map[int64]domain.Topic
	questions map[int64]domain.Question
}

func NewStaticCatalog(topics []domain.Topic, questions []domain.Question) *StaticCatalog {
	c := &StaticCatalog{
		topics:    make(map[int64]domain.Topic, len(topics)),
		questions: make(map[int64]domain.Question, len(questions)),
	}
	for _, t := range topics {
		c.topics[t.ID] = t
	}
	for _, q := range questions {
		c.questions[q.ID] = q
	}
	return c
}

func (c *StaticCatalog) LoadTopic(_ context.Context, topicID int64) (domain.Topic, error) {
	if t, ok := c.topics[topicID]; ok {
		return t, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

func (c *StaticCatalog) LoadQuestionIDs(_ context.Context, topicID int64) ([]int64, error) {
	if _, ok := c.topics[topicID]; !ok {
		return nil, domain.ErrTopicNotFound
	}
	var qs []domain.Question
	for _, q := range c.questions {
		if q.TopicID == topicID {
			qs = append(qs, q)
		}
	}
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
	ids := make([]int64, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (c *StaticCatalog) LoadQuestion(_ context.Context, questionID int64) (domain.Question, error) {
	if q, ok := c.questions[questionID]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// CachedCatalog caches another catalog with TTL to avoid repeated DB hits.
// Concurrent misses for the same key share one load.
type CachedCatalog struct {
	next  app.Catalog
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value     any
	expiresAt time.Time
}

func NewCachedCatalog(next app.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedEntry),
	}
}

func (c *CachedCatalog) LoadTopic(ctx context.Context, topicID int64) (domain.Topic, error) {
	v, err := c.get(fmt.Sprintf("topic:%d", topicID), func() (any, error) {
		return c.next.LoadTopic(ctx, topicID)
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return v.(domain.Topic), nil
}

func (c *CachedCatalog) LoadQuestionIDs(ctx context.Context, topicID int64) ([]int64, error) {
	v, err := c.get(fmt.Sprintf("topic:%d:questions", topicID), func() (any, error) {
		return c.next.LoadQuestionIDs(ctx, topicID)
	})
	if err != nil {
		return nil, err
	}
	ids := v.([]int64)
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func (c *CachedCatalog) LoadQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	v, err := c.get(fmt.Sprintf("question:%d", questionID), func() (any, error) {
		return c.next.LoadQuestion(ctx, questionID)
	})
	if err != nil {
		return domain.Question{}, err
	}
	return v.(domain.Question), nil
}

// Invalidate drops every cached entry.
func (c *CachedCatalog) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]cachedEntry)
	c.mu.Unlock()
}

func (c *CachedCatalog) get(key string, load func() (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cachedEntry{value: v, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (c *CachedCatalog) lookup(key string) (any, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.value, true
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
