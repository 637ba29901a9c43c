package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Catalog caches catalog content in Redis and falls back to another catalog
// on a miss. Layout:
//
//	HSET  live:topic:{id}            title, description, seconds
//	RPUSH live:topic:{id}:questions  question IDs in catalog order
//	SET   live:question:{id}         question JSON (options with correctness)
type Catalog struct {
	client *redis.Client
	next   app.Catalog
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalog(client *redis.Client, next app.Catalog, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		next:   next,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) LoadTopic(ctx context.Context, topicID int64) (domain.Topic, error) {
	key := topicKey(topicID)
	if topic, ok := c.cachedTopic(ctx, topicID); ok {
		return topic, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := c.cachedTopic(ctx, topicID); ok {
			return topic, nil
		}
		topic, err := c.next.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"title", topic.Title,
			"description", topic.Description,
			"seconds", topic.SecondsPerQuestion,
		)
		c.expire(ctx, pipe, key)
		_, _ = pipe.Exec(ctx)
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (c *Catalog) cachedTopic(ctx context.Context, topicID int64) (domain.Topic, bool) {
	fields, err := c.client.HGetAll(ctx, topicKey(topicID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.Topic{}, false
	}
	seconds, _ := strconv.Atoi(fields["seconds"])
	return domain.Topic{
		ID:                 topicID,
		Title:              fields["title"],
		Description:        fields["description"],
		SecondsPerQuestion: seconds,
	}, true
}

func (c *Catalog) LoadQuestionIDs(ctx context.Context, topicID int64) ([]int64, error) {
	key := questionsKey(topicID)
	if ids, ok := c.cachedIDs(ctx, key); ok {
		return ids, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if ids, ok := c.cachedIDs(ctx, key); ok {
			return ids, nil
		}
		ids, err := c.next.LoadQuestionIDs(ctx, topicID)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			values := make([]interface{}, len(ids))
			for i, id := range ids {
				values[i] = id
			}
			pipe := c.client.TxPipeline()
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			c.expire(ctx, pipe, key)
			_, _ = pipe.Exec(ctx)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	ids := result.([]int64)
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func (c *Catalog) cachedIDs(ctx context.Context, key string) ([]int64, bool) {
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (c *Catalog) LoadQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	key := questionKey(questionID)
	if q, ok := c.cachedQuestion(ctx, key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if q, ok := c.cachedQuestion(ctx, key); ok {
			return q, nil
		}
		q, err := c.next.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		if payload, err := json.Marshal(q); err == nil {
			_ = c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *Catalog) cachedQuestion(ctx context.Context, key string) (domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func (c *Catalog) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func topicKey(id int64) string     { return fmt.Sprintf("live:topic:%d", id) }
func questionsKey(id int64) string { return fmt.Sprintf("live:topic:%d:questions", id) }
func questionKey(id int64) string  { return fmt.Sprintf("live:question:%d", id) }
