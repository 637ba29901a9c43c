package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/infra/memory"
)

// CodeReserver marks live session codes in Redis so that instances sharing
// the same Redis never hand out a code another instance is using. The marker
// doubles as a liveness key and expires on its own after ttl.
type CodeReserver struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeReserver(client *redis.Client, ttl time.Duration) *CodeReserver {
	return &CodeReserver{client: client, ttl: ttl}
}

func (r *CodeReserver) Reserve(ctx context.Context, code string) (bool, error) {
	return r.client.SetNX(ctx, sessionKey(code), "1", r.ttl).Result()
}

func (r *CodeReserver) Release(ctx context.Context, code string) error {
	return r.client.Del(ctx, sessionKey(code)).Err()
}

// NewSessionStore keeps sessions in process and reserves their codes in Redis.
func NewSessionStore(client *redis.Client, ttl time.Duration, opts ...memory.StoreOption) *memory.SessionStore {
	opts = append(opts, memory.WithReserver(NewCodeReserver(client, ttl)))
	return memory.NewSessionStore(opts...)
}

func sessionKey(code string) string {
	return "quiz:session:" + code
}
