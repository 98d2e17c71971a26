package repository

import (
	"context"
	"log"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements domain.Locker with SET NX PX
type RedisLocker struct {
	client *redis.Client
	wait   time.Duration
}

// NewRedisLocker creates a locker that waits at most `wait` for a busy lock
func NewRedisLocker(client *redis.Client, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, wait: wait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Lock",
		trace.WithAttributes(attribute.String("lock.key", key)),
	)
	defer span.End()

	token := ulid.Make().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			span.RecordError(err)
			return nil, domain.NewStoreError("failed to acquire lock", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			span.SetAttributes(attribute.Bool("lock.acquired", false))
			return nil, domain.ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	span.SetAttributes(attribute.Bool("lock.acquired", true))
	released := false
	return func() {
		if released {
			return
		}
		released = true
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("Warning: failed to release lock %s: %v", key, err)
		}
	}, nil
}

