package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the first request with a key is in flight.
const pendingMarker = "processing"

// claimKeyScript sets the key if it is free, otherwise returns what it holds.
var claimKeyScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return false
end
return redis.call("GET", KEYS[1])
`)

// releasePendingScript deletes the key only while it still holds the pending marker.
var releasePendingScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore keeps idempotency keys and replayable responses in Redis.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "tradebook:idempotency:",
	}
}

// CheckAndSet claims key for a new request in one round trip. When the key
// is taken it reports exists with the stored value, which is the pending
// marker while the first request has not finished.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := []byte(pendingMarker)
	if response != nil {
		value = response
	}

	existing, err := claimKeyScript.Run(ctx, s.client, []string{s.prefix + key}, value, ttl.Milliseconds()).Text()
	if errors.Is(err, redis.Nil) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, []byte(existing), nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release frees a key whose request failed so the client may retry it. A key
// that already holds a final response is left alone.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return releasePendingScript.Run(ctx, s.client, []string{s.prefix + key}, pendingMarker).Err()
}
