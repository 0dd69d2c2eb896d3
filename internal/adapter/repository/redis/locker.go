package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/domain"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AccountLocker implements usecase.AccountLocker with SET NX PX keys, so
// imports for one account are serialized across server processes.
type AccountLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewAccountLocker creates a locker whose keys expire after ttl. Lock waits
// at most ttl for a busy account before giving up.
func NewAccountLocker(client *redis.Client, ttl time.Duration) *AccountLocker {
	return &AccountLocker{
		client: client,
		prefix: "tradebook:lock:account:",
		ttl:    ttl,
		wait:   ttl,
		poll:   50 * time.Millisecond,
	}
}

// Lock polls until the account key is acquired, ctx ends, or the wait runs
// out with domain.ErrImportInProgress.
func (l *AccountLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	key := l.prefix + accountID
	token := ulid.Make().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire account lock: %w", err)
		}
		if ok {
			return func() { l.release(ctx, key, token) }, nil
		}

		if !time.Now().Before(deadline) {
			return nil, domain.ErrImportInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

func (l *AccountLocker) release(ctx context.Context, key, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	// An unreleased key expires after ttl; until then the account stays busy.
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	switch {
	case err != nil:
		zerolog.Ctx(ctx).Debug().Err(err).Str("lock_key", key).Dur("ttl", l.ttl).Msg("failed to release account lock")
	case n == 0:
		zerolog.Ctx(ctx).Debug().Str("lock_key", key).Msg("account lock expired before release")
	}
}
