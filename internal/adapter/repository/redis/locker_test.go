package redis

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradebook/internal/domain"
)

func TestAccountLocker_LockAndRelease(t *testing.T) {
	client, mr := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(locker.prefix+"acc-1"))

	unlock()
	assert.False(t, mr.Exists(locker.prefix+"acc-1"))
}

func TestAccountLocker_BusyAccountTimesOut(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	locker.wait = 30 * time.Millisecond
	locker.poll = 5 * time.Millisecond
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(ctx, "acc-1")
	assert.True(t, errors.Is(err, domain.ErrImportInProgress), "got %v", err)
}

func TestAccountLocker_OtherAccountsAreIndependent(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "acc-a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(ctx, "acc-b")
	require.NoError(t, err)
	unlockB()
}

func TestAccountLocker_WaiterAcquiresAfterRelease(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	locker.poll = 5 * time.Millisecond
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var waitErr error
	go func() {
		defer wg.Done()
		var release func()
		release, waitErr = locker.Lock(ctx, "acc-1")
		if waitErr == nil {
			release()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	unlock()
	wg.Wait()

	require.NoError(t, waitErr)
}

func TestAccountLocker_ContextCancelled(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	locker.poll = 5 * time.Millisecond

	unlock, err := locker.Lock(context.Background(), "acc-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "acc-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAccountLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client, mr := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)

	// The key expired and someone else took it.
	require.NoError(t, mr.Set(locker.prefix+"acc-1", "other-token"))
	unlock()

	got, err := mr.Get(locker.prefix + "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "other-token", got)
	assert.Contains(t, buf.String(), "account lock expired before release")
}

func TestAccountLocker_ReleaseFailureIsLogged(t *testing.T) {
	client, mr := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)

	mr.Close()
	unlock()

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, "failed to release account lock")
	assert.Contains(t, out, `"lock_key":"tradebook:lock:account:acc-1"`)
}

func TestAccountLocker_CleanReleaseLogsNothing(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewAccountLocker(client, time.Minute)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	unlock, err := locker.Lock(ctx, "acc-1")
	require.NoError(t, err)
	unlock()

	assert.Empty(t, buf.String())
}
