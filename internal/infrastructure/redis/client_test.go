package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, "redis://"+s.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(ctx, "tradebook:ping", "1", 0).Err())
	assert.True(t, s.Exists("tradebook:ping"))
}

func TestNewClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	url := "redis://" + s.Addr()
	s.Close()

	_, err := NewClient(context.Background(), url)
	assert.ErrorContains(t, err, "failed to ping redis")
}

func TestParseOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := parseOptions("redis://localhost:6379/2")
		require.NoError(t, err)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, defaultDialTimeout, opts.DialTimeout)
		assert.Equal(t, defaultReadTimeout, opts.ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, opts.WriteTimeout)
	})

	t.Run("url overrides", func(t *testing.T) {
		opts, err := parseOptions("redis://localhost:6379?dial_timeout=10s&read_timeout=4s")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, opts.DialTimeout)
		assert.Equal(t, 4*time.Second, opts.ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, opts.WriteTimeout)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := parseOptions("://bad-url")
		assert.Error(t, err)
	})
}
