package respcache

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-ledger-backend/config"
)

func exerciseBackend(t *testing.T, b Backend) {
	ctx := context.Background()
	e := Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"application/json; charset=utf-8"}},
		Body:   []byte(`{"items":[],"total":0}`),
	}

	gen, ok := b.Generation(ctx)
	require.True(t, ok)

	_, found := b.Get(ctx, gen, "/api/devices")
	assert.False(t, found)

	b.Set(ctx, gen, "/api/devices", e)
	got, found := b.Get(ctx, gen, "/api/devices")
	require.True(t, found)
	assert.Equal(t, e, got)

	b.Flush(ctx)
	next, ok := b.Generation(ctx)
	require.True(t, ok)
	assert.NotEqual(t, gen, next)
	_, found = b.Get(ctx, next, "/api/devices")
	assert.False(t, found, "entries are gone after a flush")

	// A response built before the flush is stored under the old generation.
	b.Set(ctx, gen, "/api/devices", e)
	_, found = b.Get(ctx, next, "/api/devices")
	assert.False(t, found, "entries from a flushed generation are never served")
}

func TestMemory(t *testing.T) {
	exerciseBackend(t, NewMemory(time.Minute))
}

func TestMemory_Expiry(t *testing.T) {
	b := NewMemory(20 * time.Millisecond)
	b.Set(context.Background(), 0, "k", Entry{Status: 200})
	time.Sleep(40 * time.Millisecond)
	_, found := b.Get(context.Background(), 0, "k")
	assert.False(t, found)
}

func TestMemory_ConcurrentFlushAndSet(t *testing.T) {
	ctx := context.Background()
	b := NewMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			gen, _ := b.Generation(ctx)
			b.Set(ctx, gen, "k", Entry{Status: http.StatusOK})
		}()
		go func() {
			defer wg.Done()
			b.Flush(ctx)
		}()
	}
	wg.Wait()

	gen, _ := b.Generation(ctx)
	assert.Equal(t, int64(50), gen)
}

func TestNew_SelectsBackend(t *testing.T) {
	b, err := New(&config.CacheConfig{Backend: "memory", TTL: time.Second}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	_, err = New(&config.CacheConfig{Backend: "memcached"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown cache backend")
}

// TestRedis runs against a real server when REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	cfg := &config.RedisConfig{Addr: addr, KeyPrefix: "ledger-test:" + uuid.NewString() + ":"}
	b, err := NewRedis(cfg, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestRedis_Unreachable(t *testing.T) {
	cfg := &config.RedisConfig{Addr: "127.0.0.1:1"}
	_, err := NewRedis(cfg, time.Minute, zap.NewNop())
	assert.ErrorContains(t, err, "redis connection failed")
}
