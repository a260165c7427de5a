package respcache

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"equipment-ledger-backend/config"
)

// Entry is a captured HTTP response.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Backend stores captured responses keyed by request URI within a
// generation. Backends treat their own failures as cache misses.
type Backend interface {
	// Generation returns the current generation. ok is false when the
	// backend cannot tell, in which case the request is not cached.
	Generation(ctx context.Context) (gen int64, ok bool)
	Get(ctx context.Context, gen int64, key string) (Entry, bool)
	// Set stores e under gen. An entry stored under a generation that has
	// since been flushed is never returned by Get.
	Set(ctx context.Context, gen int64, key string, e Entry)
	// Flush starts a new generation. It is called after each successful write.
	Flush(ctx context.Context)
}

// New builds the backend selected by cfg.
func New(cfg *config.CacheConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		return NewRedis(&cfg.Redis, cfg.TTL, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Memory is an in-process backend.
type Memory struct {
	store *cache.Cache
	gen   atomic.Int64
}

// NewMemory creates an in-process backend whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{store: cache.New(ttl, 2*ttl)}
}

func (m *Memory) Generation(_ context.Context) (int64, bool) {
	return m.gen.Load(), true
}

func (m *Memory) Get(_ context.Context, gen int64, key string) (Entry, bool) {
	if gen != m.gen.Load() {
		return Entry{}, false
	}
	v, found := m.store.Get(entryKey(gen, key))
	if !found {
		return Entry{}, false
	}
	return v.(Entry), true
}

func (m *Memory) Set(_ context.Context, gen int64, key string, e Entry) {
	if gen != m.gen.Load() {
		return
	}
	m.store.Set(entryKey(gen, key), e, cache.DefaultExpiration)
}

// Flush bumps the generation before dropping entries, so a Set racing with
// it lands under a key that is no longer read.
func (m *Memory) Flush(_ context.Context) {
	m.gen.Add(1)
	m.store.Flush()
}

func entryKey(gen int64, key string) string {
	return fmt.Sprintf("%d:%s", gen, key)
}
