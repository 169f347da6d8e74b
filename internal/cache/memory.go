package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache backend. It is the default when no Redis
// address is configured; entries are lost on restart, which is acceptable for
// short-TTL lookup data.
type Memory struct {
	inner *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{inner: gocache.New(gocache.NoExpiration, time.Minute)}
}

var _ Cache = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	value, ok := m.inner.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return data, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.inner.Set(key, buf, ttl)
}
