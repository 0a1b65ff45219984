package cache

import (
	"context"
	"testing"
	"time"

	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, maxSize int) (*Manager, *fakeClock) {
	t.Helper()
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: time.Minute})
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m.now = clock.now
	t.Cleanup(func() { _ = m.Close() })
	return m, clock
}

func TestManager_GetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 10)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Set(ctx, "k", "v2"))
	v, _ = m.Get(ctx, "k")
	assert.Equal(t, "v2", v)

	s := m.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Size)
}

func TestManager_Expiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, 10)

	require.NoError(t, m.Set(ctx, "k", "v"))
	clock.advance(2 * time.Minute)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Stats().Size)
}

func TestManager_EvictsLeastAccessed(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, 2)

	require.NoError(t, m.Set(ctx, "a", "1"))
	clock.advance(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, _ = m.Get(ctx, "a")

	// 滿了之後淘汰 b（訪問次數最少）
	require.NoError(t, m.Set(ctx, "c", "3"))

	_, okA := m.Get(ctx, "a")
	_, okB := m.Get(ctx, "b")
	_, okC := m.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, int64(1), m.Stats().Evictions)
}

func TestManager_ExpiredEntriesFreeSpace(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, 1)

	require.NoError(t, m.Set(ctx, "old", "1"))
	clock.advance(2 * time.Minute)
	require.NoError(t, m.Set(ctx, "new", "2"))

	v, ok := m.Get(ctx, "new")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestManager_ZeroCapacityIsFull(t *testing.T) {
	m, _ := newTestManager(t, 0)
	assert.ErrorIs(t, m.Set(context.Background(), "k", "v"), common.ErrCacheFull)
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	m := NewManager(config.CacheConfig{MaxSize: 1, TTL: time.Minute, CleanupInterval: time.Millisecond})
	require.NoError(t, m.Set(context.Background(), "k", "v"))
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
	assert.Equal(t, 0, m.Stats().Size)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewStore(ctx, config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: 5, TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Manager{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(ctx, config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("gpt", "soup", "how long"), Key("gpt", "soup", "how long"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Len(t, Key("x"), 64)
}
