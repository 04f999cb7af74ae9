package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
)

// memSharedCache is an in-memory stand-in for the redis tier.
type memSharedCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	getErr   error
	setErr   error
	sweeps   int
	lastGlob string
}

func newMemSharedCache() *memSharedCache {
	return &memSharedCache{data: make(map[string][]byte)}
}

func (m *memSharedCache) GetJSON(ctx context.Context, key string, target any) error {
	if m.getErr != nil {
		return m.getErr
	}
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return ports.ErrCacheMiss
	}
	return json.Unmarshal(raw, target)
}

func (m *memSharedCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memSharedCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memSharedCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	m.lastGlob = pattern
	n := int64(len(m.data))
	m.data = make(map[string][]byte)
	return n, nil
}

func (m *memSharedCache) Ping(ctx context.Context) error { return nil }

var _ ports.SharedCachePort = (*memSharedCache)(nil)

func cachedResult(disease string) *models.PredictionResult {
	return &models.PredictionResult{
		RequestID:    "req-1",
		DiseaseName:  disease,
		Confidence:   0.9,
		ModelVersion: models.VariantRealModel,
	}
}

func TestCacheService_FastTierHit(t *testing.T) {
	shared := newMemSharedCache()
	cache := NewCacheService(shared, time.Minute, time.Hour)
	ctx := context.Background()

	cache.Set(ctx, "hash-a", cachedResult(models.DiseaseLeafRust))

	// Poison the shared tier; a fast hit must not touch it.
	shared.getErr = errors.New("redis down")

	got, ok := cache.Get(ctx, "hash-a")
	require.True(t, ok)
	assert.Equal(t, models.DiseaseLeafRust, got.DiseaseName)
}

func TestCacheService_SharedTierRepopulatesFast(t *testing.T) {
	shared := newMemSharedCache()
	cacheA := NewCacheService(shared, time.Minute, time.Hour)
	cacheB := NewCacheService(shared, time.Minute, time.Hour)
	ctx := context.Background()

	// Written by one instance, readable from another through the shared tier.
	cacheA.Set(ctx, "hash-b", cachedResult(models.DiseasePhoma))

	got, ok := cacheB.Get(ctx, "hash-b")
	require.True(t, ok)
	assert.Equal(t, models.DiseasePhoma, got.DiseaseName)

	// The read should have warmed B's fast tier.
	shared.getErr = errors.New("redis down")
	got, ok = cacheB.Get(ctx, "hash-b")
	require.True(t, ok)
	assert.Equal(t, models.DiseasePhoma, got.DiseaseName)
}

func TestCacheService_SharedFailureDegradesSilently(t *testing.T) {
	shared := newMemSharedCache()
	shared.getErr = errors.New("redis down")
	shared.setErr = errors.New("redis down")
	cache := NewCacheService(shared, time.Minute, time.Hour)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "hash-c")
	assert.False(t, ok)

	// Writes still land in the fast tier.
	cache.Set(ctx, "hash-c", cachedResult(models.DiseaseHealthy))
	got, ok := cache.Get(ctx, "hash-c")
	require.True(t, ok)
	assert.Equal(t, models.DiseaseHealthy, got.DiseaseName)
}

func TestCacheService_NullSharedCache(t *testing.T) {
	cache := NewCacheService(ports.NullSharedCache{}, time.Minute, time.Hour)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "hash-d")
	assert.False(t, ok)

	cache.Set(ctx, "hash-d", cachedResult(models.DiseaseCercospora))
	got, ok := cache.Get(ctx, "hash-d")
	require.True(t, ok)
	assert.Equal(t, models.DiseaseCercospora, got.DiseaseName)
}

func TestCacheService_Invalidate(t *testing.T) {
	shared := newMemSharedCache()
	cache := NewCacheService(shared, time.Minute, time.Hour)
	ctx := context.Background()

	cache.Set(ctx, "hash-e", cachedResult(models.DiseaseLeafMiner))
	cache.Invalidate(ctx, "hash-e")

	_, ok := cache.Get(ctx, "hash-e")
	assert.False(t, ok)
}

func TestCacheService_InvalidateVersionSweepsNamespace(t *testing.T) {
	shared := newMemSharedCache()
	cache := NewCacheService(shared, time.Minute, time.Hour)
	ctx := context.Background()

	cache.Set(ctx, "hash-f", cachedResult(models.DiseaseLeafRust))
	cache.Set(ctx, "hash-g", cachedResult(models.DiseaseHealthy))

	cache.InvalidateVersion(ctx, "model@12345")

	_, ok := cache.Get(ctx, "hash-f")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "hash-g")
	assert.False(t, ok)

	assert.Equal(t, 1, shared.sweeps)
	assert.Equal(t, "prediction:*", shared.lastGlob)
}

func TestCacheService_ClampsFastTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"zero defaults to ceiling", 0, time.Hour},
		{"over ceiling clamps", 5 * time.Hour, time.Hour},
		{"in range kept", 10 * time.Minute, 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impl := NewCacheService(ports.NullSharedCache{}, tt.ttl, time.Hour).(*CacheServiceImpl)
			assert.Equal(t, tt.want, impl.fastTTL)
		})
	}
}

func TestCacheService_SweepExpired(t *testing.T) {
	impl := NewCacheService(ports.NullSharedCache{}, time.Nanosecond, time.Hour).(*CacheServiceImpl)

	impl.storeFast("prediction:old-1", cachedResult(models.DiseaseHealthy))
	impl.storeFast("prediction:old-2", cachedResult(models.DiseasePhoma))
	time.Sleep(time.Millisecond)

	assert.Equal(t, 2, impl.SweepExpired())
	assert.Zero(t, impl.SweepExpired())
}

func TestCacheService_FastTTLExpiry(t *testing.T) {
	shared := newMemSharedCache()
	impl := NewCacheService(shared, time.Nanosecond, time.Hour).(*CacheServiceImpl)
	ctx := context.Background()

	impl.storeFast("prediction:hash-h", cachedResult(models.DiseaseHealthy))
	time.Sleep(time.Millisecond)

	// Expired fast entry falls through; shared tier is empty so this misses.
	_, ok := impl.Get(ctx, "hash-h")
	assert.False(t, ok)
}
