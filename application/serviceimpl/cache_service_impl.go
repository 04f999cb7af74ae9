package serviceimpl

import (
	"context"
	"errors"
	"sync"
	"time"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/services"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/metrics"
)

const (
	fastTierMaxTTL = time.Hour
	cacheKeyPrefix = "prediction:"
)

type fastEntry struct {
	result    *models.PredictionResult
	expiresAt time.Time
}

// CacheServiceImpl is the two-tier prediction cache: a small in-process map
// in front of an optional shared Redis tier. Shared-tier failures are logged
// and swallowed; the caller never sees a cache error.
type CacheServiceImpl struct {
	shared    ports.SharedCachePort
	fastTTL   time.Duration
	sharedTTL time.Duration

	mu   sync.RWMutex
	fast map[string]fastEntry
}

func NewCacheService(shared ports.SharedCachePort, fastTTL, sharedTTL time.Duration) services.CacheService {
	// The fast tier serves hot repeats only; it must expire well before the
	// shared tier so restarts and scale-out stay consistent.
	if fastTTL <= 0 || fastTTL > fastTierMaxTTL {
		fastTTL = fastTierMaxTTL
	}
	if sharedTTL <= 0 {
		sharedTTL = 24 * time.Hour
	}
	return &CacheServiceImpl{
		shared:    shared,
		fastTTL:   fastTTL,
		sharedTTL: sharedTTL,
		fast:      make(map[string]fastEntry),
	}
}

func (c *CacheServiceImpl) Get(ctx context.Context, imageHash string) (*models.PredictionResult, bool) {
	key := cacheKeyPrefix + imageHash

	c.mu.RLock()
	entry, ok := c.fast[key]
	c.mu.RUnlock()
	if ok {
		if time.Now().Before(entry.expiresAt) {
			metrics.CacheHits.WithLabelValues("fast").Inc()
			return entry.result, true
		}
		c.mu.Lock()
		delete(c.fast, key)
		c.mu.Unlock()
	}

	var result models.PredictionResult
	err := c.shared.GetJSON(ctx, key, &result)
	switch {
	case err == nil:
		c.storeFast(key, &result)
		metrics.CacheHits.WithLabelValues("shared").Inc()
		return &result, true
	case errors.Is(err, ports.ErrCacheMiss):
	default:
		metrics.CacheErrors.Inc()
		logger.WarnContext(ctx, "Shared cache read failed, degrading to fast tier", "error", err)
	}

	metrics.CacheMisses.Inc()
	return nil, false
}

func (c *CacheServiceImpl) Set(ctx context.Context, imageHash string, result *models.PredictionResult) {
	key := cacheKeyPrefix + imageHash
	c.storeFast(key, result)

	if err := c.shared.SetJSON(ctx, key, result, c.sharedTTL); err != nil {
		metrics.CacheErrors.Inc()
		logger.WarnContext(ctx, "Shared cache write failed", "error", err)
	}
}

func (c *CacheServiceImpl) Invalidate(ctx context.Context, imageHash string) {
	key := cacheKeyPrefix + imageHash

	c.mu.Lock()
	delete(c.fast, key)
	c.mu.Unlock()

	if err := c.shared.Delete(ctx, key); err != nil {
		metrics.CacheErrors.Inc()
		logger.WarnContext(ctx, "Shared cache delete failed", "key", key, "error", err)
	}
}

// InvalidateVersion drops the whole prediction namespace. Entries do not key
// by model version, and after a swap every cached answer is stale anyway, so
// a full sweep is both correct and simpler than value-by-value filtering.
func (c *CacheServiceImpl) InvalidateVersion(ctx context.Context, modelVersion string) {
	c.mu.Lock()
	c.fast = make(map[string]fastEntry)
	c.mu.Unlock()

	deleted, err := c.shared.DeletePattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		metrics.CacheErrors.Inc()
		logger.WarnContext(ctx, "Shared cache sweep failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "Prediction cache invalidated",
		"model_version", modelVersion,
		"shared_deleted", deleted,
	)
}

// SweepExpired removes expired fast-tier entries. The read path expires
// lazily; the periodic sweep keeps memory bounded for keys never read again.
func (c *CacheServiceImpl) SweepExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.fast {
		if now.After(entry.expiresAt) {
			delete(c.fast, key)
			removed++
		}
	}
	return removed
}

func (c *CacheServiceImpl) storeFast(key string, result *models.PredictionResult) {
	c.mu.Lock()
	c.fast[key] = fastEntry{result: result, expiresAt: time.Now().Add(c.fastTTL)}
	c.mu.Unlock()
}
