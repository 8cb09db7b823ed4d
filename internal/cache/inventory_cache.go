package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"asset-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheStats reports hit/miss counters.
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

// InventoryCache keeps per-base inventory snapshots and the asset-type
// catalog in two levels: a local map (L1) and redis (L2). Workflow writes
// invalidate the affected base, so only read endpoints ever see cached data.
type InventoryCache struct {
	// L1: local memory
	l1Cache   map[int][]*models.InventoryRow
	l1Types   []*models.AssetType
	l1TypesAt time.Time
	l1Mutex   sync.RWMutex

	// L2: redis
	redisClient *redis.Client

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64
}

// NewInventoryCache creates the cache.
func NewInventoryCache(redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *InventoryCache {
	return &InventoryCache{
		l1Cache:     make(map[int][]*models.InventoryRow),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
	}
}

// GetStats returns cache statistics.
func (c *InventoryCache) GetStats() CacheStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()

	c.l1Mutex.RLock()
	totalKeys := len(c.l1Cache)
	c.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		TotalRequests: c.hits + c.misses,
		TotalKeys:     totalKeys,
	}
}

// GetBaseInventory returns the cached snapshot for a base, or nil on miss.
func (c *InventoryCache) GetBaseInventory(ctx context.Context, baseID int) []*models.InventoryRow {
	start := time.Now()

	c.l1Mutex.RLock()
	rows, ok := c.l1Cache[baseID]
	c.l1Mutex.RUnlock()
	if ok {
		c.recordHit()
		c.logger.Debug("L1 cache hit",
			zap.Int("base_id", baseID),
			zap.Duration("latency", time.Since(start)))
		return rows
	}

	if rows := c.getFromL2(ctx, baseID); rows != nil {
		c.setToL1(baseID, rows)
		c.recordHit()
		c.logger.Debug("L2 cache hit",
			zap.Int("base_id", baseID),
			zap.Duration("latency", time.Since(start)))
		return rows
	}

	c.recordMiss()
	c.logger.Debug("Cache miss",
		zap.Int("base_id", baseID),
		zap.Duration("latency", time.Since(start)))

	return nil
}

// SetBaseInventory stores a snapshot in both levels.
func (c *InventoryCache) SetBaseInventory(ctx context.Context, baseID int, rows []*models.InventoryRow) error {
	c.setToL1(baseID, rows)
	return c.setToL2(ctx, baseID, rows)
}

// GetAssetTypes returns the cached catalog, or nil on miss. The catalog is
// read before every workflow create, so it is cached whole with the same TTL
// as the base snapshots.
func (c *InventoryCache) GetAssetTypes(ctx context.Context) []*models.AssetType {
	c.l1Mutex.RLock()
	types, fresh := c.l1Types, time.Since(c.l1TypesAt) < c.ttl
	c.l1Mutex.RUnlock()
	if types != nil && fresh {
		c.recordHit()
		return types
	}

	data, err := c.redisClient.Get(ctx, typesKey).Result()
	if err == nil {
		var cached []*models.AssetType
		if err := json.Unmarshal([]byte(data), &cached); err != nil {
			c.logger.Warn("Failed to decode cached asset types", zap.Error(err))
		} else {
			c.l1Mutex.Lock()
			c.l1Types = cached
			c.l1TypesAt = time.Now()
			c.l1Mutex.Unlock()
			c.recordHit()
			return cached
		}
	}

	c.recordMiss()
	return nil
}

// SetAssetTypes stores the catalog in both levels.
func (c *InventoryCache) SetAssetTypes(ctx context.Context, types []*models.AssetType) error {
	c.l1Mutex.Lock()
	c.l1Types = types
	c.l1TypesAt = time.Now()
	c.l1Mutex.Unlock()

	data, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, typesKey, data, c.ttl).Err()
}

// InvalidateBase drops the snapshot for a base from both levels. Called
// after every ledger mutation touching the base.
func (c *InventoryCache) InvalidateBase(ctx context.Context, baseID int) error {
	c.l1Mutex.Lock()
	delete(c.l1Cache, baseID)
	c.l1Mutex.Unlock()

	return c.redisClient.Del(ctx, baseKey(baseID)).Err()
}

func (c *InventoryCache) recordHit() {
	c.statsMutex.Lock()
	c.hits++
	c.statsMutex.Unlock()
}

func (c *InventoryCache) recordMiss() {
	c.statsMutex.Lock()
	c.misses++
	c.statsMutex.Unlock()
}

func (c *InventoryCache) setToL1(baseID int, rows []*models.InventoryRow) {
	c.l1Mutex.Lock()
	defer c.l1Mutex.Unlock()

	if len(c.l1Cache) >= c.maxL1Size {
		// Simple eviction: drop an arbitrary entry
		for key := range c.l1Cache {
			delete(c.l1Cache, key)
			break
		}
	}

	c.l1Cache[baseID] = rows
}

func (c *InventoryCache) getFromL2(ctx context.Context, baseID int) []*models.InventoryRow {
	data, err := c.redisClient.Get(ctx, baseKey(baseID)).Result()
	if err != nil {
		return nil
	}

	var rows []*models.InventoryRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		c.logger.Warn("Failed to decode cached inventory", zap.Int("base_id", baseID), zap.Error(err))
		return nil
	}

	return rows
}

func (c *InventoryCache) setToL2(ctx context.Context, baseID int, rows []*models.InventoryRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, baseKey(baseID), data, c.ttl).Err()
}

func baseKey(baseID int) string {
	return fmt.Sprintf("inventory:base:%d", baseID)
}

const typesKey = "inventory:asset-types"
