package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
)

const (
	productKeyFormat = "product:%s"
	allProductIDsKey = "all_product_ids"
	productEntryTTL  = 5 * time.Minute
)

// ProductListCache caches the full product list in Redis: one JSON entry per
// product plus a set of all product IDs. Entries carry a TTL so evictions
// and out-of-band changes age out; any miss means a DB fetch.
type ProductListCache struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewProductListCache wraps an existing Redis connection.
func NewProductListCache(client *RedisClient, log *zap.Logger) *ProductListCache {
	return &ProductListCache{rdb: client.GetClient(), log: log}
}

// Get returns the cached product list. An error (including an empty or
// partially evicted cache) means the caller should fall back to the DB.
func (c *ProductListCache) Get(ctx context.Context) ([]models.Product, error) {
	productIDs, err := c.rdb.SMembers(ctx, allProductIDsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("redis set %q does not exist", allProductIDsKey)
		}
		return nil, fmt.Errorf("failed to get %s from Redis: %w", allProductIDsKey, err)
	}
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("no product IDs found in Redis cache set")
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = fmt.Sprintf(productKeyFormat, id)
	}

	// MGET keeps this a single round trip for the whole list.
	results, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET products from Redis: %w", err)
	}

	var products []models.Product
	for _, res := range results {
		if res == nil {
			// Key expired or was evicted; the DB fallback covers it.
			continue
		}
		productJSON, ok := res.(string)
		if !ok {
			c.log.Warn("unexpected type from Redis MGET", zap.String("type", fmt.Sprintf("%T", res)))
			continue
		}
		var product models.Product
		if err := json.Unmarshal([]byte(productJSON), &product); err != nil {
			c.log.Warn("failed to unmarshal cached product", zap.Error(err))
			continue
		}
		products = append(products, product)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("all cached products were invalid or missing, forcing DB fetch")
	}
	return products, nil
}

// Populate replaces the cached product list with the given products. The ID
// set is rebuilt in the same pipeline so it always reflects the DB.
func (c *ProductListCache) Populate(ctx context.Context, products []models.Product) error {
	pipe := c.rdb.Pipeline()
	allProductIDs := make([]interface{}, 0, len(products))

	for _, p := range products {
		productJSON, err := json.Marshal(p)
		if err != nil {
			c.log.Warn("failed to marshal product for cache population",
				zap.String("product_id", p.ID), zap.Error(err))
			continue
		}
		pipe.Set(ctx, fmt.Sprintf(productKeyFormat, p.ID), productJSON, productEntryTTL)
		allProductIDs = append(allProductIDs, p.ID)
	}

	pipe.Del(ctx, allProductIDsKey)
	if len(allProductIDs) > 0 {
		pipe.SAdd(ctx, allProductIDsKey, allProductIDs...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for cache population: %w", err)
	}
	return nil
}

// Invalidate drops the cached list after a catalog write. Dropping the ID
// set is enough: Get treats a missing set as a miss.
func (c *ProductListCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, allProductIDsKey).Err()
}
