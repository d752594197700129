package stock

import (
	"context"
	"fmt"
	"time"
)

// LevelCache caches derived stock levels. Satisfied by cache.RedisClient.
// Every ledger or reservation write for a pair must invalidate that pair's key.
type LevelCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func LevelCacheKey(merchantID, storeID, variantID string) string {
	return fmt.Sprintf("stocklevel:%s:%s:%s", merchantID, storeID, variantID)
}
