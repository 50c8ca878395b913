// internal/cache/cache.go
package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InvalidatorInterface drops a tenant's cached aggregates after a message
// write. The analytics layer owns the cache contents; our only obligation is
// the invalidation.
type InvalidatorInterface interface {
	InvalidateTenant(ctx context.Context, tenantID int64) error
}

type Invalidator struct {
	client *redis.Client
	logger *zap.Logger
}

const tenantKeyPattern = "inbox:tenant:%d:analytics:*"

func NewInvalidator(client *redis.Client, logger *zap.Logger) *Invalidator {
	return &Invalidator{client: client, logger: logger}
}

// InvalidateTenant removes every cached aggregate for the tenant. Missing
// keys are fine; a Redis outage is logged by the caller and never fails a
// message write.
func (i *Invalidator) InvalidateTenant(ctx context.Context, tenantID int64) error {
	pattern := fmt.Sprintf(tenantKeyPattern, tenantID)

	iter := i.client.Scan(ctx, 0, pattern, 0).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan tenant cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete tenant cache keys: %w", err)
	}

	i.logger.Debug("tenant cache invalidated",
		zap.Int64("tenant_id", tenantID),
		zap.Int("keys", len(keys)),
	)
	return nil
}

var _ InvalidatorInterface = (*Invalidator)(nil)
