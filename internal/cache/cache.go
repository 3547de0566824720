package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value to the cache with the specified expiration
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix
	DeleteByPrefix(ctx context.Context, prefix string)

	// Flush removes all items from the cache
	Flush(ctx context.Context)
}

// Cache key prefixes per entity type
const (
	PrefixPlan  = "plan:v1:"
	PrefixQuota = "quota:v1:"
)

// QuotaKey builds the cache key for an organization's derived quota limits
// (daily email limit, max contacts). These depend on plan and seat count and
// must be dropped after every committed plan or seat change.
func QuotaKey(orgID string) string {
	return fmt.Sprintf("%s%s", PrefixQuota, orgID)
}

// PlanKey builds the cache key for a plan catalog row
func PlanKey(planID string) string {
	return fmt.Sprintf("%s%s", PrefixPlan, planID)
}
