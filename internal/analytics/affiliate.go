package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/zonlink/zonlink/internal/model"
)

// IncAffiliateClick counts one referral-link visit for an owner.
func (a *Aggregator) IncAffiliateClick(ctx context.Context, ownerID string) error {
	if !a.store.Enabled() || ownerID == "" {
		return nil
	}
	if err := a.store.Client().HIncrBy(ctx, affiliateKey(ownerID), "clicks", 1).Err(); err != nil {
		return fmt.Errorf("affiliate click increment: %w", err)
	}
	return nil
}

// RecordSale counts one confirmed sale and accumulates earnings for an
// owner. Driven by the external billing processor's activation event.
func (a *Aggregator) RecordSale(ctx context.Context, ownerID string, earnings float64) error {
	if !a.store.Enabled() || ownerID == "" {
		return nil
	}

	key := affiliateKey(ownerID)
	pipe := a.store.TxPipeline()
	pipe.HIncrBy(ctx, key, "sales", 1)
	pipe.HIncrByFloat(ctx, key, "earnings", earnings)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	return nil
}

// AffiliateStats reads the referral counters for one owner.
func (a *Aggregator) AffiliateStats(ctx context.Context, ownerID string) (*model.AffiliateStats, error) {
	stats := &model.AffiliateStats{OwnerID: ownerID}
	if !a.store.Enabled() || ownerID == "" {
		return stats, nil
	}

	fields, err := a.store.Client().HGetAll(ctx, affiliateKey(ownerID)).Result()
	if err != nil && err != redis.Nil {
		return stats, fmt.Errorf("fetch affiliate stats: %w", err)
	}

	if n, err := strconv.ParseInt(fields["clicks"], 10, 64); err == nil {
		stats.Clicks = n
	}
	if n, err := strconv.ParseInt(fields["sales"], 10, 64); err == nil {
		stats.Sales = n
	}
	if f, err := strconv.ParseFloat(fields["earnings"], 64); err == nil {
		stats.Earnings = f
	}

	return stats, nil
}
