package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/services/adjustment/internal/domain"
)

const activeCampaignsKey = "adjustment:campaigns:active"

// CampaignCache implements repository.CampaignCache using Redis. The active
// set is stored as one JSON document so readers never see a partial set.
type CampaignCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCampaignCache creates a new Redis-backed campaign cache.
func NewCampaignCache(client *redis.Client, ttl time.Duration) *CampaignCache {
	return &CampaignCache{
		client: client,
		ttl:    ttl,
	}
}

// GetActive returns the cached active campaigns. ok is false on a miss.
func (c *CampaignCache) GetActive(ctx context.Context) ([]domain.Campaign, bool, error) {
	data, err := c.client.Get(ctx, activeCampaignsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get active campaigns: %w", err)
	}

	var campaigns []domain.Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		return nil, false, fmt.Errorf("unmarshal active campaigns: %w", err)
	}
	return campaigns, true, nil
}

// SetActive stores the active campaigns with the configured TTL.
func (c *CampaignCache) SetActive(ctx context.Context, campaigns []domain.Campaign) error {
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	data, err := json.Marshal(campaigns)
	if err != nil {
		return fmt.Errorf("marshal active campaigns: %w", err)
	}

	if err := c.client.Set(ctx, activeCampaignsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set active campaigns: %w", err)
	}
	return nil
}

// Invalidate drops the cached set.
func (c *CampaignCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activeCampaignsKey).Err(); err != nil {
		return fmt.Errorf("redis del active campaigns: %w", err)
	}
	return nil
}
