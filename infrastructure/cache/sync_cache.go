package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"creator-hub/domain/dto"

	"github.com/redis/go-redis/v9"
)

type ISyncResultCache interface {
	Get(ctx context.Context, campaignID, platform string) (*dto.SyncResult, error)
	Set(ctx context.Context, result *dto.SyncResult, ttl time.Duration) error
}

// SyncResultCache keeps the most recent insights sync result per
// (campaign, platform) with a TTL, so hosts hammering the sync endpoint
// don't hammer the platform APIs.
type SyncResultCache struct {
	client *redis.Client
}

func NewSyncResultCache(client *redis.Client) *SyncResultCache {
	return &SyncResultCache{client: client}
}

func syncKey(campaignID, platform string) string {
	return fmt.Sprintf("insights:sync:%s:%s", campaignID, platform)
}

// Get returns the cached result, or nil on miss or when Redis is unavailable.
func (c *SyncResultCache) Get(ctx context.Context, campaignID, platform string) (*dto.SyncResult, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, syncKey(campaignID, platform)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var res dto.SyncResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *SyncResultCache) Set(ctx context.Context, result *dto.SyncResult, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, syncKey(result.CampaignID, result.Platform), raw, ttl).Err()
}
