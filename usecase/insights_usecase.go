package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/pubsub"
	"creator-hub/infrastructure/utils"
)

const retryBaseDelay = 500 * time.Millisecond

type IInsightsUsecase interface {
	Sync(ctx context.Context, req *dto.SyncRequest) (*dto.SyncResult, error)
}

// SyncOptions tune one engine instance; zero values fall back to safe defaults.
type SyncOptions struct {
	MaxConcurrency int
	RetryAttempts  int
	CacheTTL       time.Duration
	Topic          string
}

type insightsUsecase struct {
	adapters  map[string]repository.ISocialPlatform
	resolver  *accountResolver
	media     repository.IMediaPublication
	snapshots repository.IInsightSnapshot
	results   cache.ISyncResultCache // optional
	events    pubsub.ISyncPubSub     // optional
	opts      SyncOptions
}

func NewInsightsUsecase(
	adapters map[string]repository.ISocialPlatform,
	accounts repository.ISocialAccount,
	media repository.IMediaPublication,
	snapshots repository.IInsightSnapshot,
	results cache.ISyncResultCache,
	events pubsub.ISyncPubSub,
	opts SyncOptions,
) IInsightsUsecase {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	return &insightsUsecase{
		adapters:  adapters,
		resolver:  newAccountResolver(accounts),
		media:     media,
		snapshots: snapshots,
		results:   results,
		events:    events,
		opts:      opts,
	}
}

// Sync refreshes the insight snapshot of every published media item in the
// campaign. One item failing never aborts the pass: its error is recorded and
// the rest proceed. A campaign with no publications is a distinct, successful
// "nothing to sync" outcome. A result cached inside the TTL is returned as-is
// unless the request sets Force.
func (u *insightsUsecase) Sync(ctx context.Context, req *dto.SyncRequest) (*dto.SyncResult, error) {
	adapter, ok := u.adapters[req.Platform]
	if !ok {
		return nil, errors.New("unsupported platform: " + req.Platform)
	}

	if !req.Force && u.results != nil {
		if cached, err := u.results.Get(ctx, req.CampaignID, req.Platform); err == nil && cached != nil {
			return cached, nil
		}
	}

	list, err := u.media.ListMediaByCampaignAndPlatform(ctx, req.CampaignID, req.Platform)
	if err != nil {
		return nil, err
	}
	result := &dto.SyncResult{CampaignID: req.CampaignID, Platform: req.Platform}
	if len(list) == 0 {
		result.NothingToSync = true
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.MaxConcurrency)
	for _, media := range list {
		if media.Status != model.PublishStatusPublished {
			result.Skipped++
			continue
		}
		media := media
		g.Go(func() error {
			if err := u.syncOne(gctx, adapter, media); err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, dto.SyncItemError{ExternalMediaID: media.ExternalMediaID, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Synced++
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only trips on context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if u.results != nil && u.opts.CacheTTL > 0 {
		if err := u.results.Set(ctx, result, u.opts.CacheTTL); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Sync result cache write failed")
		}
	}
	u.publishEvent(ctx, result)
	return result, nil
}

// syncOne fetches metrics for one media item with its owner's credential and
// overwrites the snapshot. Metrics the platform omits are written as zero.
func (u *insightsUsecase) syncOne(ctx context.Context, adapter repository.ISocialPlatform, media *model.MediaPublication) error {
	account, err := u.resolver.Fresh(ctx, adapter, media.CreatorID)
	if err != nil {
		return err
	}
	var metrics map[string]int64
	err = withRetry(ctx, u.opts.RetryAttempts, func() error {
		var ferr error
		metrics, ferr = adapter.FetchInsights(ctx, account, media.ExternalMediaID)
		return ferr
	})
	if err != nil {
		return err
	}
	snap := &model.InsightSnapshot{
		CampaignID:      media.CampaignID,
		Platform:        media.Platform,
		ExternalMediaID: media.ExternalMediaID,
		Likes:           metrics["likes"],
		Comments:        metrics["comments"],
		Views:           metrics["views"],
		Reach:           metrics["reach"],
		Impressions:     metrics["impressions"],
		Saves:           metrics["saves"],
		Shares:          metrics["shares"],
		UpdatedAt:       utils.GetCurrentTime(),
	}
	return u.snapshots.UpsertSnapshot(ctx, snap)
}

func (u *insightsUsecase) publishEvent(ctx context.Context, result *dto.SyncResult) {
	if u.events == nil || u.opts.Topic == "" {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if _, err := u.events.Publish(ctx, u.opts.Topic, payload); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Sync event publish failed")
	}
}

// withRetry runs fn up to attempts times with doubling delays, stopping early
// on permanent errors or context cancellation.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	delay := retryBaseDelay
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !model.IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
