package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/usecase"
)

func publishedMedia(campaignID, platform, creatorID, externalID string) *model.MediaPublication {
	return &model.MediaPublication{
		CampaignID:      campaignID,
		Platform:        platform,
		CreatorID:       creatorID,
		ExternalMediaID: externalID,
		Status:          model.PublishStatusPublished,
		VideoURL:        "https://cdn/v.mp4",
	}
}

func newInsightsUsecase(platform *fakePlatform, accounts *fakeAccountStore, media *fakeMediaStore, snapshots *fakeSnapshotStore, opts usecase.SyncOptions) usecase.IInsightsUsecase {
	return usecase.NewInsightsUsecase(adapterMap(platform), accounts, media, snapshots, nil, nil, opts)
}

func TestSyncEmptyCampaignIsNothingToSync(t *testing.T) {
	platform := &fakePlatform{name: model.PlatformInstagram}
	u := newInsightsUsecase(platform, newFakeAccountStore(), &fakeMediaStore{}, newFakeSnapshotStore(), usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.True(t, res.NothingToSync)
	assert.Zero(t, res.Synced)
	assert.Empty(t, res.Errors)
}

func TestSyncDefaultsMissingMetricsToZero(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "media-42")))
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			return map[string]int64{"likes": 120, "views": 4000}, nil
		},
	}
	snapshots := newFakeSnapshotStore()
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformInstagram)), media, snapshots, usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.False(t, res.NothingToSync)

	snap := snapshots.get("camp-1", "media-42")
	require.NotNil(t, snap)
	assert.Equal(t, int64(120), snap.Likes)
	assert.Equal(t, int64(4000), snap.Views)
	assert.Zero(t, snap.Saves)
	assert.Zero(t, snap.Shares)
	assert.Zero(t, snap.Reach)
}

func TestSyncToleratesPerItemFailure(t *testing.T) {
	media := &fakeMediaStore{}
	for _, id := range []string{"m-1", "m-2", "m-3"} {
		require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformTikTok, "creator-1", id)))
	}
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			if externalMediaID == "m-2" {
				return nil, model.NewMalformedResponseError("insights_fetch", model.PlatformTikTok, assert.AnError)
			}
			return map[string]int64{"views": 10}, nil
		},
	}
	snapshots := newFakeSnapshotStore()
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformTikTok)), media, snapshots, usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformTikTok})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "m-2", res.Errors[0].ExternalMediaID)
	assert.Nil(t, snapshots.get("camp-1", "m-2"))
	assert.NotNil(t, snapshots.get("camp-1", "m-1"))
}

func TestSyncSkipsUnpublishedItems(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformTikTok, "creator-1", "m-1")))
	pending := publishedMedia("camp-1", model.PlatformTikTok, "creator-1", "m-2")
	pending.Status = model.PublishStatusProcessing
	require.NoError(t, media.UpsertMedia(context.Background(), pending))
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			return map[string]int64{"views": 10}, nil
		},
	}
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformTikTok)), media, newFakeSnapshotStore(), usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformTikTok})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Skipped)
}

func TestSyncUsesEachItemsOwnCredential(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "m-1")))
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-2", "m-2")))

	accountA := connectedAccount("creator-1", model.PlatformInstagram)
	accountA.AccessToken = "token-a"
	accountB := connectedAccount("creator-2", model.PlatformInstagram)
	accountB.AccessToken = "token-b"

	var mu sync.Mutex
	tokensSeen := map[string]string{}
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			mu.Lock()
			tokensSeen[externalMediaID] = account.AccessToken
			mu.Unlock()
			return map[string]int64{}, nil
		},
	}
	u := newInsightsUsecase(platform, newFakeAccountStore(accountA, accountB), media, newFakeSnapshotStore(), usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, "token-a", tokensSeen["m-1"])
	assert.Equal(t, "token-b", tokensSeen["m-2"])
}

func TestSyncDisconnectedCreatorIsItemError(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "m-1")))
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "ghost", "m-2")))
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			return map[string]int64{"likes": 1}, nil
		},
	}
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformInstagram)), media, newFakeSnapshotStore(), usecase.SyncOptions{})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "m-2", res.Errors[0].ExternalMediaID)
}

func TestSyncRetriesTransientFailures(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformTikTok, "creator-1", "m-1")))

	var mu sync.Mutex
	attempts := 0
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts == 1 {
				return nil, model.NewInsightsFetchError(model.PlatformTikTok, 500, "upstream hiccup", nil)
			}
			return map[string]int64{"views": 10}, nil
		},
	}
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformTikTok)), media, newFakeSnapshotStore(), usecase.SyncOptions{RetryAttempts: 2})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformTikTok})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 2, attempts)
}

func TestSyncPermanentFailureIsNotRetried(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformTikTok, "creator-1", "m-1")))

	var mu sync.Mutex
	attempts := 0
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			return nil, model.NewInsightsFetchError(model.PlatformTikTok, 403, "forbidden", nil)
		},
	}
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformTikTok)), media, newFakeSnapshotStore(), usecase.SyncOptions{RetryAttempts: 3})

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformTikTok})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, attempts)
}

func TestSyncReturnsCachedResultInsideTTL(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "m-1")))

	var mu sync.Mutex
	fetches := 0
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			mu.Lock()
			defer mu.Unlock()
			fetches++
			return map[string]int64{"likes": 5}, nil
		},
	}
	results := newFakeSyncCache()
	u := usecase.NewInsightsUsecase(adapterMap(platform), newFakeAccountStore(connectedAccount("creator-1", model.PlatformInstagram)), media, newFakeSnapshotStore(), results, nil, usecase.SyncOptions{CacheTTL: time.Minute})

	first, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Synced)
	assert.Equal(t, 1, fetches)

	second, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, results.sets)
}

func TestSyncForceBypassesCachedResult(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "m-1")))

	var mu sync.Mutex
	fetches := 0
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			mu.Lock()
			defer mu.Unlock()
			fetches++
			return map[string]int64{"likes": int64(fetches)}, nil
		},
	}
	results := newFakeSyncCache()
	snapshots := newFakeSnapshotStore()
	u := usecase.NewInsightsUsecase(adapterMap(platform), newFakeAccountStore(connectedAccount("creator-1", model.PlatformInstagram)), media, snapshots, results, nil, usecase.SyncOptions{CacheTTL: time.Minute})

	_, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
	require.NoError(t, err)
	require.Equal(t, 1, fetches)

	res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 2, fetches)
	assert.Equal(t, 2, results.sets)

	// The forced pass landed the latest upstream values.
	snap := snapshots.get("camp-1", "m-1")
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Likes)
}

func TestSyncIsIdempotent(t *testing.T) {
	media := &fakeMediaStore{}
	require.NoError(t, media.UpsertMedia(context.Background(), publishedMedia("camp-1", model.PlatformInstagram, "creator-1", "m-1")))
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		insightsFn: func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
			return map[string]int64{"likes": 5}, nil
		},
	}
	snapshots := newFakeSnapshotStore()
	u := newInsightsUsecase(platform, newFakeAccountStore(connectedAccount("creator-1", model.PlatformInstagram)), media, snapshots, usecase.SyncOptions{})

	for i := 0; i < 2; i++ {
		res, err := u.Sync(context.Background(), &dto.SyncRequest{CampaignID: "camp-1", Platform: model.PlatformInstagram})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Synced)
	}
	// Re-syncs overwrite the single snapshot row rather than piling up.
	list, err := snapshots.ListSnapshotsByCampaign(context.Background(), "camp-1", model.PlatformInstagram)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, snapshots.upserts)
}
