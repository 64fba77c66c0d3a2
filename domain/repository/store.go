package repository

import (
	"context"

	"creator-hub/domain/model"
)

// ISocialAccount is the credential store: one row per (user_id, platform).
type ISocialAccount interface {
	GetAccount(ctx context.Context, userID, platform string) (*model.SocialAccount, error)
	UpsertAccount(ctx context.Context, account *model.SocialAccount) error
}

// IMediaPublication persists publish records per campaign.
type IMediaPublication interface {
	ListMediaByCampaignAndPlatform(ctx context.Context, campaignID, platform string) ([]*model.MediaPublication, error)
	GetMediaByExternalID(ctx context.Context, campaignID, externalMediaID string) (*model.MediaPublication, error)
	UpsertMedia(ctx context.Context, media *model.MediaPublication) error
	// UpdateMediaStatus advances a publication's status. Implementations guard
	// against backward transitions (published rows never go back to pending).
	UpdateMediaStatus(ctx context.Context, id int64, status string, errMsg *string) error
	UpdateMediaEnrichment(ctx context.Context, id int64, permalink, thumbnailURL *string) error
	// SetMediaExternalID records the platform-assigned media id once an async
	// publish completes (until then the row carries the publish handle).
	SetMediaExternalID(ctx context.Context, id int64, externalMediaID string) error
	ListProcessing(ctx context.Context, limit int) ([]*model.MediaPublication, error)
}

// IInsightSnapshot persists the point-in-time metrics cache, upsert-only.
type IInsightSnapshot interface {
	UpsertSnapshot(ctx context.Context, snap *model.InsightSnapshot) error
	ListSnapshotsByCampaign(ctx context.Context, campaignID, platform string) ([]*model.InsightSnapshot, error)
}

// IPublishAudit appends publish lifecycle entries; implementations may be
// no-ops when the audit sink is unavailable.
type IPublishAudit interface {
	Append(ctx context.Context, entries []*model.PublishAudit) error
}
