package model

import "time"

// Platform identifiers supported by the integration layer.
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// Publish statuses for a MediaPublication. Transitions are monotonic:
// pending -> processing -> published | failed.
const (
	PublishStatusPending    = "pending"
	PublishStatusProcessing = "processing"
	PublishStatusPublished  = "published"
	PublishStatusFailed     = "failed"
)

// SocialAccount stores platform OAuth credentials per user.
// At most one row exists per (user_id, platform); re-auth overwrites token fields.
type SocialAccount struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Platform        string     `json:"platform"`
	AccountID       string     `json:"account_id"`
	AccessToken     string     `json:"access_token"`
	RefreshToken    string     `json:"refresh_token"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Scopes          string     `json:"scopes"`
	AccountName     *string    `json:"account_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Expired reports whether the access token is past its expiry (with a small
// safety margin so we never start a publish with seconds left on the clock).
func (a *SocialAccount) Expired(now time.Time) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return !now.Add(2 * time.Minute).Before(*a.ExpiresAt)
}

// MediaPublication is one piece of content pushed to a platform on behalf of a
// campaign creator. The external media id is assigned by the platform and is
// unique once set.
type MediaPublication struct {
	ID              int64      `json:"id"`
	CampaignID      string     `json:"campaign_id"`
	Platform        string     `json:"platform"`
	CreatorID       string     `json:"creator_id"`
	ExternalMediaID string     `json:"external_media_id"`
	PublishID       *string    `json:"publish_id,omitempty"` // platform-side handle for async publishes (TikTok)
	Status          string     `json:"status"`
	VideoURL        string     `json:"video_url"`
	Caption         string     `json:"caption"`
	Permalink       *string    `json:"permalink,omitempty"`
	ThumbnailURL    *string    `json:"thumbnail_url,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// InsightSnapshot is the latest known engagement metrics for one media item.
// One current row per (campaign_id, external_media_id); each sync overwrites.
type InsightSnapshot struct {
	ID              int64     `json:"id"`
	CampaignID      string    `json:"campaign_id"`
	Platform        string    `json:"platform"`
	ExternalMediaID string    `json:"external_media_id"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`
	Views           int64     `json:"views"`
	Reach           int64     `json:"reach"`
	Impressions     int64     `json:"impressions"`
	Saves           int64     `json:"saves"`
	Shares          int64     `json:"shares"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PublishAudit is an append-only log entry recording a publish attempt or a
// status transition (stored in Mongo when available).
type PublishAudit struct {
	PublicationID int64     `json:"publication_id" bson:"publication_id"`
	CampaignID    string    `json:"campaign_id" bson:"campaign_id"`
	Platform      string    `json:"platform" bson:"platform"`
	CreatorID     string    `json:"creator_id" bson:"creator_id"`
	Status        string    `json:"status" bson:"status"`
	ErrorMessage  *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// StatusRank orders publish statuses so callers can enforce monotonic
// transitions; a transition to an equal or lower rank is ignored.
func StatusRank(status string) int {
	switch status {
	case PublishStatusPending:
		return 0
	case PublishStatusProcessing:
		return 1
	case PublishStatusPublished, PublishStatusFailed:
		return 2
	default:
		return -1
	}
}
