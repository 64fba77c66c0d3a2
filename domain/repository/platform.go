package repository

import (
	"context"

	"creator-hub/domain/model"
)

// PlatformToken is the outcome of a code exchange or a refresh.
type PlatformToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds; 0 means the platform reported no expiry
	Scopes       string
}

// PublishOptions carries platform-specific publish knobs.
type PublishOptions struct {
	IsReel bool // Instagram: REELS vs VIDEO container
}

// PublishHandle is the opaque reference returned by InitiatePublish. For
// Instagram the media id is known immediately; for TikTok only the publish id
// is, and the media id arrives with a later poll.
type PublishHandle struct {
	Platform        string
	ExternalMediaID string
	PublishID       string
	Status          string // model.PublishStatus* value reported at submission
}

// PublishStatusResult is one poll outcome. An empty Status means the platform
// gave no definitive answer and local state must not be advanced.
type PublishStatusResult struct {
	Status          string
	ExternalMediaID string
	Permalink       string
	ThumbnailURL    string
	FailReason      string
}

// PlatformAccount identifies the platform-side account a credential attaches to.
type PlatformAccount struct {
	ID   string
	Name string
}

// ISocialPlatform is the per-platform adapter: OAuth exchange, the publish
// protocol, and the insights protocol behind one capability set.
type ISocialPlatform interface {
	Name() string

	// AuthCodeURL builds the authorization URL carrying the given state.
	AuthCodeURL(state string) string

	// ExchangeAuthCode trades an authorization code for tokens. Platforms with
	// a short-lived/long-lived split (Instagram) run the upgrade internally;
	// callers see a single success-or-failure outcome.
	ExchangeAuthCode(ctx context.Context, code string) (*PlatformToken, error)

	// SupportsRefresh reports whether RefreshToken is usable for this platform.
	SupportsRefresh() bool
	RefreshToken(ctx context.Context, refreshToken string) (*PlatformToken, error)

	// ResolveAccount looks up the platform account the credential should attach
	// to (e.g. the connected Instagram business account).
	ResolveAccount(ctx context.Context, accessToken string) (*PlatformAccount, error)

	InitiatePublish(ctx context.Context, account *model.SocialAccount, videoURL, caption string, opts PublishOptions) (*PublishHandle, error)

	// PollPublishStatus is idempotent and callable repeatedly.
	PollPublishStatus(ctx context.Context, account *model.SocialAccount, handle *PublishHandle) (*PublishStatusResult, error)

	// FetchInsights returns metric name -> value. Metrics missing from the
	// platform response are simply absent; callers default them to zero.
	FetchInsights(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error)
}
