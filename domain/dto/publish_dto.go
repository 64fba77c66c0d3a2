package dto

// PublishRequest is the body of POST /api/publish/:platform.
// The video URL must be publicly fetchable; the platform pulls the bytes itself.
type PublishRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	CreatorID  string `json:"creator_id" binding:"required"`
	VideoURL   string `json:"video_url" binding:"required"`
	Caption    string `json:"caption"`
	IsReel     bool   `json:"is_reel"`
}

// PublishResponse reports the stored publication after a publish attempt.
type PublishResponse struct {
	PublicationID   int64   `json:"publication_id"`
	Platform        string  `json:"platform"`
	ExternalMediaID string  `json:"external_media_id"`
	Status          string  `json:"status"`
	Permalink       *string `json:"permalink,omitempty"`
}

// PollRequest advances one PROCESSING publication via a platform status poll.
type PollRequest struct {
	CampaignID      string `json:"campaign_id" binding:"required"`
	ExternalMediaID string `json:"external_media_id" binding:"required"`
}
