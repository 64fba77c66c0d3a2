package dto

// SyncRequest is the body of POST /api/insights/sync. Force skips the cached
// result and always goes upstream.
type SyncRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	Platform   string `json:"platform" binding:"required"`
	Force      bool   `json:"force"`
}

// SyncItemError records one media item the sync pass could not refresh.
type SyncItemError struct {
	ExternalMediaID string `json:"external_media_id"`
	Error           string `json:"error"`
}

// SyncResult summarizes one insights sync pass. NothingToSync distinguishes an
// empty campaign from a failed pass.
type SyncResult struct {
	CampaignID    string          `json:"campaign_id"`
	Platform      string          `json:"platform"`
	Synced        int             `json:"synced"`
	Skipped       int             `json:"skipped"`
	NothingToSync bool            `json:"nothing_to_sync"`
	Errors        []SyncItemError `json:"errors,omitempty"`
}
