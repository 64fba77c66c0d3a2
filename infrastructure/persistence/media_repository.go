package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
)

// MediaPublicationRepository persists publish records per campaign using PostgreSQL.
type MediaPublicationRepository struct{ db *sql.DB }

func NewMediaPublicationRepository(db *sql.DB) *MediaPublicationRepository {
	return &MediaPublicationRepository{db: db}
}

const mediaColumns = `id, campaign_id, platform, creator_id, external_media_id, publish_id, status, video_url, caption, permalink, thumbnail_url, error_message, created_at, updated_at`

func (r *MediaPublicationRepository) UpsertMedia(ctx context.Context, m *model.MediaPublication) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	// Status on conflict keeps the further-along value so a replayed submission
	// never drags a published row backwards.
	q := `INSERT INTO media_publications (campaign_id, platform, creator_id, external_media_id, publish_id, status, video_url, caption, permalink, thumbnail_url, error_message, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		  ON CONFLICT (campaign_id, external_media_id) DO UPDATE SET
			publish_id=EXCLUDED.publish_id,
			status=CASE WHEN media_publications.status IN ('published','failed') THEN media_publications.status ELSE EXCLUDED.status END,
			permalink=COALESCE(EXCLUDED.permalink, media_publications.permalink),
			thumbnail_url=COALESCE(EXCLUDED.thumbnail_url, media_publications.thumbnail_url),
			error_message=EXCLUDED.error_message,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	row := r.db.QueryRowContext(ctx, q, m.CampaignID, m.Platform, m.CreatorID, m.ExternalMediaID, m.PublishID, m.Status, m.VideoURL, m.Caption, m.Permalink, m.ThumbnailURL, m.ErrorMessage, m.CreatedAt, m.UpdatedAt)
	if err := row.Scan(&m.ID); err != nil {
		return &model.StoreError{Op: "upsert_media", Err: err}
	}
	return nil
}

func (r *MediaPublicationRepository) ListMediaByCampaignAndPlatform(ctx context.Context, campaignID, platform string) ([]*model.MediaPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media_publications WHERE campaign_id=$1 AND platform=$2 ORDER BY created_at ASC`, campaignID, platform)
	if err != nil {
		return nil, &model.StoreError{Op: "list_media", Err: err}
	}
	defer rows.Close()
	var list []*model.MediaPublication
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, &model.StoreError{Op: "list_media", Err: err}
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MediaPublicationRepository) GetMediaByExternalID(ctx context.Context, campaignID, externalMediaID string) (*model.MediaPublication, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media_publications WHERE campaign_id=$1 AND external_media_id=$2`, campaignID, externalMediaID)
	m, err := scanMedia(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &model.StoreError{Op: "get_media", Err: err}
	}
	return m, nil
}

// UpdateMediaStatus advances the status; terminal rows are left untouched so
// transitions stay monotonic even with concurrent pollers.
func (r *MediaPublicationRepository) UpdateMediaStatus(ctx context.Context, id int64, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE media_publications SET status=$1, error_message=$2, updated_at=$3 WHERE id=$4 AND status NOT IN ('published','failed')`,
		status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return &model.StoreError{Op: "update_media_status", Err: err}
	}
	return nil
}

func (r *MediaPublicationRepository) UpdateMediaEnrichment(ctx context.Context, id int64, permalink, thumbnailURL *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE media_publications SET permalink=COALESCE($1, permalink), thumbnail_url=COALESCE($2, thumbnail_url), updated_at=$3 WHERE id=$4`,
		permalink, thumbnailURL, time.Now().UTC(), id)
	if err != nil {
		return &model.StoreError{Op: "update_media_enrichment", Err: err}
	}
	return nil
}

func (r *MediaPublicationRepository) SetMediaExternalID(ctx context.Context, id int64, externalMediaID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE media_publications SET external_media_id=$1, updated_at=$2 WHERE id=$3`,
		externalMediaID, time.Now().UTC(), id)
	if err != nil {
		return &model.StoreError{Op: "set_media_external_id", Err: err}
	}
	return nil
}

func (r *MediaPublicationRepository) ListProcessing(ctx context.Context, limit int) ([]*model.MediaPublication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media_publications WHERE status IN ('pending','processing') ORDER BY updated_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, &model.StoreError{Op: "list_processing", Err: err}
	}
	defer rows.Close()
	var list []*model.MediaPublication
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, &model.StoreError{Op: "list_processing", Err: err}
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanMedia(row rowScanner) (*model.MediaPublication, error) {
	m := &model.MediaPublication{}
	var publishID, permalink, thumbnail, errMsg sql.NullString
	if err := row.Scan(&m.ID, &m.CampaignID, &m.Platform, &m.CreatorID, &m.ExternalMediaID, &publishID, &m.Status, &m.VideoURL, &m.Caption, &permalink, &thumbnail, &errMsg, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if publishID.Valid {
		v := publishID.String
		m.PublishID = &v
	}
	if permalink.Valid {
		v := permalink.String
		m.Permalink = &v
	}
	if thumbnail.Valid {
		v := thumbnail.String
		m.ThumbnailURL = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		m.ErrorMessage = &v
	}
	return m, nil
}
