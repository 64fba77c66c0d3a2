package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
)

// Ensure interface compliance (compile-time)
var _ interface {
	UpsertSnapshot(context.Context, *model.InsightSnapshot) error
} = (*InsightSnapshotRepository)(nil)

// InsightSnapshotRepository keeps the latest metrics per (campaign, media id).
// The table is a point-in-time cache; every sync overwrites.
type InsightSnapshotRepository struct{ db *sql.DB }

func NewInsightSnapshotRepository(db *sql.DB) *InsightSnapshotRepository {
	return &InsightSnapshotRepository{db: db}
}

func (r *InsightSnapshotRepository) UpsertSnapshot(ctx context.Context, s *model.InsightSnapshot) error {
	s.UpdatedAt = time.Now().UTC()
	q := `INSERT INTO insight_snapshots (campaign_id, platform, external_media_id, likes, comments, views, reach, impressions, saves, shares, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		  ON CONFLICT (campaign_id, external_media_id) DO UPDATE SET
			likes=EXCLUDED.likes,
			comments=EXCLUDED.comments,
			views=EXCLUDED.views,
			reach=EXCLUDED.reach,
			impressions=EXCLUDED.impressions,
			saves=EXCLUDED.saves,
			shares=EXCLUDED.shares,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, s.CampaignID, s.Platform, s.ExternalMediaID, s.Likes, s.Comments, s.Views, s.Reach, s.Impressions, s.Saves, s.Shares, s.UpdatedAt)
	if err != nil {
		return &model.StoreError{Op: "upsert_snapshot", Err: err}
	}
	return nil
}

func (r *InsightSnapshotRepository) ListSnapshotsByCampaign(ctx context.Context, campaignID, platform string) ([]*model.InsightSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, campaign_id, platform, external_media_id, likes, comments, views, reach, impressions, saves, shares, updated_at FROM insight_snapshots WHERE campaign_id=$1 AND platform=$2`, campaignID, platform)
	if err != nil {
		return nil, &model.StoreError{Op: "list_snapshots", Err: err}
	}
	defer rows.Close()
	var list []*model.InsightSnapshot
	for rows.Next() {
		s := &model.InsightSnapshot{}
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Platform, &s.ExternalMediaID, &s.Likes, &s.Comments, &s.Views, &s.Reach, &s.Impressions, &s.Saves, &s.Shares, &s.UpdatedAt); err != nil {
			return nil, &model.StoreError{Op: "list_snapshots", Err: err}
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
