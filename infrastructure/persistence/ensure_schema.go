package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSocialSchema creates the integration tables when missing and applies
// newer columns conditionally. Safe to call at startup.
func EnsureSocialSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS social_accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			account_id TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			account_name TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform)
		)`,
		`CREATE TABLE IF NOT EXISTS media_publications (
			id BIGSERIAL PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			external_media_id TEXT NOT NULL,
			publish_id TEXT,
			status TEXT NOT NULL,
			video_url TEXT NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			permalink TEXT,
			thumbnail_url TEXT,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (campaign_id, external_media_id)
		)`,
		`CREATE TABLE IF NOT EXISTS insight_snapshots (
			id BIGSERIAL PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			external_media_id TEXT NOT NULL,
			likes BIGINT NOT NULL DEFAULT 0,
			comments BIGINT NOT NULL DEFAULT 0,
			views BIGINT NOT NULL DEFAULT 0,
			reach BIGINT NOT NULL DEFAULT 0,
			impressions BIGINT NOT NULL DEFAULT 0,
			saves BIGINT NOT NULL DEFAULT 0,
			shares BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (campaign_id, external_media_id)
		)`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensuring social schema failed: %w", err)
		}
	}

	// Columns added after the initial schema shipped.
	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"media_publications", "thumbnail_url", "ALTER TABLE media_publications ADD COLUMN thumbnail_url TEXT"},
		{"social_accounts", "account_name", "ALTER TABLE social_accounts ADD COLUMN account_name TEXT"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
