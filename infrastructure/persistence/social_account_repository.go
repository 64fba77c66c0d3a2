package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
)

// SocialAccountRepository persists platform credentials keyed by (user_id, platform).
type SocialAccountRepository struct{ db *sql.DB }

func NewSocialAccountRepository(db *sql.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

func (r *SocialAccountRepository) UpsertAccount(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	q := `INSERT INTO social_accounts (user_id, platform, account_id, access_token, refresh_token, expires_at, scopes, account_name, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			account_id=EXCLUDED.account_id,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			account_name=EXCLUDED.account_name,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, a.UserID, a.Platform, a.AccountID, a.AccessToken, a.RefreshToken, a.ExpiresAt, a.Scopes, a.AccountName, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return &model.StoreError{Op: "upsert_account", Err: err}
	}
	return nil
}

func (r *SocialAccountRepository) GetAccount(ctx context.Context, userID, platform string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, account_id, access_token, refresh_token, expires_at, scopes, account_name, created_at, updated_at FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, platform)
	a := &model.SocialAccount{}
	var exp sql.NullTime
	var name sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.AccountID, &a.AccessToken, &a.RefreshToken, &exp, &a.Scopes, &name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &model.StoreError{Op: "get_account", Err: err}
	}
	if exp.Valid {
		a.ExpiresAt = &exp.Time
	}
	if name.Valid {
		v := name.String
		a.AccountName = &v
	}
	return a, nil
}
