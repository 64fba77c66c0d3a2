package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"creator-hub/domain/model"
)

type SocialAccountRepositoryMSSQL struct{ db *sql.DB }

func NewSocialAccountRepositoryMSSQL(db *sql.DB) *SocialAccountRepositoryMSSQL {
	return &SocialAccountRepositoryMSSQL{db: db}
}

// EnsureSocialAccountSchemaMSSQL creates the social_accounts table for SQL Server if it does not exist.
func EnsureSocialAccountSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_accounts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        account_id NVARCHAR(255) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NOT NULL,
        account_name NVARCHAR(255) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_user_platform ON dbo.[social_accounts](user_id, platform);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create social_accounts (mssql): %w", err)
	}
	return nil
}

func (r *SocialAccountRepositoryMSSQL) UpsertAccount(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	var exp sql.NullTime
	if a.ExpiresAt != nil {
		exp.Valid = true
		exp.Time = *a.ExpiresAt
	}
	var name sql.NullString
	if a.AccountName != nil {
		name.Valid = true
		name.String = *a.AccountName
	}
	// MERGE upsert by (user_id, platform)
	q := `MERGE dbo.[social_accounts] AS target
USING (VALUES (@p1, @p2)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    account_id=@p3,
    access_token=@p4,
    refresh_token=@p5,
    expires_at=@p6,
    scopes=@p7,
    account_name=@p8,
    updated_at=@p10
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, account_id, access_token, refresh_token, expires_at, scopes, account_name, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10);`
	_, err := r.db.ExecContext(ctx, q,
		a.UserID, a.Platform,
		a.AccountID,
		a.AccessToken,
		a.RefreshToken,
		exp,
		a.Scopes,
		name,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return &model.StoreError{Op: "upsert_account", Err: err}
	}
	return nil
}

func (r *SocialAccountRepositoryMSSQL) GetAccount(ctx context.Context, userID, platform string) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, account_id, access_token, refresh_token, expires_at, scopes, account_name, created_at, updated_at FROM dbo.[social_accounts] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
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
