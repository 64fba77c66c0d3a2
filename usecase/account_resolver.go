package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/utils"
)

// accountResolver loads a user's platform credential and guarantees it is
// usable before any platform call is made. Refreshes for the same
// (user, platform) pair are coalesced so concurrent publishes don't burn the
// rotating refresh token twice.
type accountResolver struct {
	accounts repository.ISocialAccount
	sf       singleflight.Group
	now      func() time.Time
}

func newAccountResolver(accounts repository.ISocialAccount) *accountResolver {
	return &accountResolver{accounts: accounts, now: utils.GetCurrentTime}
}

// Fresh returns a non-expired credential for (userID, adapter) or fails fast:
// no row -> NotConnectedError; expired without a refresh path ->
// CredentialExpiredError. Nothing platform-side happens until this succeeds.
func (r *accountResolver) Fresh(ctx context.Context, adapter repository.ISocialPlatform, userID string) (*model.SocialAccount, error) {
	account, err := r.accounts.GetAccount(ctx, userID, adapter.Name())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &model.NotConnectedError{Platform: adapter.Name(), UserID: userID}
	}
	if !account.Expired(r.now()) {
		return account, nil
	}
	if !adapter.SupportsRefresh() || account.RefreshToken == "" {
		return nil, &model.CredentialExpiredError{Platform: adapter.Name(), UserID: userID, Reason: "reauthorize_required"}
	}

	v, err, _ := r.sf.Do(userID+":"+adapter.Name(), func() (interface{}, error) {
		return r.refresh(ctx, adapter, account)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.SocialAccount), nil
}

func (r *accountResolver) refresh(ctx context.Context, adapter repository.ISocialPlatform, account *model.SocialAccount) (*model.SocialAccount, error) {
	token, err := adapter.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		logger.GetLogger().
			WithField("platform", adapter.Name()).
			WithField("user_id", account.UserID).
			WithField("error", err).
			Error("Token refresh failed")
		return nil, &model.CredentialExpiredError{Platform: adapter.Name(), UserID: account.UserID, Reason: "refresh_failed"}
	}
	account.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	if token.ExpiresIn > 0 {
		expiresAt := r.now().Add(time.Duration(token.ExpiresIn) * time.Second)
		account.ExpiresAt = &expiresAt
	} else {
		account.ExpiresAt = nil
	}
	if token.Scopes != "" {
		account.Scopes = token.Scopes
	}
	if err := r.accounts.UpsertAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
