package usecase

import (
	"context"
	"errors"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/utils"
)

type IOAuthUsecase interface {
	AuthorizeURL(ctx context.Context, platform, userID string) (string, error)
	HandleCallback(ctx context.Context, platform, code, state string) (*model.SocialAccount, error)
	AccountStatus(ctx context.Context, userID string) (map[string]*model.SocialAccount, error)
}

type oauthUsecase struct {
	adapters  map[string]repository.ISocialPlatform
	accounts  repository.ISocialAccount
	secretKey string
	now       func() time.Time
}

func NewOAuthUsecase(adapters map[string]repository.ISocialPlatform, accounts repository.ISocialAccount, secretKey string) IOAuthUsecase {
	return &oauthUsecase{adapters: adapters, accounts: accounts, secretKey: secretKey, now: utils.GetCurrentTime}
}

// AuthorizeURL starts the connect flow. The state parameter is a signed token
// carrying the initiating user's id.
func (u *oauthUsecase) AuthorizeURL(ctx context.Context, platform, userID string) (string, error) {
	adapter, ok := u.adapters[platform]
	if !ok {
		return "", errors.New("unsupported platform: " + platform)
	}
	state, err := utils.SignState(userID, platform, u.secretKey)
	if err != nil {
		return "", err
	}
	return adapter.AuthCodeURL(state), nil
}

// HandleCallback completes the connect flow: validate state, exchange the
// code, resolve the platform account, and only then commit the credential.
// Any step failing leaves the stored credential untouched.
func (u *oauthUsecase) HandleCallback(ctx context.Context, platform, code, state string) (*model.SocialAccount, error) {
	adapter, ok := u.adapters[platform]
	if !ok {
		return nil, errors.New("unsupported platform: " + platform)
	}
	userID, err := utils.ParseState(state, platform, u.secretKey)
	if err != nil {
		return nil, err
	}

	token, err := adapter.ExchangeAuthCode(ctx, code)
	if err != nil {
		return nil, err
	}
	platformAccount, err := adapter.ResolveAccount(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	account := &model.SocialAccount{
		UserID:       userID,
		Platform:     platform,
		AccountID:    platformAccount.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scopes:       token.Scopes,
	}
	if platformAccount.Name != "" {
		name := platformAccount.Name
		account.AccountName = &name
	}
	if token.ExpiresIn > 0 {
		expiresAt := u.now().Add(time.Duration(token.ExpiresIn) * time.Second)
		account.ExpiresAt = &expiresAt
	}
	if err := u.accounts.UpsertAccount(ctx, account); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("platform", platform).
		WithField("user_id", userID).
		WithField("account_id", platformAccount.ID).
		Info("Social account connected")
	return account, nil
}

// AccountStatus reports each supported platform's connection for the user;
// platforms with no stored credential map to nil.
func (u *oauthUsecase) AccountStatus(ctx context.Context, userID string) (map[string]*model.SocialAccount, error) {
	out := make(map[string]*model.SocialAccount, len(u.adapters))
	for name := range u.adapters {
		account, err := u.accounts.GetAccount(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		out[name] = account
	}
	return out, nil
}
