package usecase_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/utils"
	"creator-hub/usecase"
)

const testSecret = "test-secret"

func TestAuthorizeURLCarriesSignedState(t *testing.T) {
	platform := &fakePlatform{name: model.PlatformInstagram}
	u := usecase.NewOAuthUsecase(adapterMap(platform), newFakeAccountStore(), testSecret)

	rawURL, err := u.AuthorizeURL(context.Background(), model.PlatformInstagram, "user-1")
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	userID, err := utils.ParseState(state, model.PlatformInstagram, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestHandleCallbackCommitsCredentialAtEnd(t *testing.T) {
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		exchangeFn: func(ctx context.Context, code string) (*repository.PlatformToken, error) {
			require.Equal(t, "auth-code", code)
			return &repository.PlatformToken{AccessToken: "act-1", RefreshToken: "rft-1", ExpiresIn: 86400, Scopes: "video.publish"}, nil
		},
		resolveFn: func(ctx context.Context, accessToken string) (*repository.PlatformAccount, error) {
			require.Equal(t, "act-1", accessToken)
			return &repository.PlatformAccount{ID: "open-1", Name: "Creator"}, nil
		},
	}
	accounts := newFakeAccountStore()
	u := usecase.NewOAuthUsecase(adapterMap(platform), accounts, testSecret)

	state, err := utils.SignState("user-1", model.PlatformTikTok, testSecret)
	require.NoError(t, err)

	account, err := u.HandleCallback(context.Background(), model.PlatformTikTok, "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, "user-1", account.UserID)
	assert.Equal(t, "open-1", account.AccountID)
	assert.Equal(t, "act-1", account.AccessToken)
	require.NotNil(t, account.ExpiresAt)
	require.NotNil(t, account.AccountName)
	assert.Equal(t, "Creator", *account.AccountName)

	stored, _ := accounts.GetAccount(context.Background(), "user-1", model.PlatformTikTok)
	require.NotNil(t, stored)
	assert.Equal(t, 1, accounts.upserts)
}

func TestHandleCallbackAccountResolutionFailureCommitsNothing(t *testing.T) {
	platform := &fakePlatform{
		name: model.PlatformInstagram,
		exchangeFn: func(ctx context.Context, code string) (*repository.PlatformToken, error) {
			return &repository.PlatformToken{AccessToken: "act-1"}, nil
		},
		// resolveFn unset: no business account reachable
	}
	accounts := newFakeAccountStore()
	u := usecase.NewOAuthUsecase(adapterMap(platform), accounts, testSecret)

	state, err := utils.SignState("user-1", model.PlatformInstagram, testSecret)
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), model.PlatformInstagram, "auth-code", state)
	require.Error(t, err)
	assert.Zero(t, accounts.upserts)
}

func TestHandleCallbackRejectsForeignState(t *testing.T) {
	platform := &fakePlatform{name: model.PlatformInstagram}
	u := usecase.NewOAuthUsecase(adapterMap(platform), newFakeAccountStore(), testSecret)

	state, err := utils.SignState("user-1", model.PlatformTikTok, testSecret)
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), model.PlatformInstagram, "auth-code", state)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "state"))
}

func TestHandleCallbackReauthOverwritesExisting(t *testing.T) {
	existing := connectedAccount("user-1", model.PlatformTikTok)
	existing.AccessToken = "stale-token"
	platform := &fakePlatform{
		name: model.PlatformTikTok,
		exchangeFn: func(ctx context.Context, code string) (*repository.PlatformToken, error) {
			return &repository.PlatformToken{AccessToken: "fresh-token", RefreshToken: "rft-2", ExpiresIn: 86400}, nil
		},
		resolveFn: func(ctx context.Context, accessToken string) (*repository.PlatformAccount, error) {
			return &repository.PlatformAccount{ID: "open-1"}, nil
		},
	}
	accounts := newFakeAccountStore(existing)
	u := usecase.NewOAuthUsecase(adapterMap(platform), accounts, testSecret)

	state, err := utils.SignState("user-1", model.PlatformTikTok, testSecret)
	require.NoError(t, err)

	_, err = u.HandleCallback(context.Background(), model.PlatformTikTok, "auth-code", state)
	require.NoError(t, err)

	stored, _ := accounts.GetAccount(context.Background(), "user-1", model.PlatformTikTok)
	assert.Equal(t, "fresh-token", stored.AccessToken)
}

func TestAccountStatusListsEveryPlatform(t *testing.T) {
	instagram := &fakePlatform{name: model.PlatformInstagram}
	tiktok := &fakePlatform{name: model.PlatformTikTok}
	accounts := newFakeAccountStore(connectedAccount("user-1", model.PlatformInstagram))
	u := usecase.NewOAuthUsecase(adapterMap(instagram, tiktok), accounts, testSecret)

	status, err := u.AccountStatus(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.NotNil(t, status[model.PlatformInstagram])
	assert.Nil(t, status[model.PlatformTikTok])
}
