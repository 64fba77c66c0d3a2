package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"

	"golang.org/x/oauth2"
)

const (
	defaultAPIURL       = "https://open.tiktokapis.com"
	defaultAuthorizeURL = "https://www.tiktok.com/v2/auth/authorize/"

	oauthScopes = "user.info.basic,video.publish,video.list"
)

// Publish status values TikTok reports from status/fetch.
const (
	statusComplete = "PUBLISH_COMPLETE"
	statusFailed   = "FAILED"
)

// Client implements the TikTok content posting side of the platform capability
// set. Publishing is asynchronous: init yields a publish_id and the video id
// only becomes known once a later status poll reports PUBLISH_COMPLETE.
type Client struct {
	clientKey    string
	clientSecret string
	redirectURI  string
	apiURL       string
	oauthCfg     *oauth2.Config
	httpClient   *http.Client
}

func NewClient(cfg configuration.PlatformClient, timeout time.Duration) repository.ISocialPlatform {
	apiURL := defaultAPIURL
	authorizeURL := defaultAuthorizeURL
	if cfg.BaseURL != "" {
		apiURL = strings.TrimRight(cfg.BaseURL, "/")
		authorizeURL = apiURL + "/v2/auth/authorize/"
	}
	return &Client{
		clientKey:    cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		apiURL:       apiURL,
		oauthCfg: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      strings.Split(oauthScopes, ","),
			Endpoint: oauth2.Endpoint{
				AuthURL:  authorizeURL,
				TokenURL: apiURL + "/v2/oauth/token/",
			},
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return model.PlatformTikTok }

// AuthCodeURL builds the authorization URL. TikTok names the client identifier
// "client_key" rather than the standard "client_id".
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state, oauth2.SetAuthURLParam("client_key", c.clientKey))
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) ExchangeAuthCode(ctx context.Context, code string) (*repository.PlatformToken, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.redirectURI)
	return c.tokenRequest(ctx, form)
}

func (c *Client) SupportsRefresh() bool { return true }

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*repository.PlatformToken, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*repository.PlatformToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthCfg.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, model.NewAuthExchangeError(c.Name(), 0, "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, status, err := c.do(req)
	if err != nil {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), nil)
	}
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), err)
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), fmt.Errorf("token error: %s %s", tok.Error, tok.ErrorDescription))
	}
	return &repository.PlatformToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Scopes:       tok.Scope,
	}, nil
}

// apiError is the envelope every open.tiktokapis.com response carries; a code
// other than "ok" means the request failed even on HTTP 200.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func (e apiError) failed() bool { return e.Code != "" && e.Code != "ok" }

func (c *Client) ResolveAccount(ctx context.Context, accessToken string) (*repository.PlatformAccount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v2/user/info/?fields=open_id,display_name", nil)
	if err != nil {
		return nil, model.NewAuthExchangeError(c.Name(), 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	body, status, err := c.do(req)
	if err != nil || status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	var payload struct {
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), err)
	}
	if payload.Error.failed() || payload.Data.User.OpenID == "" {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), fmt.Errorf("user info error: %s", payload.Error.Message))
	}
	return &repository.PlatformAccount{ID: payload.Data.User.OpenID, Name: payload.Data.User.DisplayName}, nil
}

// InitiatePublish submits a pull-from-URL video post. TikTok ingests the video
// asynchronously, so the handle carries the publish_id and a processing status;
// the caller is expected to poll.
func (c *Client) InitiatePublish(ctx context.Context, account *model.SocialAccount, videoURL, caption string, opts repository.PublishOptions) (*repository.PublishHandle, error) {
	reqBody := map[string]any{
		"post_info": map[string]any{
			"title":         caption,
			"privacy_level": "PUBLIC_TO_EVERYONE",
		},
		"source_info": map[string]any{
			"source":    "PULL_FROM_URL",
			"video_url": videoURL,
		},
	}
	body, status, err := c.postJSON(ctx, account.AccessToken, c.apiURL+"/v2/post/publish/video/init/", reqBody)
	if err != nil {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), nil)
	}
	var payload struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewMalformedResponseError("publish_init", c.Name(), err)
	}
	if payload.Error.failed() || payload.Data.PublishID == "" {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), fmt.Errorf("video init error: %s", payload.Error.Message))
	}
	logger.GetLogger().WithField("publish_id", payload.Data.PublishID).Info("tiktok publish initiated")
	return &repository.PublishHandle{
		Platform:  c.Name(),
		PublishID: payload.Data.PublishID,
		Status:    model.PublishStatusProcessing,
	}, nil
}

// PollPublishStatus maps TikTok's publish states onto ours. Intermediate
// states (PROCESSING_DOWNLOAD etc.) come back with an empty Status so local
// state is left untouched.
func (c *Client) PollPublishStatus(ctx context.Context, account *model.SocialAccount, handle *repository.PublishHandle) (*repository.PublishStatusResult, error) {
	body, status, err := c.postJSON(ctx, account.AccessToken, c.apiURL+"/v2/post/publish/status/fetch/", map[string]any{
		"publish_id": handle.PublishID,
	})
	if err != nil {
		return nil, model.NewPublishStatusError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewPublishStatusError(c.Name(), status, string(body), nil)
	}
	var payload struct {
		Data struct {
			Status        string   `json:"status"`
			FailReason    string   `json:"fail_reason"`
			PublicPostIDs []string `json:"publicaly_available_post_id"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewMalformedResponseError("publish_status", c.Name(), err)
	}
	if payload.Error.failed() {
		return nil, model.NewPublishStatusError(c.Name(), status, string(body), fmt.Errorf("status fetch error: %s", payload.Error.Message))
	}
	result := &repository.PublishStatusResult{}
	switch payload.Data.Status {
	case statusComplete:
		result.Status = model.PublishStatusPublished
		if len(payload.Data.PublicPostIDs) > 0 {
			result.ExternalMediaID = payload.Data.PublicPostIDs[0]
		}
	case statusFailed:
		result.Status = model.PublishStatusFailed
		result.FailReason = payload.Data.FailReason
	default:
		// Still ingesting; no state change.
	}
	return result, nil
}

func (c *Client) FetchInsights(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
	endpoint := c.apiURL + "/v2/video/query/?fields=like_count,comment_count,view_count,share_count"
	body, status, err := c.postJSON(ctx, account.AccessToken, endpoint, map[string]any{
		"filters": map[string]any{
			"video_ids": []string{externalMediaID},
		},
	})
	if err != nil {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), nil)
	}
	var payload struct {
		Data struct {
			Videos []struct {
				LikeCount    *int64 `json:"like_count"`
				CommentCount *int64 `json:"comment_count"`
				ViewCount    *int64 `json:"view_count"`
				ShareCount   *int64 `json:"share_count"`
			} `json:"videos"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewMalformedResponseError("insights_fetch", c.Name(), err)
	}
	if payload.Error.failed() {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), fmt.Errorf("video query error: %s", payload.Error.Message))
	}
	if len(payload.Data.Videos) == 0 {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), fmt.Errorf("video %s not found", externalMediaID))
	}
	v := payload.Data.Videos[0]
	out := make(map[string]int64, 4)
	if v.LikeCount != nil {
		out["likes"] = *v.LikeCount
	}
	if v.CommentCount != nil {
		out["comments"] = *v.CommentCount
	}
	if v.ViewCount != nil {
		out["views"] = *v.ViewCount
	}
	if v.ShareCount != nil {
		out["shares"] = *v.ShareCount
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, accessToken, endpoint string, payload any) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
