package instagram

import (
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

	"github.com/google/go-querystring/query"
)

const (
	defaultGraphURL = "https://graph.facebook.com/v19.0"
	defaultAuthURL  = "https://www.facebook.com/v19.0/dialog/oauth"

	// Scopes required for publishing to and reading insights from a
	// connected Instagram business account.
	oauthScopes = "instagram_basic,instagram_content_publish,instagram_manage_insights,pages_show_list,business_management"
)

// Client implements the Instagram (Meta Graph API) side of the platform
// capability set. Publishing runs the container create + media_publish pair as
// one logical step; the media id is known synchronously.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	graphURL     string
	authURL      string
	httpClient   *http.Client
}

func NewClient(cfg configuration.PlatformClient, timeout time.Duration) repository.ISocialPlatform {
	graphURL := defaultGraphURL
	authURL := defaultAuthURL
	if cfg.BaseURL != "" {
		graphURL = strings.TrimRight(cfg.BaseURL, "/")
		authURL = graphURL + "/dialog/oauth"
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		graphURL:     graphURL,
		authURL:      authURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return model.PlatformInstagram }

func (c *Client) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("state", state)
	q.Set("scope", oauthScopes)
	q.Set("response_type", "code")
	return c.authURL + "?" + q.Encode()
}

type exchangeParams struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ClientSecret string `url:"client_secret"`
	Code         string `url:"code"`
}

type longLivedParams struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FBExchangeToken string `url:"fb_exchange_token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeAuthCode trades the authorization code for a short-lived user token,
// then immediately upgrades it to a 60-day token. Either call failing fails the
// whole exchange; callers never see a partial credential.
func (c *Client) ExchangeAuthCode(ctx context.Context, code string) (*repository.PlatformToken, error) {
	v, _ := query.Values(exchangeParams{
		ClientID:     c.clientID,
		RedirectURI:  c.redirectURI,
		ClientSecret: c.clientSecret,
		Code:         code,
	})
	body, status, err := c.get(ctx, c.graphURL+"/oauth/access_token?"+v.Encode())
	if err != nil {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), nil)
	}
	var short tokenResponse
	if err := json.Unmarshal(body, &short); err != nil || short.AccessToken == "" {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), fmt.Errorf("unexpected token payload: %w", err))
	}

	// Short-lived token upgrade; Instagram publishing needs the 60-day token.
	v, _ = query.Values(longLivedParams{
		GrantType:       "fb_exchange_token",
		ClientID:        c.clientID,
		ClientSecret:    c.clientSecret,
		FBExchangeToken: short.AccessToken,
	})
	body, status, err = c.get(ctx, c.graphURL+"/oauth/access_token?"+v.Encode())
	if err != nil {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), nil)
	}
	var long tokenResponse
	if err := json.Unmarshal(body, &long); err != nil || long.AccessToken == "" {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), fmt.Errorf("unexpected long-lived token payload: %w", err))
	}
	return &repository.PlatformToken{
		AccessToken: long.AccessToken,
		ExpiresIn:   long.ExpiresIn,
		Scopes:      oauthScopes,
	}, nil
}

// SupportsRefresh is false: long-lived tokens have no confirmed renewal
// endpoint, so expiry requires user re-authorization.
func (c *Client) SupportsRefresh() bool { return false }

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*repository.PlatformToken, error) {
	return nil, model.NewAuthExchangeError(c.Name(), 0, "", fmt.Errorf("instagram does not support token refresh"))
}

// ResolveAccount walks user pages -> first page's connected Instagram business
// account. No business account means the credential is unusable.
func (c *Client) ResolveAccount(ctx context.Context, accessToken string) (*repository.PlatformAccount, error) {
	body, status, err := c.get(ctx, fmt.Sprintf("%s/me/accounts?access_token=%s", c.graphURL, url.QueryEscape(accessToken)))
	if err != nil || status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	var pages struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), err)
	}
	if len(pages.Data) == 0 {
		return nil, &model.PlatformError{Op: "auth_exchange", Platform: c.Name(), Permanent: true, Err: fmt.Errorf("no facebook pages available for this user")}
	}
	page := pages.Data[0]

	body, status, err = c.get(ctx, fmt.Sprintf("%s/%s?fields=instagram_business_account,name&access_token=%s", c.graphURL, url.PathEscape(page.ID), url.QueryEscape(accessToken)))
	if err != nil || status != http.StatusOK {
		return nil, model.NewAuthExchangeError(c.Name(), status, string(body), err)
	}
	var detail struct {
		Name                     string `json:"name"`
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, model.NewMalformedResponseError("auth_exchange", c.Name(), err)
	}
	if detail.InstagramBusinessAccount == nil || detail.InstagramBusinessAccount.ID == "" {
		return nil, &model.PlatformError{Op: "auth_exchange", Platform: c.Name(), Permanent: true, Err: fmt.Errorf("page %s has no linked instagram business account", page.ID)}
	}
	return &repository.PlatformAccount{ID: detail.InstagramBusinessAccount.ID, Name: page.Name}, nil
}

type containerParams struct {
	VideoURL    string `url:"video_url"`
	Caption     string `url:"caption"`
	MediaType   string `url:"media_type"`
	AccessToken string `url:"access_token"`
}

// InitiatePublish creates a media container then publishes it via the
// container id. Instagram's flow is synchronous: a successful media_publish
// call yields the final media id.
func (c *Client) InitiatePublish(ctx context.Context, account *model.SocialAccount, videoURL, caption string, opts repository.PublishOptions) (*repository.PublishHandle, error) {
	mediaType := "VIDEO"
	if opts.IsReel {
		mediaType = "REELS"
	}
	v, _ := query.Values(containerParams{
		VideoURL:    videoURL,
		Caption:     caption,
		MediaType:   mediaType,
		AccessToken: account.AccessToken,
	})
	body, status, err := c.post(ctx, fmt.Sprintf("%s/%s/media", c.graphURL, url.PathEscape(account.AccountID)), v)
	if err != nil {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), nil)
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &container); err != nil || container.ID == "" {
		return nil, model.NewMalformedResponseError("publish_init", c.Name(), fmt.Errorf("container response missing id"))
	}

	pv := url.Values{}
	pv.Set("creation_id", container.ID)
	pv.Set("access_token", account.AccessToken)
	body, status, err = c.post(ctx, fmt.Sprintf("%s/%s/media_publish", c.graphURL, url.PathEscape(account.AccountID)), pv)
	if err != nil {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewPublishInitError(c.Name(), status, string(body), nil)
	}
	var published struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &published); err != nil || published.ID == "" {
		return nil, model.NewMalformedResponseError("publish_init", c.Name(), fmt.Errorf("media_publish response missing id"))
	}
	logger.GetLogger().WithField("media_id", published.ID).Info("instagram media published")
	return &repository.PublishHandle{
		Platform:        c.Name(),
		ExternalMediaID: published.ID,
		PublishID:       container.ID,
		Status:          model.PublishStatusPublished,
	}, nil
}

// PollPublishStatus fetches permalink/thumbnail for an already-published media
// item. Network trouble yields an error, never a FAILED verdict.
func (c *Client) PollPublishStatus(ctx context.Context, account *model.SocialAccount, handle *repository.PublishHandle) (*repository.PublishStatusResult, error) {
	body, status, err := c.get(ctx, fmt.Sprintf("%s/%s?fields=permalink,thumbnail_url&access_token=%s", c.graphURL, url.PathEscape(handle.ExternalMediaID), url.QueryEscape(account.AccessToken)))
	if err != nil {
		return nil, model.NewPublishStatusError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewPublishStatusError(c.Name(), status, string(body), nil)
	}
	var detail struct {
		Permalink    string `json:"permalink"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, model.NewMalformedResponseError("publish_status", c.Name(), err)
	}
	return &repository.PublishStatusResult{
		Status:          model.PublishStatusPublished,
		ExternalMediaID: handle.ExternalMediaID,
		Permalink:       detail.Permalink,
		ThumbnailURL:    detail.ThumbnailURL,
	}, nil
}

// Graph insight metric -> canonical snapshot metric.
var insightMetricNames = map[string]string{
	"likes":       "likes",
	"comments":    "comments",
	"plays":       "views",
	"reach":       "reach",
	"impressions": "impressions",
	"saved":       "saves",
	"shares":      "shares",
}

func (c *Client) FetchInsights(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
	metrics := "likes,comments,plays,reach,impressions,saved,shares"
	body, status, err := c.get(ctx, fmt.Sprintf("%s/%s/insights?metric=%s&access_token=%s", c.graphURL, url.PathEscape(externalMediaID), metrics, url.QueryEscape(account.AccessToken)))
	if err != nil {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), err)
	}
	if status != http.StatusOK {
		return nil, model.NewInsightsFetchError(c.Name(), status, string(body), nil)
	}
	var payload struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewMalformedResponseError("insights_fetch", c.Name(), err)
	}
	out := make(map[string]int64, len(payload.Data))
	for _, d := range payload.Data {
		canonical, ok := insightMetricNames[d.Name]
		if !ok || len(d.Values) == 0 {
			continue
		}
		out[canonical] = d.Values[0].Value
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, rawURL string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
