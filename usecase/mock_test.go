package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
)

// fakePlatform is a scriptable ISocialPlatform; unset hooks fail the call.
type fakePlatform struct {
	name        string
	refreshable bool

	exchangeFn func(ctx context.Context, code string) (*repository.PlatformToken, error)
	refreshFn  func(ctx context.Context, refreshToken string) (*repository.PlatformToken, error)
	resolveFn  func(ctx context.Context, accessToken string) (*repository.PlatformAccount, error)
	initFn     func(ctx context.Context, account *model.SocialAccount, videoURL, caption string, opts repository.PublishOptions) (*repository.PublishHandle, error)
	pollFn     func(ctx context.Context, account *model.SocialAccount, handle *repository.PublishHandle) (*repository.PublishStatusResult, error)
	insightsFn func(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error)

	mu           sync.Mutex
	initCalls    int
	pollCalls    int
	refreshCalls int
}

func (f *fakePlatform) Name() string                 { return f.name }
func (f *fakePlatform) AuthCodeURL(state string) string {
	return "https://auth.example/authorize?state=" + state
}
func (f *fakePlatform) SupportsRefresh() bool { return f.refreshable }

func (f *fakePlatform) ExchangeAuthCode(ctx context.Context, code string) (*repository.PlatformToken, error) {
	if f.exchangeFn == nil {
		return nil, errors.New("exchange not scripted")
	}
	return f.exchangeFn(ctx, code)
}

func (f *fakePlatform) RefreshToken(ctx context.Context, refreshToken string) (*repository.PlatformToken, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	if f.refreshFn == nil {
		return nil, errors.New("refresh not scripted")
	}
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakePlatform) ResolveAccount(ctx context.Context, accessToken string) (*repository.PlatformAccount, error) {
	if f.resolveFn == nil {
		return nil, errors.New("resolve not scripted")
	}
	return f.resolveFn(ctx, accessToken)
}

func (f *fakePlatform) InitiatePublish(ctx context.Context, account *model.SocialAccount, videoURL, caption string, opts repository.PublishOptions) (*repository.PublishHandle, error) {
	f.mu.Lock()
	f.initCalls++
	f.mu.Unlock()
	if f.initFn == nil {
		return nil, errors.New("publish not scripted")
	}
	return f.initFn(ctx, account, videoURL, caption, opts)
}

func (f *fakePlatform) PollPublishStatus(ctx context.Context, account *model.SocialAccount, handle *repository.PublishHandle) (*repository.PublishStatusResult, error) {
	f.mu.Lock()
	f.pollCalls++
	f.mu.Unlock()
	if f.pollFn == nil {
		return nil, errors.New("poll not scripted")
	}
	return f.pollFn(ctx, account, handle)
}

func (f *fakePlatform) FetchInsights(ctx context.Context, account *model.SocialAccount, externalMediaID string) (map[string]int64, error) {
	if f.insightsFn == nil {
		return nil, errors.New("insights not scripted")
	}
	return f.insightsFn(ctx, account, externalMediaID)
}

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*model.SocialAccount
	upserts  int
}

func newFakeAccountStore(accounts ...*model.SocialAccount) *fakeAccountStore {
	s := &fakeAccountStore{accounts: map[string]*model.SocialAccount{}}
	for _, a := range accounts {
		s.accounts[a.UserID+":"+a.Platform] = a
	}
	return s
}

func (s *fakeAccountStore) GetAccount(ctx context.Context, userID, platform string) (*model.SocialAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[userID+":"+platform]
	if !ok {
		return nil, nil
	}
	// Hand out a copy, the way a row scan would.
	row := *account
	return &row, nil
}

func (s *fakeAccountStore) UpsertAccount(ctx context.Context, account *model.SocialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.accounts[account.UserID+":"+account.Platform] = account
	return nil
}

// fakeMediaStore keeps rows in memory and records operation order so tests can
// assert persistence happens before enrichment.
type fakeMediaStore struct {
	mu   sync.Mutex
	seq  int64
	rows []*model.MediaPublication
	ops  []string
}

func (s *fakeMediaStore) ListMediaByCampaignAndPlatform(ctx context.Context, campaignID, platform string) ([]*model.MediaPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.MediaPublication
	for _, m := range s.rows {
		if m.CampaignID == campaignID && m.Platform == platform {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMediaStore) GetMediaByExternalID(ctx context.Context, campaignID, externalMediaID string) (*model.MediaPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.rows {
		if m.CampaignID == campaignID && m.ExternalMediaID == externalMediaID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *fakeMediaStore) UpsertMedia(ctx context.Context, media *model.MediaPublication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "upsert")
	for _, m := range s.rows {
		if m.CampaignID == media.CampaignID && m.ExternalMediaID == media.ExternalMediaID {
			media.ID = m.ID
			if m.Status != model.PublishStatusPublished && m.Status != model.PublishStatusFailed {
				m.Status = media.Status
			}
			media.Status = m.Status
			return nil
		}
	}
	s.seq++
	media.ID = s.seq
	s.rows = append(s.rows, media)
	return nil
}

func (s *fakeMediaStore) UpdateMediaStatus(ctx context.Context, id int64, status string, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "status:"+status)
	for _, m := range s.rows {
		if m.ID == id && m.Status != model.PublishStatusPublished && m.Status != model.PublishStatusFailed {
			m.Status = status
			m.ErrorMessage = errMsg
		}
	}
	return nil
}

func (s *fakeMediaStore) UpdateMediaEnrichment(ctx context.Context, id int64, permalink, thumbnailURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "enrich")
	for _, m := range s.rows {
		if m.ID == id {
			if permalink != nil {
				m.Permalink = permalink
			}
			if thumbnailURL != nil {
				m.ThumbnailURL = thumbnailURL
			}
		}
	}
	return nil
}

func (s *fakeMediaStore) SetMediaExternalID(ctx context.Context, id int64, externalMediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "external_id")
	for _, m := range s.rows {
		if m.ID == id {
			m.ExternalMediaID = externalMediaID
		}
	}
	return nil
}

func (s *fakeMediaStore) ListProcessing(ctx context.Context, limit int) ([]*model.MediaPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.MediaPublication
	for _, m := range s.rows {
		if m.Status == model.PublishStatusPending || m.Status == model.PublishStatusProcessing {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]*model.InsightSnapshot
	upserts   int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: map[string]*model.InsightSnapshot{}}
}

func (s *fakeSnapshotStore) UpsertSnapshot(ctx context.Context, snap *model.InsightSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.snapshots[fmt.Sprintf("%s|%s", snap.CampaignID, snap.ExternalMediaID)] = snap
	return nil
}

func (s *fakeSnapshotStore) ListSnapshotsByCampaign(ctx context.Context, campaignID, platform string) ([]*model.InsightSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.InsightSnapshot
	for _, snap := range s.snapshots {
		if snap.CampaignID == campaignID && snap.Platform == platform {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *fakeSnapshotStore) get(campaignID, externalMediaID string) *model.InsightSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[fmt.Sprintf("%s|%s", campaignID, externalMediaID)]
}

// fakeSyncCache is an in-memory cache.ISyncResultCache ignoring TTLs.
type fakeSyncCache struct {
	mu     sync.Mutex
	stored map[string]*dto.SyncResult
	sets   int
}

func newFakeSyncCache() *fakeSyncCache {
	return &fakeSyncCache{stored: map[string]*dto.SyncResult{}}
}

func (c *fakeSyncCache) Get(ctx context.Context, campaignID, platform string) (*dto.SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stored[campaignID+":"+platform], nil
}

func (c *fakeSyncCache) Set(ctx context.Context, result *dto.SyncResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.stored[result.CampaignID+":"+result.Platform] = result
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*model.PublishAudit
}

func (a *fakeAudit) Append(ctx context.Context, entries []*model.PublishAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entries...)
	return nil
}
