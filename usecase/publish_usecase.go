package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/realtime"
	"creator-hub/infrastructure/servicebus"
	"creator-hub/infrastructure/utils"
)

type IPublishUsecase interface {
	Publish(ctx context.Context, platform string, req *dto.PublishRequest) (*dto.PublishResponse, error)
	Poll(ctx context.Context, platform string, req *dto.PollRequest) (*dto.PublishResponse, error)
	ListCampaignMedia(ctx context.Context, campaignID, platform string) ([]*model.MediaPublication, error)
	ProcessPending(ctx context.Context, batchSize int) error
}

type publishUsecase struct {
	adapters map[string]repository.ISocialPlatform
	resolver *accountResolver
	media    repository.IMediaPublication
	audit    repository.IPublishAudit // optional
	hub      *realtime.Hub            // optional
	bus      servicebus.IPublishServiceBus
}

func NewPublishUsecase(
	adapters map[string]repository.ISocialPlatform,
	accounts repository.ISocialAccount,
	media repository.IMediaPublication,
	audit repository.IPublishAudit,
	hub *realtime.Hub,
	bus servicebus.IPublishServiceBus,
) IPublishUsecase {
	return &publishUsecase{
		adapters: adapters,
		resolver: newAccountResolver(accounts),
		media:    media,
		audit:    audit,
		hub:      hub,
		bus:      bus,
	}
}

// Publish pushes one video to a platform on behalf of a campaign creator.
// The credential is checked and refreshed before anything platform-side
// happens, and the publication row is committed before any best-effort
// enrichment runs.
func (u *publishUsecase) Publish(ctx context.Context, platform string, req *dto.PublishRequest) (*dto.PublishResponse, error) {
	adapter, ok := u.adapters[platform]
	if !ok {
		return nil, errors.New("unsupported platform: " + platform)
	}
	account, err := u.resolver.Fresh(ctx, adapter, req.CreatorID)
	if err != nil {
		return nil, err
	}

	handle, err := adapter.InitiatePublish(ctx, account, req.VideoURL, req.Caption, repository.PublishOptions{IsReel: req.IsReel})
	if err != nil {
		u.appendAudit(ctx, &model.PublishAudit{
			CampaignID:   req.CampaignID,
			Platform:     platform,
			CreatorID:    req.CreatorID,
			Status:       model.PublishStatusFailed,
			ErrorMessage: strPtr(err.Error()),
			CreatedAt:    utils.GetCurrentTime(),
		})
		return nil, err
	}

	media := &model.MediaPublication{
		CampaignID: req.CampaignID,
		Platform:   platform,
		CreatorID:  req.CreatorID,
		Status:     handle.Status,
		VideoURL:   req.VideoURL,
		Caption:    req.Caption,
	}
	// Async platforms only hand back a publish id; it stands in as the
	// external id until a status poll delivers the real one.
	media.ExternalMediaID = handle.ExternalMediaID
	if media.ExternalMediaID == "" {
		media.ExternalMediaID = handle.PublishID
	}
	if handle.PublishID != "" {
		publishID := handle.PublishID
		media.PublishID = &publishID
	}
	if err := u.media.UpsertMedia(ctx, media); err != nil {
		// The platform accepted the publish; losing the row here is the one
		// failure we cannot roll back, so it must surface loudly.
		logger.GetLogger().
			WithField("platform", platform).
			WithField("external_media_id", media.ExternalMediaID).
			WithField("error", err).
			Error("Publication accepted by platform but row commit failed")
		return nil, err
	}

	// Enrichment after commit; a failure here never fails the publish.
	if media.Status == model.PublishStatusPublished {
		if res, err := adapter.PollPublishStatus(ctx, account, handle); err == nil {
			u.applyEnrichment(ctx, media, res)
		} else {
			logger.GetLogger().WithField("error", err).Warn("Post-publish enrichment failed")
		}
	}

	u.appendAudit(ctx, auditEntry(media))
	u.notify(media)
	return toPublishResponse(media), nil
}

// Poll advances one publication by asking the platform for its current state.
// Safe to call repeatedly; terminal rows are returned as-is.
func (u *publishUsecase) Poll(ctx context.Context, platform string, req *dto.PollRequest) (*dto.PublishResponse, error) {
	adapter, ok := u.adapters[platform]
	if !ok {
		return nil, errors.New("unsupported platform: " + platform)
	}
	media, err := u.media.GetMediaByExternalID(ctx, req.CampaignID, req.ExternalMediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, errors.New("unknown publication: " + req.ExternalMediaID)
	}
	if media.Status == model.PublishStatusPublished || media.Status == model.PublishStatusFailed {
		return toPublishResponse(media), nil
	}
	if err := u.advance(ctx, adapter, media); err != nil {
		return nil, err
	}
	return toPublishResponse(media), nil
}

func (u *publishUsecase) ListCampaignMedia(ctx context.Context, campaignID, platform string) ([]*model.MediaPublication, error) {
	return u.media.ListMediaByCampaignAndPlatform(ctx, campaignID, platform)
}

// ProcessPending is the background poller pass: pick up in-flight
// publications and try to advance each one. Per-item failures are logged and
// skipped so a single sick row cannot stall the batch.
func (u *publishUsecase) ProcessPending(ctx context.Context, batchSize int) error {
	lg := logger.GetLogger()
	list, err := u.media.ListProcessing(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, media := range list {
		adapter, ok := u.adapters[media.Platform]
		if !ok {
			continue
		}
		if err := u.advance(ctx, adapter, media); err != nil {
			lg.WithField("external_media_id", media.ExternalMediaID).
				WithField("error", err).
				Warn("Publish status poll failed")
		}
	}
	return nil
}

// advance runs one platform status poll and applies the verdict. An empty
// status from the platform means "no answer yet" and leaves the row alone.
func (u *publishUsecase) advance(ctx context.Context, adapter repository.ISocialPlatform, media *model.MediaPublication) error {
	account, err := u.resolver.Fresh(ctx, adapter, media.CreatorID)
	if err != nil {
		return err
	}
	handle := &repository.PublishHandle{
		Platform:        media.Platform,
		ExternalMediaID: media.ExternalMediaID,
	}
	if media.PublishID != nil {
		handle.PublishID = *media.PublishID
	}
	res, err := adapter.PollPublishStatus(ctx, account, handle)
	if err != nil {
		return err
	}

	switch res.Status {
	case model.PublishStatusPublished:
		if res.ExternalMediaID != "" && res.ExternalMediaID != media.ExternalMediaID {
			if err := u.media.SetMediaExternalID(ctx, media.ID, res.ExternalMediaID); err != nil {
				return err
			}
			media.ExternalMediaID = res.ExternalMediaID
		}
		if err := u.media.UpdateMediaStatus(ctx, media.ID, model.PublishStatusPublished, nil); err != nil {
			return err
		}
		media.Status = model.PublishStatusPublished
		media.ErrorMessage = nil
		u.applyEnrichment(ctx, media, res)
	case model.PublishStatusFailed:
		reason := strPtr(res.FailReason)
		if err := u.media.UpdateMediaStatus(ctx, media.ID, model.PublishStatusFailed, reason); err != nil {
			return err
		}
		media.Status = model.PublishStatusFailed
		media.ErrorMessage = reason
	default:
		return nil
	}

	u.appendAudit(ctx, auditEntry(media))
	u.notify(media)
	return nil
}

func (u *publishUsecase) applyEnrichment(ctx context.Context, media *model.MediaPublication, res *repository.PublishStatusResult) {
	var permalink, thumbnail *string
	if res.Permalink != "" {
		permalink = strPtr(res.Permalink)
	}
	if res.ThumbnailURL != "" {
		thumbnail = strPtr(res.ThumbnailURL)
	}
	if permalink == nil && thumbnail == nil {
		return
	}
	if err := u.media.UpdateMediaEnrichment(ctx, media.ID, permalink, thumbnail); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Enrichment update failed")
		return
	}
	if permalink != nil {
		media.Permalink = permalink
	}
	if thumbnail != nil {
		media.ThumbnailURL = thumbnail
	}
}

func (u *publishUsecase) appendAudit(ctx context.Context, entry *model.PublishAudit) {
	if u.audit == nil {
		return
	}
	if err := u.audit.Append(ctx, []*model.PublishAudit{entry}); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Audit append failed")
	}
}

// notify fans the new state out to SSE subscribers and the service bus queue,
// both best effort.
func (u *publishUsecase) notify(media *model.MediaPublication) {
	if u.hub != nil {
		u.hub.BroadcastPublishStatus(media)
	}
	if u.bus != nil {
		payload, err := json.Marshal(media)
		if err != nil {
			return
		}
		if err := u.bus.SendMessage(payload); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Service bus publish event failed")
		}
	}
}

func auditEntry(media *model.MediaPublication) *model.PublishAudit {
	return &model.PublishAudit{
		PublicationID: media.ID,
		CampaignID:    media.CampaignID,
		Platform:      media.Platform,
		CreatorID:     media.CreatorID,
		Status:        media.Status,
		ErrorMessage:  media.ErrorMessage,
		CreatedAt:     utils.GetCurrentTime(),
	}
}

func toPublishResponse(media *model.MediaPublication) *dto.PublishResponse {
	return &dto.PublishResponse{
		PublicationID:   media.ID,
		Platform:        media.Platform,
		ExternalMediaID: media.ExternalMediaID,
		Status:          media.Status,
		Permalink:       media.Permalink,
	}
}

func strPtr(s string) *string { return &s }
