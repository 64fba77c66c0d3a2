package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/infrastructure/logger"
	"creator-hub/usecase"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
	Poll(ctx *gin.Context)
	ListCampaignMedia(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase}
}

func (h *PublishHandler) Publish(ctx *gin.Context) {
	platform := ctx.Param("platform")
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.publishUsecase.Publish(ctx.Request.Context(), platform, &req)
	if err != nil {
		logger.GetLogger().
			WithField("platform", platform).
			WithField("campaign_id", req.CampaignID).
			WithField("error", err.Error()).
			Warn("Publish request failed")
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *PublishHandler) Poll(ctx *gin.Context) {
	platform := ctx.Param("platform")
	var req dto.PollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.publishUsecase.Poll(ctx.Request.Context(), platform, &req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *PublishHandler) ListCampaignMedia(ctx *gin.Context) {
	campaignID := ctx.Param("campaignId")
	platform := ctx.Query("platform")
	if platform == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing platform query parameter"})
		return
	}
	list, err := h.publishUsecase.ListCampaignMedia(ctx.Request.Context(), campaignID, platform)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*model.MediaPublication{}
	}
	ctx.JSON(http.StatusOK, gin.H{"campaign_id": campaignID, "media": list})
}

// statusForError maps the domain error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var notConnected *model.NotConnectedError
	if errors.As(err, &notConnected) {
		return http.StatusNotFound
	}
	var credExpired *model.CredentialExpiredError
	if errors.As(err, &credExpired) {
		return http.StatusUnauthorized
	}
	var platformErr *model.PlatformError
	if errors.As(err, &platformErr) {
		return http.StatusBadGateway
	}
	var storeErr *model.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
