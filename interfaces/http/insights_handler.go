package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/infrastructure/logger"
	"creator-hub/usecase"
)

type IInsightsHandler interface {
	Sync(ctx *gin.Context)
}

type InsightsHandler struct {
	insightsUsecase usecase.IInsightsUsecase
}

func NewInsightsHandler(insightsUsecase usecase.IInsightsUsecase) IInsightsHandler {
	return &InsightsHandler{insightsUsecase: insightsUsecase}
}

func (h *InsightsHandler) Sync(ctx *gin.Context) {
	var req dto.SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.insightsUsecase.Sync(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().
			WithField("campaign_id", req.CampaignID).
			WithField("platform", req.Platform).
			WithField("error", err.Error()).
			Warn("Insights sync failed")
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, res)
}
