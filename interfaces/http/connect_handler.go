package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
	"creator-hub/usecase"
)

type IConnectHandler interface {
	Authorize(ctx *gin.Context)
	Callback(ctx *gin.Context)
	Status(ctx *gin.Context)
}

type ConnectHandler struct {
	oauthUsecase usecase.IOAuthUsecase
}

func NewConnectHandler(oauthUsecase usecase.IOAuthUsecase) IConnectHandler {
	return &ConnectHandler{oauthUsecase: oauthUsecase}
}

// Authorize starts the connect flow for the authenticated user: the response
// carries the platform authorization URL the browser must visit.
func (h *ConnectHandler) Authorize(ctx *gin.Context) {
	platform := ctx.Param("platform")
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	authURL, err := h.oauthUsecase.AuthorizeURL(ctx.Request.Context(), platform, userID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// Callback lands the user back from the platform's consent screen. The signed
// state identifies the user, so this route carries no session of its own.
func (h *ConnectHandler) Callback(ctx *gin.Context) {
	platform := ctx.Param("platform")
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	account, err := h.oauthUsecase.HandleCallback(ctx.Request.Context(), platform, code, state)
	if err != nil {
		logger.GetLogger().
			WithField("platform", platform).
			WithField("error", err).
			Warn("OAuth callback failed")
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	if continueURL := configuration.C.Onboarding.ContinueURL; continueURL != "" {
		ctx.Redirect(http.StatusFound, continueURL)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"platform":   platform,
		"account_id": account.AccountID,
		"connected":  true,
	})
}

// Status reports the user's connection state per supported platform.
func (h *ConnectHandler) Status(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	accounts, err := h.oauthUsecase.AccountStatus(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make(map[string]gin.H, len(accounts))
	for platform, account := range accounts {
		if account == nil {
			out[platform] = gin.H{"connected": false}
			continue
		}
		entry := gin.H{"connected": true, "account_id": account.AccountID}
		if account.AccountName != nil {
			entry["account_name"] = *account.AccountName
		}
		if account.ExpiresAt != nil {
			entry["expires_at"] = account.ExpiresAt
		}
		out[platform] = entry
	}
	ctx.JSON(http.StatusOK, gin.H{"platforms": out})
}
