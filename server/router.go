package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"creator-hub/domain/repository"
	"creator-hub/infrastructure/realtime"
	httpHandler "creator-hub/interfaces/http"
	"creator-hub/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	connectHandler httpHandler.IConnectHandler,
	publishHandler httpHandler.IPublishHandler,
	insightsHandler httpHandler.IInsightsHandler,
	userRepository repository.IUser,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Connect flow: starting it needs a session; the callback identifies the
	// user through the signed state instead.
	if connectHandler != nil {
		router.GET("/auth/:platform", middleware.Auth(userRepository), connectHandler.Authorize)
		router.GET("/auth/:platform/callback", connectHandler.Callback)
	}

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	if connectHandler != nil {
		api.GET("/accounts/status", connectHandler.Status)
	}
	if publishHandler != nil {
		api.POST("/publish/:platform", publishHandler.Publish)
		api.POST("/publish/:platform/poll", publishHandler.Poll)
		api.GET("/campaigns/:campaignId/media", publishHandler.ListCampaignMedia)
	}
	if insightsHandler != nil {
		api.POST("/insights/sync", insightsHandler.Sync)
	}
	if publishHub != nil {
		api.GET("/publish/stream", func(c *gin.Context) { publishHub.Serve(c) })
	}

	return router
}
