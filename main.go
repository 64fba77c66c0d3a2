package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/cache"
	"creator-hub/infrastructure/clients/instagram"
	"creator-hub/infrastructure/clients/tiktok"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
	"creator-hub/infrastructure/persistence"
	"creator-hub/infrastructure/pubsub"
	"creator-hub/infrastructure/realtime"
	"creator-hub/infrastructure/servicebus"
	httpHandler "creator-hub/interfaces/http"
	"creator-hub/server"
	"creator-hub/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	mssqlDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - publish audit log disabled")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - publish audit log disabled")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - sync events disabled")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - publish events disabled")
		azServiceBusClient = nil
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - sync result cache disabled")
		redisClient = nil
	}

	// Platform adapters share one outbound timeout.
	timeout := time.Duration(configuration.C.HTTPClient.TimeoutSeconds) * time.Second
	adapters := map[string]repository.ISocialPlatform{
		model.PlatformInstagram: instagram.NewClient(configuration.C.Platforms.Instagram, timeout),
		model.PlatformTikTok:    tiktok.NewClient(configuration.C.Platforms.TikTok, timeout),
	}

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var userRepository repository.IUser
	var accountRepository repository.ISocialAccount
	if psqlDb == nil { // production/MSSQL path from InitiateDatabase
		userRepository = persistence.NewUserRepositoryMSSQL(mssqlDb)
		if err := persistence.EnsureSocialAccountSchemaMSSQL(mssqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social account schema (mssql)")
		}
		accountRepository = persistence.NewSocialAccountRepositoryMSSQL(mssqlDb)
	} else {
		userRepository = persistence.NewUserRepository(psqlDb)
		if err := persistence.EnsureSocialSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social schema")
		}
		accountRepository = persistence.NewSocialAccountRepository(psqlDb)
	}

	userUsecase := usecase.NewUserUsecase(userRepository, app.SecretKey)
	userHandler := httpHandler.NewUserHandler(userUsecase)

	oauthUsecase := usecase.NewOAuthUsecase(adapters, accountRepository, app.SecretKey)
	connectHandler := httpHandler.NewConnectHandler(oauthUsecase)

	// Publish and insights need PostgreSQL; on the MSSQL-only path the service
	// still runs with account management alone.
	var publishHandler httpHandler.IPublishHandler
	var insightsHandler httpHandler.IInsightsHandler
	var publishUsecase usecase.IPublishUsecase
	publishHub := realtime.NewPublishHub()
	if psqlDb != nil {
		mediaRepository := persistence.NewMediaPublicationRepository(psqlDb)
		snapshotRepository := persistence.NewInsightSnapshotRepository(psqlDb)
		auditRepository := persistence.NewPublishAuditRepository(mongoDb)

		var publishBus servicebus.IPublishServiceBus
		if azServiceBusClient != nil {
			publishBus = servicebus.NewPublishServiceBus(azServiceBusClient, configuration.C.ServiceBus.Queue)
		}
		var syncEvents pubsub.ISyncPubSub
		if pubSubClient != nil {
			syncEvents = pubsub.NewSyncPubSub(pubSubClient)
		}

		publishUsecase = usecase.NewPublishUsecase(adapters, accountRepository, mediaRepository, auditRepository, publishHub, publishBus)
		publishHandler = httpHandler.NewPublishHandler(publishUsecase)

		insightsUsecase := usecase.NewInsightsUsecase(
			adapters,
			accountRepository,
			mediaRepository,
			snapshotRepository,
			cache.NewSyncResultCache(redisClient),
			syncEvents,
			usecase.SyncOptions{
				MaxConcurrency: configuration.C.Sync.MaxConcurrency,
				RetryAttempts:  configuration.C.Sync.RetryAttempts,
				CacheTTL:       time.Duration(configuration.C.Sync.CacheTTLSeconds) * time.Second,
				Topic:          configuration.C.Pubsub.Topic,
			},
		)
		insightsHandler = httpHandler.NewInsightsHandler(insightsUsecase)
	} else {
		logger.GetLogger().Info("PostgreSQL not available in this environment; publish and insights features disabled")
	}

	router := server.InitiateRouter(userHandler, connectHandler, publishHandler, insightsHandler, userRepository, publishHub)

	// Background poller advances in-flight publications (TikTok async publishes).
	if publishUsecase != nil {
		batchSize := configuration.C.Sync.PollBatchSize
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					pollCtx, cancelPoll := context.WithTimeout(ctx, 30*time.Second)
					if err := publishUsecase.ProcessPending(pollCtx, batchSize); err != nil {
						logger.GetLogger().WithField("error", err).Warn("Background publish poll failed")
					}
					cancelPoll()
				}
			}
		})
	}

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the credential-store backend.
// Contract: return (mssqlDB, psqlDB). In production, mssqlDB is set and psqlDB
// may be nil; locally PostgreSQL backs everything.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}
	if env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	return nil, postgres, nil
}
