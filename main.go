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

	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/cache"
	"autoposter-core/infrastructure/clients/tiktok"
	"autoposter-core/infrastructure/configuration"
	"autoposter-core/infrastructure/logger"
	"autoposter-core/infrastructure/persistence"
	httpHandler "autoposter-core/interfaces/http"
	"autoposter-core/server"
	"autoposter-core/usecase"
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

	// Misconfiguration is a startup failure, not a first-request surprise.
	if err := configuration.Validate(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Configuration invalid")
		os.Exit(1)
	}

	app := configuration.C.App
	tiktokConfig := configuration.GetTikTokConfig()

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().WithField("vendor", vendor).Info("Database connected.")

	if vendor == "mssql" {
		err = persistence.EnsureCoreSchemaMSSQL(db)
	} else {
		err = persistence.EnsureCoreSchema(db)
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed ensuring core schema")
		os.Exit(1)
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - OAuth state falls back to in-memory storage")
		redisClient = nil
	}

	var userRepository repository.IUser
	var postRepository repository.IPost
	var tokenRepository repository.IOAuthToken
	if vendor == "mssql" {
		userRepository = persistence.NewUserRepositoryMSSQL(db)
		postRepository = persistence.NewPostRepositoryMSSQL(db)
		tokenRepository = persistence.NewOAuthTokenRepositoryMSSQL(db)
	} else {
		userRepository = persistence.NewUserRepository(db)
		postRepository = persistence.NewPostRepository(db)
		tokenRepository = persistence.NewOAuthTokenRepository(db)
	}

	tiktokClient := tiktok.NewTikTokClient(&tiktok.Config{
		BaseURL:            tiktokConfig.APIBaseURL,
		ChunkSize:          tiktokConfig.ChunkSize,
		StatusPollAttempts: tiktokConfig.StatusPollAttempts,
		StatusPollInterval: tiktokConfig.StatusPollInterval,
	})

	var oauthClient *tiktok.OAuthClient
	var refresher usecase.ITokenRefresher
	if tiktokConfig.OAuthConfigured() {
		oauthClient = tiktok.NewOAuthClient(tiktok.OAuthConfig{
			ClientKey:    tiktokConfig.ClientKey,
			ClientSecret: tiktokConfig.ClientSecret,
			RedirectURI:  tiktokConfig.RedirectURI,
			BaseURL:      tiktokConfig.APIBaseURL,
		})
		refresher = oauthClient
	} else {
		logger.GetLogger().Info("TikTok OAuth not configured - running in static-token mode only")
	}

	credentialUsecase := usecase.NewCredentialUsecase(tokenRepository, refresher, tiktokConfig.AccessToken)
	uploadUsecase := usecase.NewUploadUsecase(credentialUsecase, tiktokClient, postRepository, 5*time.Minute)
	userUsecase := usecase.NewUserUsecase(userRepository)

	userHandler := httpHandler.NewUserHandler(userUsecase, credentialUsecase)
	uploadHandler := httpHandler.NewUploadHandler(uploadUsecase)

	var tiktokOAuthHandler httpHandler.ITikTokOAuthHandler
	if oauthClient != nil {
		tiktokOAuthHandler = httpHandler.NewTikTokOAuthHandler(oauthClient, credentialUsecase, cache.NewStateStore(redisClient))
	}

	router := server.InitiateRouter(userHandler, uploadHandler, tiktokOAuthHandler, userRepository)

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
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

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the vendor: MSSQL in production or when DB_VENDOR
// forces it, PostgreSQL otherwise.
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		db, err := persistence.NewMSSQLDB()
		return db, "mssql", err
	}
	if env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		return db, "mssql", err
	}
	db, err := persistence.NewPostgreSQLDB()
	return db, "psql", err
}
