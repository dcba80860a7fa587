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

	"video-aggregator/domain/dto"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/cache"
	"video-aggregator/infrastructure/clients/catalog"
	"video-aggregator/infrastructure/clients/filehost"
	"video-aggregator/infrastructure/clients/mock"
	"video-aggregator/infrastructure/clients/upstream"
	youtubeclient "video-aggregator/infrastructure/clients/youtube"
	"video-aggregator/infrastructure/configuration"
	"video-aggregator/infrastructure/logger"
	"video-aggregator/infrastructure/persistence"
	"video-aggregator/infrastructure/realtime"
	"video-aggregator/infrastructure/utils"
	httpHandler "video-aggregator/interfaces/http"
	"video-aggregator/server"
	"video-aggregator/usecase"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()

	// Load env from files (non-destructive; OS env still has precedence), then re-read config
	if n := configuration.LoadEnvFromFile("config.env", ".env"); n > 0 {
		logger.GetLogger().WithField("vars", n).Info("Loaded env files")
		configuration.Init()
	}

	if len(os.Args) > 1 && os.Args[1] == "admin-token" {
		printAdminToken()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App
	cacheCfg := configuration.C.Cache

	redisClient := initiateRedis(ctx)
	shared := cache.NewRedisCache(redisClient)
	store := initiateSnapshotStore()

	providers := initiateProviders(ctx)
	mockProvider := mock.NewMockProvider(configuration.C.Mock.TotalPages, configuration.C.Mock.PerPage)

	videoUseCase := usecase.NewVideoUseCase(providers, mockProvider, shared, usecase.VideoConfig{
		PageTTL:         seconds(cacheCfg.PageTTLSec),
		VideoTTL:        seconds(cacheCfg.VideoTTLSec),
		SearchTTL:       seconds(cacheCfg.SearchTTLSec),
		CollectionTTL:   seconds(cacheCfg.CollectionTTLSec),
		StaleGrace:      seconds(cacheCfg.StaleGraceSec),
		MaxPages:        cacheCfg.MaxPages,
		LoadConcurrency: cacheCfg.LoadConcurrency,
		PerPage:         cacheCfg.PerPage,
	})
	if store != nil {
		videoUseCase.WithStore(store)
	}
	hub := realtime.NewCacheHub()
	broadcaster := cache.NewRedisBroadcaster(redisClient, uuid.NewString())
	videoUseCase.WithEvents(hub, broadcaster)

	router := server.InitiateRouter(
		httpHandler.NewVideoHandler(videoUseCase),
		httpHandler.NewAdminHandler(videoUseCase, hub),
		httpHandler.NewHealthHandler(videoUseCase),
		app.SecretKey,
		app.AllowedOrigins,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled, "providers": len(providers)}).Info("Starting application")
	g.Go(func() error {
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert != "" && key != "" {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		purge := func(ctx context.Context) {
			n, err := videoUseCase.PurgeExpired(ctx)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("snapshot purge failed")
				return
			}
			if n > 0 {
				logger.GetLogger().WithField("rows", n).Debug("snapshot rows purged")
			}
		}
		err := cache.RunSweeper(ctx, seconds(cacheCfg.SweepIntervalSec), purge, videoUseCase)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := broadcaster.Subscribe(ctx, func(evt dto.CacheEvent) {
			if err := videoUseCase.ApplyRemoteInvalidation(ctx, evt.Scope); err != nil {
				logger.GetLogger().WithField("error", err).Warn("peer invalidation rejected")
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		// a failed warm-up is not fatal, requests fall back through the chain
		if err := videoUseCase.Warmup(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.GetLogger().WithField("error", err).Warn("Warm-up did not complete")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
	logger.GetLogger().Info("Application stopped")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// initiateRedis connects Redis. A nil result disables the shared tier and peer invalidation
func initiateRedis(ctx context.Context) redis.UniversalClient {
	rc := configuration.C.RedisClient
	if rc.Host == "" {
		logger.GetLogger().Info("Redis not configured - shared cache tier disabled")
		return nil
	}
	client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password, rc.DB)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without shared cache")
		return nil
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return client
}

// initiateSnapshotStore opens the persistent snapshot: MSSQL in production or when DB_VENDOR=mssql, otherwise PostgreSQL
func initiateSnapshotStore() repository.IVideoCache {
	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Database not available - persistent snapshot disabled")
		return nil
	}
	if vendor == "mssql" {
		if err := persistence.EnsureVideoCacheSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring video cache schema")
			return nil
		}
		return persistence.NewVideoCacheRepositoryMSSQL(db)
	}
	if err := persistence.EnsureVideoCacheSchema(db); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring video cache schema")
		return nil
	}
	return persistence.NewVideoCacheRepository(db)
}

func InitiateDatabase() (*sql.DB, string, error) {
	vendor := configuration.C.Database.Vendor
	env := os.Getenv("ENV")
	if vendor == "" && (env == "production" || env == "prod") {
		vendor = "mssql"
	}
	switch vendor {
	case "mssql":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, vendor, fmt.Errorf("connect mssql: %w", err)
		}
		return db, vendor, nil
	case "none", "disabled":
		return nil, vendor, errors.New("database disabled")
	default:
		if configuration.C.Database.Psql.Host == "" {
			return nil, "postgres", errors.New("postgres host not configured")
		}
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, "postgres", fmt.Errorf("connect postgres: %w", err)
		}
		return db, "postgres", nil
	}
}

// initiateProviders builds the fallback chain in order: filehost, catalog, youtube
func initiateProviders(ctx context.Context) []repository.IVideoProvider {
	cfg := configuration.C.Providers
	var providers []repository.IVideoProvider

	if p := cfg.Filehost; p.Enabled {
		client, err := filehost.NewFilehostClient(&filehost.Config{
			Options:      providerOptions(p),
			APIKey:       p.APIKey,
			EmbedBaseURL: p.EmbedBaseURL,
		})
		providers = appendProvider(providers, filehost.ProviderName, client, err)
	}
	if p := cfg.Catalog; p.Enabled {
		client, err := catalog.NewCatalogClient(&catalog.Config{Options: providerOptions(p), APIKey: p.APIKey})
		providers = appendProvider(providers, catalog.ProviderName, client, err)
	}
	if p := cfg.YouTube; p.Enabled {
		client, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
			APIKey:       p.APIKey,
			BaseURL:      p.BaseURL,
			EmbedBaseURL: p.EmbedBaseURL,
			RegionCode:   p.RegionCode,
			Timeout:      p.Timeout(),
			RatePerSec:   p.RatePerSec,
			Burst:        p.Burst,
		})
		providers = appendProvider(providers, youtubeclient.ProviderName, client, err)
	}

	if len(providers) == 0 {
		logger.GetLogger().Warn("No upstream providers configured - serving mock data only")
	}
	return providers
}

func providerOptions(p configuration.Provider) upstream.Options {
	return upstream.Options{
		BaseURL:    p.BaseURL,
		Timeout:    p.Timeout(),
		RatePerSec: p.RatePerSec,
		Burst:      p.Burst,
	}
}

func appendProvider(providers []repository.IVideoProvider, name string, client repository.IVideoProvider, err error) []repository.IVideoProvider {
	if err != nil {
		logger.GetLogger().WithField("provider", name).WithField("error", err).Warn("Failed to initialize provider - skipping")
		return providers
	}
	logger.GetLogger().WithField("provider", name).Info("Provider initialized")
	return append(providers, client)
}

func printAdminToken() {
	secret := configuration.C.App.SecretKey
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SECRET_KEY is not set")
		os.Exit(1)
	}
	token, err := utils.GenerateAdminToken("cli", secret, 24*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
