package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vnkhanh/mente-abundante-backend/config"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/middleware"
	"github.com/vnkhanh/mente-abundante-backend/observability"
	"github.com/vnkhanh/mente-abundante-backend/routes"
	"github.com/vnkhanh/mente-abundante-backend/services"
	"github.com/vnkhanh/mente-abundante-backend/utils"
	"github.com/vnkhanh/mente-abundante-backend/ws"
)

// @title           Mente Abundante API
// @version         1.0
// @description     Curriculum of movie sections with TMDB import, streaming offers and instructor videos.
// @host            localhost:8080
// @BasePath        /api

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_token
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("database init failed", "error", err)
	}

	// Both the catalog cache and the login limiter are optional.
	var rdb redis.Cmdable
	var redisClient *redis.Client
	var catalogCache services.CatalogCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", "error", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing without cache", "error", err)
		}
		rdb = redisClient
		catalogCache = services.NewRedisCatalogCache(redisClient)
	}

	if cfg.TMDBAPIKey == "" {
		log.Warn("TMDB_API_KEY not set; catalog calls will fail")
	}
	tmdb := services.NewTMDBClient(services.TMDBConfig{
		APIKey:       cfg.TMDBAPIKey,
		BaseURL:      cfg.TMDBBaseURL,
		ImageBaseURL: cfg.TMDBImageBaseURL,
		Language:     cfg.TMDBLanguage,
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Cache:    catalogCache,
		CacheTTL: cfg.CatalogCacheTTL,
	}, log)

	authService, err := services.NewAuthService(db, log, services.AuthConfig{
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		log.Fatal("auth service init failed", "error", err)
	}
	movieService := services.NewMovieService(db, tmdb, cfg.TMDBRegion, log)
	storageService, err := services.NewStorageService(services.StorageConfig{
		Driver: cfg.StorageDriver,
		URL:    cfg.SupabaseURL,
		Key:    cfg.SupabaseKey,
		Bucket: cfg.SupabaseBucket,
		S3: services.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSEndpoint,
			Bucket:          cfg.S3Bucket,
			UseSSL:          cfg.S3UseSSL,
		},
	}, log)
	if err != nil {
		log.Fatal("storage init failed", "error", err)
	}
	if !storageService.Enabled() {
		log.Warn("storage credentials not set; uploads disabled", "driver", cfg.StorageDriver)
	}

	hub := ws.NewHub(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestLogger(log))

	routes.SetupRouter(r, routes.Deps{
		DB:              db,
		Log:             log,
		Auth:            authService,
		Sections:        services.NewSectionService(db, movieService, log),
		Movies:          movieService,
		Videos:          services.NewVideoService(db, log),
		Progress:        services.NewProgressService(db, log),
		Stats:           services.NewStatsService(db),
		Storage:         storageService,
		Catalog:         tmdb,
		Region:          cfg.TMDBRegion,
		Hub:             hub,
		AllowedOrigins:  cfg.CORSOrigins,
		SecureCookie:    cfg.IsProduction(),
		EnableDocs:      !cfg.IsProduction(),
		Redis:           rdb,
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
	})

	cleanupDone := utils.StartCleanupJob(ctx, authService, cfg.SessionCleanupInterval, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server running", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	hub.Close()
	<-cleanupDone
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if err := config.CloseDB(db); err != nil {
		log.Warn("database close failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "error", err)
	}
}
