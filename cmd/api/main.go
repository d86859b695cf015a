package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/adapters/cache"
	"github.com/plantmd/backend/internal/adapters/database"
	"github.com/plantmd/backend/internal/adapters/search"
	"github.com/plantmd/backend/internal/api/handlers"
	"github.com/plantmd/backend/internal/api/middleware"
	"github.com/plantmd/backend/internal/api/routes"
	"github.com/plantmd/backend/internal/application/services"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/internal/domain/repositories"
	"github.com/plantmd/backend/internal/infrastructure/clients/classifier"
	"github.com/plantmd/backend/internal/infrastructure/clients/postgres"
	"github.com/plantmd/backend/internal/infrastructure/clients/redis"
	"github.com/plantmd/backend/internal/infrastructure/clients/typesense"
	"github.com/plantmd/backend/internal/infrastructure/observability"
	"github.com/plantmd/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// The disease database is required; the server cannot answer lookups
	// without it.
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional; without it responses just aren't cached.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without response caching")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Typesense is optional; without it lookups skip the fuzzy strategy.
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, fuzzy disease matching disabled")
		typesenseClient = nil
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	diseaseAdapter := database.NewDiseaseAdapter(pgClient)
	cureAdapter := database.NewCureAdapter(pgClient)

	var searchRepo repositories.DiseaseSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		} else {
			searchRepo = adapter
		}
	}

	lookupService := services.NewDiseaseLookupService(diseaseAdapter, cureAdapter, searchRepo)
	classifierClient := classifier.NewClient(&cfg.Classifier)

	// Nil optionals must stay nil interfaces so the health check reports
	// them as disabled instead of pinging a nil client.
	var cachePinger, searchPinger handlers.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	if typesenseClient != nil {
		searchPinger = typesenseClient
	}

	analyzeHandler := handlers.NewAnalyzeHandler(classifierClient, cfg, metrics)
	predictHandler := handlers.NewPredictHandler(lookupService, metrics)
	healthHandler := handlers.NewHealthHandler(pgClient, cachePinger, searchPinger)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	router := routes.NewRouter(
		analyzeHandler,
		predictHandler,
		healthHandler,
		cacheMiddleware,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // analyze proxies a 30s upstream call
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
