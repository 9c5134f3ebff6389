package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/counter"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/infra/google"
	"server/internal/middleware"
	"server/internal/providers/genai"
	"server/internal/providers/sketchai"
	"server/internal/sketch"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	backend := buildBackend(ctx, cfg, runner, logger)
	engine := sketch.NewEngine(backend, logger, cfg.BatchMaxConcurrency)

	app := handlers.NewApp(cfg, logger, runner, engine, fileStore)
	if cfg.GoogleClientID != "" {
		app.Verifier = google.NewVerifier("https://accounts.google.com", cfg.GoogleClientID)
	}

	var store counter.Store
	if cfg.RedisAddr != "" {
		redisStore := counter.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("api: redis unreachable, using in-memory rate limiting")
			store = counter.NewMemoryStore()
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	} else {
		store = counter.NewMemoryStore()
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip database unavailable")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{Store: store, Lookup: lookup})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}

// buildBackend selects the conversion backend. The gemini backend falls back
// to the stored integration key when the environment does not provide one.
func buildBackend(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger infra.Logger) sketch.Backend {
	if cfg.SketchProvider != "gemini" {
		logger.Info().Str("provider", cfg.SketchProvider).Msg("api: using local sketch backend")
		return sketchai.NewLocalBackend(logger)
	}

	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		credStore := credentials.NewStore(runner)
		keyFromStore, err := credStore.GeminiAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("api: failed to load gemini api key from store")
		} else {
			apiKey = keyFromStore
		}
	}

	client, err := genai.NewClient(genai.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure gemini client")
	}
	if apiKey == "" {
		logger.Warn().Str("model", client.Model()).Msg("api: gemini api key missing, responses will be synthetic")
	}
	return sketchai.NewRemoteBackend(client)
}
