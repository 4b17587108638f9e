package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"clipcast/internal/adapter/repo"
	"clipcast/internal/billing"
	"clipcast/internal/http/handlers"
	"clipcast/internal/http/httpapi"
	"clipcast/internal/infra"
	"clipcast/internal/providers/video"
	"clipcast/internal/service"
	"clipcast/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	ledger := repo.NewLedger(dbpool)
	jobs := repo.NewJobRepository(dbpool)

	gateway, err := video.NewClient(video.Options{
		APIKey:  cfg.GoogleAPIKey,
		BaseURL: cfg.VeoBaseURL,
		Model:   cfg.VeoModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build veo client")
	}

	var store storage.BlobStore
	var staticDir string
	switch cfg.StorageBackend {
	case "gcs":
		gcsStore, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build gcs store")
		}
		defer gcsStore.Close()
		store = gcsStore
	default:
		fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build file store")
		}
		store = fileStore
		staticDir = fileStore.BasePath()
	}

	materializer, err := service.NewMaterializer(service.MaterializerOptions{
		Store:     store,
		URLExpiry: cfg.SignedURLExpiry,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build materializer")
	}

	orchestrator := service.NewOrchestrator(ledger, jobs, gateway, materializer, logger)

	biller, err := billing.NewService(billing.Options{
		SecretKey:       cfg.StripeSecretKey,
		WebhookSecret:   cfg.StripeWebhookKey,
		SuccessURL:      cfg.FrontendBaseURL + "/?checkout=success",
		CancelURL:       cfg.FrontendBaseURL + "/?checkout=cancel",
		CreditsPerGrant: cfg.CreditsPerGrant,
		Logger:          logger,
	}, ledger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build billing service")
	}

	app := handlers.NewApp(orchestrator, ledger, biller, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AuthSecret: cfg.AuthSecret,
		Logger:     logger,
		StaticDir:  staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
