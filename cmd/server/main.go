package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/config"
	"github.com/mamadbah2/remitos/internal/repository/mongodb"
	"github.com/mamadbah2/remitos/internal/repository/sheets"
	"github.com/mamadbah2/remitos/internal/scheduler"
	"github.com/mamadbah2/remitos/internal/server/handlers"
	"github.com/mamadbah2/remitos/internal/server/router"
	"github.com/mamadbah2/remitos/internal/service/extraction"
	"github.com/mamadbah2/remitos/internal/service/imaging"
	"github.com/mamadbah2/remitos/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/remitos/internal/service/reporting"
	"github.com/mamadbah2/remitos/internal/service/submission"
	"github.com/mamadbah2/remitos/pkg/clients/anthropic"
	"github.com/mamadbah2/remitos/pkg/clients/blobstore"
	"github.com/mamadbah2/remitos/pkg/clients/gemini"
	whatsappclient "github.com/mamadbah2/remitos/pkg/clients/whatsapp"
	"github.com/mamadbah2/remitos/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	// Without a ledger credential the service still starts; every append reports Misconfigured.
	var ledgerRepo sheets.Repository
	sheetsRepo, err := sheets.NewGoogleSheetRepository(initCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	switch {
	case errors.Is(err, sheets.ErrMissingCredentials):
		baseLogger.Warn("google sheets credentials missing, ledger writes will fail")
	case err != nil:
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	default:
		ledgerRepo = sheetsRepo
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(initCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	store, err := blobstore.NewGCSStore(initCtx, cfg.Storage.Bucket, cfg.Storage.CredentialsPath, cfg.Storage.PublicBaseURL)
	if err != nil {
		baseLogger.Fatal("failed to init blob store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	var textSource extraction.TextSource
	switch cfg.OCR.Provider {
	case "gemini":
		geminiClient, err := gemini.NewClient(initCtx, cfg.OCR.GeminiKey, cfg.OCR.GeminiModel)
		if err != nil {
			baseLogger.Fatal("failed to init gemini client", zap.Error(err))
		}
		defer func() { _ = geminiClient.Close() }()
		textSource = geminiClient
	default:
		textSource = anthropic.NewClient(cfg.OCR.AnthropicKey, cfg.OCR.AnthropicModel)
	}
	baseLogger.Info("ocr engine enabled", zap.String("provider", cfg.OCR.Provider))

	normalizer := imaging.NewNormalizer(cfg.Imaging.MaxWidth, cfg.Imaging.Quality)
	extractor := extraction.NewExtractor(textSource, cfg.OCR.Language, baseLogger.Named("svc.extraction"))
	writer := ledger.NewWriter(ledgerRepo, cfg.Sheets.SheetName, loc, baseLogger.Named("svc.ledger"))
	reportingSvc := reportingsvc.NewService(ledgerRepo, cfg.Sheets.SheetName, loc, baseLogger.Named("svc.reporting"))

	opts := []submission.Option{submission.WithBackup(mongoRepo), submission.WithLocation(loc)}
	var digestNotifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		opts = append(opts, submission.WithNotifier(whatsClient))
		digestNotifier = whatsClient
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, notifications disabled")
	}

	orchestrator := submission.NewOrchestrator(normalizer, extractor, store, writer, baseLogger.Named("svc.submission"), opts...)

	remitoHandler := handlers.NewRemitoHandler(orchestrator, mongoRepo, baseLogger.Named("handlers.remitos"))
	statsHandler := handlers.NewStatsHandler(reportingSvc, mongoRepo, baseLogger.Named("handlers.stats"))
	engine := router.New(remitoHandler, statsHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, mongoRepo, reportingSvc, mongoRepo, digestNotifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
