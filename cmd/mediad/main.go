package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"transom/internal/adapters"
	"transom/internal/asrworker"
	"transom/internal/batchengine"
	"transom/internal/config"
	"transom/internal/daemon"
	"transom/internal/deps"
	"transom/internal/engine"
	"transom/internal/httpapi"
	"transom/internal/jobengine"
	"transom/internal/logging"
	"transom/internal/reaper"
	"transom/internal/registry"
)

func checkBinaryDeps(cfg *config.Config, logger *slog.Logger) {
	requirements := []deps.Requirement{
		{Name: "transcode", Command: cfg.Engine.TranscodeBinary, Description: "audio resampling for ASR/Demucs input"},
		{Name: "separate", Command: cfg.Engine.SeparateBinary, Description: "vocal stem separation"},
		{Name: "pack", Command: cfg.Engine.PackBinary, Description: "batch artifact archiving"},
		{Name: "asr-worker", Command: cfg.Engine.ASRWorkerBinary, Description: "long-lived speech recognition worker"},
	}
	for _, status := range deps.CheckBinaries(requirements) {
		if !status.Available {
			logger.Warn("external binary unavailable",
				logging.String("event_type", "preflight_binary_missing"),
				logging.String("name", status.Name),
				logging.String("detail", status.Detail))
		}
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	checkBinaryDeps(cfg, logger)

	ttl := time.Duration(cfg.Jobs.TTLSeconds) * time.Second

	asrSup := asrworker.New(asrworker.Config{
		Binary:              cfg.Engine.ASRWorkerBinary,
		StartupTimeout:      time.Duration(cfg.ASRWorker.StartupTimeoutSeconds) * time.Second,
		RequestTimeout:      time.Duration(cfg.ASRWorker.RequestTimeoutSeconds) * time.Second,
		IdleShutdownSeconds: cfg.ASRWorker.IdleShutdownSeconds,
	}, logger)

	jobDeps := jobengine.Deps{
		Transcoder: adapters.NewTranscoder(cfg.Engine.TranscodeBinary),
		Separator:  adapters.NewSeparator(cfg.Engine.SeparateBinary, cfg.Demucs.MP3Bitrate, cfg.Demucs.Jobs),
		Packer:     adapters.NewPacker(cfg.Engine.PackBinary),
		ASR:        asrSup,
		TTL:        ttl,
		Logger:     logger,
	}
	batchDeps := batchengine.Deps{
		Transcoder: adapters.NewTranscoder(cfg.Engine.TranscodeBinary),
		Separator:  adapters.NewSeparator(cfg.Engine.SeparateBinary, cfg.Demucs.MP3Bitrate, cfg.Demucs.Jobs),
		Packer:     adapters.NewPacker(cfg.Engine.PackBinary),
		ASR:        asrSup,
		TTL:        ttl,
		Logger:     logger,
	}

	reg := registry.New()
	queue := engine.New(logger)
	rpr := reaper.New(reg, cfg.Paths.JobsDir, cfg.Paths.BatchesDir, ttl, logger)

	d, err := daemon.New(cfg, logger, reg, queue, asrSup, rpr)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Stop()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Config:      cfg,
		Registry:    reg,
		Queue:       queue,
		JobRunner:   jobengine.New(jobDeps),
		BatchRunner: batchengine.New(batchDeps),
		ASR:         asrSup,
		TTL:         ttl,
		Logger:      logger,
	})

	server := &http.Server{Addr: cfg.Paths.APIBind, Handler: router}
	go func() {
		logger.Info("transomd listening", logging.String("event_type", "http_listen"), logging.String("addr", cfg.Paths.APIBind))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", logging.String("event_type", "http_server_error"), logging.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("transomd shutting down", logging.String("event_type", "daemon_shutdown"))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", logging.String("event_type", "http_shutdown_error"), logging.Error(err))
	}
}
