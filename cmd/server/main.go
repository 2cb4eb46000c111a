package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/api"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/app"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	a, err := app.New(ctx, cfg, true, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	source, err := gdoc.NewGoogleSource(ctx, cfg.GoogleCredentialsFile, log)
	if err != nil {
		log.Error("google docs client", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline when the CMS is configured.
	var orch *pipeline.Orchestrator
	if a.Stories != nil {
		worker := pipeline.NewWorker(pipeline.WorkerDeps{
			Source:     source,
			Converter:  a.Converter,
			Metadata:   a.Extractor,
			Translator: a.Translator,
			Stories:    a.Stories,
			Component:  cfg.CMSComponent,
			Schema:     a.Schema,
			Templates:  a.Templates,
		}, log)
		orch = pipeline.NewOrchestrator(pipeline.Options{
			WorkerCount:  cfg.WorkerCount,
			MaxQueueSize: cfg.MaxQueueSize,
			JobTTL:       cfg.JobTTL,
		}, worker, log)
		orch.Start(ctx)
	} else {
		log.Warn("CMS credentials not set, publishing disabled")
	}

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Source:       source,
		Converter:    a.Converter,
		Metadata:     a.Extractor,
		Translator:   a.Translator,
		Schema:       a.Schema,
		Templates:    a.Templates,
		Orchestrator: orch,
		Stats:        a.Stats,
		Model:        a.Model(),
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if orch != nil {
			orch.Stop()
		}
		if err := a.Close(shutdownCtx); err != nil {
			log.Warn("close", "error", err)
		}
	}()

	log.Info("starting publisher", "port", cfg.Port, "provider", cfg.AIProvider, "model", a.Model(), "publish", orch != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
