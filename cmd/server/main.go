package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docstracker/internal/auth"
	"docstracker/internal/config"
	"docstracker/internal/email/noop"
	"docstracker/internal/email/ses"
	"docstracker/internal/handler"
	"docstracker/internal/port"
	"docstracker/internal/router"
	"docstracker/internal/service"
	s3storage "docstracker/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server: exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := config.NewLogger(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize auth (set DOCSTRACKER_AUTH_SECRET): %w", err)
	}
	if cfg.Server.BaseDir == "" {
		log.Warn("server: DOCSTRACKER_SERVER_BASE_DIR is empty, request path overrides are disabled")
	}

	// Initialize artifact store
	var store port.ArtifactStore
	if cfg.Output.Publish {
		s, err := s3storage.NewArtifactStore(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		store = s
	}

	// Initialize notifier
	var notifier port.RunNotifier
	if cfg.Email.Provider == "ses" {
		n, err := ses.NewSESNotifier(ctx, cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		notifier = n
	} else {
		notifier = noop.NewNoopNotifier(log)
	}

	// Initialize services and handlers
	svc := service.NewReconcileService(store, notifier, cfg, log)
	runH := handler.NewRunHandler(svc, service.RunInputFromConfig(cfg), cfg.Server.BaseDir)
	healthH := handler.NewHealthHandler(cfg.Reference.Dir)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Setup(log, cfg.CORS.AllowedOrigins, tokens, runH, healthH),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Port).Info("server: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
