package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minwoo/facetrack/internal/api"
	"github.com/minwoo/facetrack/internal/config"
	"github.com/minwoo/facetrack/internal/logger"
	"github.com/minwoo/facetrack/internal/matcher"
	"github.com/minwoo/facetrack/internal/notifier"
	"github.com/minwoo/facetrack/internal/repository"
	"github.com/minwoo/facetrack/internal/service"
	"github.com/minwoo/facetrack/internal/storage"
)

func main() {
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}

	identityRepo := repository.NewIdentityRepository(db)
	cameraRepo := repository.NewCameraRepository(db)
	appearanceRepo := repository.NewAppearanceRepository(db)
	imageRepo := repository.NewImageRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)

	// The embedding cache must be fully warmed before the server accepts
	// detections; matching against a partially loaded cache would register
	// duplicate identities for people we already know.
	cache := matcher.NewCache(embeddingRepo)
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := cache.Warm(warmCtx); err != nil {
		cancelWarm()
		log.WithError(err).Fatal("Failed to warm embedding cache")
	}
	cancelWarm()
	log.WithField("count", cache.Len()).Info("Embedding cache warmed")

	var snapshots storage.SnapshotStorage
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize snapshot storage")
		}
		if s3, ok := s3Store.(*storage.S3Storage); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s3.EnsureBucket(ctx); err != nil {
				cancel()
				log.WithError(err).Fatal("Failed to ensure snapshot bucket")
			}
			cancel()
		}
		snapshots = s3Store
	}

	resolver := service.NewResolver(
		cameraRepo,
		identityRepo,
		appearanceRepo,
		imageRepo,
		cache,
		cfg.Matcher.Threshold,
		log,
	)

	var created service.Notifier
	if wh := notifier.NewWebhook(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, log); wh != nil {
		created = wh
	}

	pipeline := service.NewPipeline(resolver, created, log, &service.PipelineConfig{
		Workers:    cfg.Pipeline.Workers,
		Dimensions: cfg.Matcher.Dimensions,
	})

	router := api.SetupRouter(cfg, log, &api.Handlers{
		Pipeline:    pipeline,
		Identities:  identityRepo,
		Cameras:     cameraRepo,
		Appearances: appearanceRepo,
		Images:      imageRepo,
		Storage:     snapshots,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}
