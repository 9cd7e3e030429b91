package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nmoreau/go-image-pipeline/internal/auth"
	"github.com/nmoreau/go-image-pipeline/internal/config"
	"github.com/nmoreau/go-image-pipeline/internal/handlers"
	"github.com/nmoreau/go-image-pipeline/internal/intake"
	"github.com/nmoreau/go-image-pipeline/internal/storage"
	"github.com/nmoreau/go-image-pipeline/internal/store"
	"github.com/nmoreau/go-image-pipeline/internal/transform"
	"github.com/nmoreau/go-image-pipeline/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.User{}, &models.Image{}); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate models")
	}

	originals, processed, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)
	users := store.NewUsers(db)
	images := store.NewImages(db)
	engine := transform.NewEngine(originals, processed, cfg.Transform)
	in := intake.New(originals, cfg.MaxUploadBytes, cfg.AllowedMimeTypes)

	authHandler := handlers.NewAuthHandler(users, tokens)
	imagesHandler := handlers.NewImagesHandler(in, engine, images, processed)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/api/images", func(r chi.Router) {
		r.Use(tokens.Middleware)
		r.Use(httprate.Limit(
			20,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))
		r.Post("/upload", imagesHandler.Upload)
		r.Get("/", imagesHandler.List)
		r.Get("/{imageID}", imagesHandler.GetByID)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, closing server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func buildStorage(ctx context.Context, cfg *config.Config) (storage.BlobStore, storage.BlobStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		client, err := storage.NewS3Client(ctx, cfg.S3AccountID, cfg.S3AccessKeyID, cfg.S3AccessKeySecret)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewS3Store(client, cfg.S3Bucket, "originals/"),
			storage.NewS3Store(client, cfg.S3Bucket, "processed/"), nil
	default:
		originals, err := storage.NewDiskStore(cfg.OriginalsDir)
		if err != nil {
			return nil, nil, err
		}
		processed, err := storage.NewDiskStore(cfg.ProcessedDir)
		if err != nil {
			return nil, nil, err
		}
		return originals, processed, nil
	}
}
