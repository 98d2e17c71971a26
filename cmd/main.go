package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/middleware"
	"github.com/mansoorceksport/tripdesk/internal/repository"
	"github.com/mansoorceksport/tripdesk/internal/server"
	"github.com/mansoorceksport/tripdesk/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting TripDesk Service...")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		Endpoint:       cfg.OTEL.Endpoint,
		URLPath:        cfg.OTEL.URLPath,
		InstanceID:     cfg.OTEL.InstanceID,
		Token:          cfg.OTEL.Token,
		SampleRatio:    cfg.OTEL.SampleRatio,
		Enabled:        cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenTelemetry: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: telemetry shutdown: %v", err)
			}
		}()
	}

	// Initialize Firebase (admin login and, optionally, the Firestore backend)
	var firebaseApp *firebase.App
	var authClient middleware.FirebaseTokenVerifier
	if cfg.Firebase.Enabled() {
		firebaseApp, err = middleware.InitFirebase(ctx,
			cfg.Firebase.ProjectID,
			cfg.Firebase.PrivateKey,
			cfg.Firebase.ClientEmail,
		)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		client, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to get Firebase Auth client: %v", err)
		}
		authClient = client
		log.Println("✓ Firebase initialized")
	}

	// Connect the document store
	stores, err := server.OpenStores(ctx, cfg, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Printf("Error closing document store: %v", err)
		}
	}()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Ping Redis to verify connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Redis connected")

	// Blob store is optional; media endpoints are disabled without it
	var fileRepo domain.FileRepository
	if cfg.S3.Endpoint != "" {
		s3Repo, err := repository.NewSeaweedS3Repository(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: Failed to initialize S3 repository: %v", err)
		} else {
			fileRepo = s3Repo
		}
	}

	// Initialize App using Server package
	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		PackageRepo: stores.Packages,
		MemberRepo:  stores.Members,
		SchemaRepo:  stores.Schemas,
		FileRepo:    fileRepo,
		RedisClient: redisClient,
		AuthClient:  authClient,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	// Start server
	log.Printf("🚀 Server starting on port %s (store: %s)", cfg.Server.Port, cfg.Store.Backend)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
