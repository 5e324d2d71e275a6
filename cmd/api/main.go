package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-notes-api/internal/config"
	"github.com/go-notes-api/internal/infrastructure/dynamo"
	"github.com/go-notes-api/internal/infrastructure/gemini"
	"github.com/go-notes-api/internal/infrastructure/google"
	jwtinfra "github.com/go-notes-api/internal/infrastructure/jwt"
	s3infra "github.com/go-notes-api/internal/infrastructure/s3"
	"github.com/go-notes-api/internal/infrastructure/smtp"
	"github.com/go-notes-api/internal/infrastructure/sns"
	"github.com/go-notes-api/internal/pkg/password"
	transporthttp "github.com/go-notes-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// The JWT provider guards every protected route; without it the server
	// must not start.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3 store for attachments.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// Gemini summarizer (optional — summarize endpoint degrades gracefully).
	var summarizer *gemini.Client
	if c, err := gemini.NewClient(cfg); err == nil {
		summarizer = c
	} else {
		log.Printf("WARN: summarizer not available: %v", err)
	}

	// Google sign-in (optional).
	var googleVerifier *google.Verifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARN: GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	// SNS registration events (optional — graceful fallback).
	var events sns.EventPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		events = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	// Welcome mail (optional).
	var mailer smtp.Mailer
	if cfg.SMTPHost != "" {
		mailer = smtp.NewMailer(cfg)
	}

	deps := &transporthttp.Deps{
		UserRepo:       dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		NoteRepo:       dynamo.NewNoteRepo(dynamoClient, cfg.DynamoTables.Notes),
		AttachmentRepo: dynamo.NewAttachmentRepo(dynamoClient, cfg.DynamoTables.Attachments),
		S3Store:        s3Store,
		Hasher:         password.NewHasher(cfg.BcryptCost),
		JWTProvider:    jwtProvider,
		GoogleVerifier: googleVerifier,
		Summarizer:     summarizer,
		Events:         events,
		Mailer:         mailer,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
