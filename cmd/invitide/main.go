package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"invitide/internal/auth"
	"invitide/internal/config"
	"invitide/internal/database"
	"invitide/internal/database/migrations"
	"invitide/internal/kafka"
	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/pass"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger(logger.Options{
		Service: "invitide",
		Level:   cfg.Log.Level,
		Dir:     cfg.Log.Dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Invitide initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ensureSecrets(cfg, log)

	if cfg.Database.AutoMigrate {
		if err := migrations.Migrate(cfg.Database.DSN, migrations.Options{}, log); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Migration failed: %v", err))
		}
	}

	bunDB, err := database.ConnectPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer redisClient.Close()

	var pub publisher = kafka.NopPublisher{}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		pub = kafka.NewPublisher(producer, cfg.Kafka.Topics, log)
	} else {
		log.Warn("KAFKA", "Kafka disabled, domain messages are dropped")
	}

	a := newApp(deps{
		DB:        bunDB,
		Redis:     redisClient,
		Publisher: pub,
		OIDC:      loadOIDC(ctx, cfg.Auth, log),
		Signer:    loadSigner(cfg.Pass, log),
		Config:    cfg,
		Logger:    log,
	})

	var background sync.WaitGroup
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventDeleted, cfg.Kafka.GroupID, log)
		background.Add(1)
		go func() {
			defer background.Done()
			defer consumer.Close()
			err := consumer.Run(ctx, func(ctx context.Context, msg models.EventDeletedMessage) error {
				_, err := a.RSVP.SweepEvent(ctx, msg.EventID)
				return err
			})
			if err != nil {
				log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
			}
		}()
	}

	background.Add(1)
	go func() {
		defer background.Done()
		a.RSVP.RunSweeper(ctx, cfg.Sweep.Interval)
	}()

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Invitide running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
	background.Wait()
	log.Info("HTTP", "Invitide shutdown complete")
}

// ensureSecrets fills missing signing keys with random ones. Sessions and QR
// codes issued with them do not survive a restart.
func ensureSecrets(cfg *config.Config, log *logger.Logger) {
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = randomSecret()
		log.Warn("CONFIG", "JWT_SECRET not set, using a random secret")
	}
	if cfg.QR.SecretKey == "" {
		cfg.QR.SecretKey = randomSecret()
		log.Warn("CONFIG", "QR_SECRET_KEY not set, using a random secret")
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}

func loadOIDC(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) auth.IDTokenVerifier {
	if cfg.OIDCIssuer == "" {
		log.Info("AUTH", "OIDC_ISSUER not set, OAuth sign-in disabled")
		return nil
	}
	verifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	if err != nil {
		log.Warn("AUTH", fmt.Sprintf("OAuth sign-in disabled: %v", err))
		return nil
	}
	log.Info("AUTH", fmt.Sprintf("OAuth sign-in enabled for %s", cfg.OIDCIssuer))
	return verifier
}

func loadSigner(cfg config.PassConfig, log *logger.Logger) pass.Signer {
	signer, err := pass.LoadSigner(cfg.CertificatePath, cfg.WWDRPath, cfg.SignerPassphrase)
	if err != nil {
		log.Warn("PASS", fmt.Sprintf("Pass signing disabled: %v", err))
		return nil
	}
	return signer
}
