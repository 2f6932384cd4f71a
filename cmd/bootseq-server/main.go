package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelworks/bootseq/pkg/announce"
	"github.com/kestrelworks/bootseq/pkg/api"
	"github.com/kestrelworks/bootseq/pkg/export"
	"github.com/kestrelworks/bootseq/pkg/journal"
	"github.com/kestrelworks/bootseq/pkg/logging"
	"github.com/kestrelworks/bootseq/pkg/postgres"
)

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	addr := flag.String("addr", envDefault("BOOTSEQ_ADDR", ":8080"), "Listen address")
	jwtSecret := flag.String("jwt-secret", os.Getenv("BOOTSEQ_JWT_SECRET"), "JWT signing secret (>= 32 chars)")
	adminPassword := flag.String("admin-password", os.Getenv("BOOTSEQ_ADMIN_PASSWORD"), "Initial admin password")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("BOOTSEQ_POSTGRES_DSN"), "PostgreSQL DSN; empty disables persistence")
	journalDir := flag.String("journal", os.Getenv("BOOTSEQ_JOURNAL_DIR"), "Plan journal directory; empty disables journaling")
	exportDir := flag.String("export-dir", os.Getenv("BOOTSEQ_EXPORT_DIR"), "Local plan export directory")
	s3Bucket := flag.String("s3-bucket", os.Getenv("BOOTSEQ_S3_BUCKET"), "S3 bucket for plan export; empty disables")
	s3Region := flag.String("s3-region", envDefault("BOOTSEQ_S3_REGION", "us-east-1"), "S3 region")
	s3Prefix := flag.String("s3-prefix", os.Getenv("BOOTSEQ_S3_PREFIX"), "S3 key prefix")
	s3Endpoint := flag.String("s3-endpoint", os.Getenv("BOOTSEQ_S3_ENDPOINT"), "Custom S3 endpoint (S3-compatible stores)")
	announceAddr := flag.String("announce", os.Getenv("BOOTSEQ_ANNOUNCE_ADDR"), "Event publisher bind address; empty disables")
	logLevel := flag.String("log-level", envDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := api.Config{
		JWTSecret:     *jwtSecret,
		AdminPassword: *adminPassword,
		Logger:        logger,
	}

	if *postgresDSN != "" {
		store, err := postgres.New(ctx, *postgresDSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer store.Close()
		if err := store.CreateSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		cfg.Store = store
		logger.Info("postgres persistence enabled")
	}

	if *journalDir != "" {
		j, err := journal.Open(*journalDir)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		defer j.Close()
		cfg.Journal = j
		logger.Info("plan journal enabled", logging.Path(*journalDir))
	}

	switch {
	case *s3Bucket != "":
		exp, err := export.NewS3Exporter(ctx, export.S3Config{
			Region:          *s3Region,
			Bucket:          *s3Bucket,
			Prefix:          *s3Prefix,
			Endpoint:        *s3Endpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			log.Fatalf("s3 exporter: %v", err)
		}
		cfg.Exporter = exp
		logger.Info("s3 export enabled", logging.String("bucket", *s3Bucket))
	case *exportDir != "":
		cfg.Exporter = export.NewDirExporter(*exportDir)
		logger.Info("directory export enabled", logging.Path(*exportDir))
	}

	if *announceAddr != "" {
		pub, err := announce.NewPublisher(*announceAddr)
		if err != nil {
			log.Fatalf("announce: %v", err)
		}
		defer pub.Close()
		cfg.Publisher = pub
		logger.Info("event publisher enabled", logging.String("addr", *announceAddr))
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(*addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown", logging.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("listen: %v", err)
		}
	}
}
