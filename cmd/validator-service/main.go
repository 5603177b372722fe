package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/flameborn/validator/internal/auth"
	"github.com/flameborn/validator/internal/catalog"
	"github.com/flameborn/validator/internal/config"
	"github.com/flameborn/validator/internal/directory"
	"github.com/flameborn/validator/internal/events"
	"github.com/flameborn/validator/internal/httpserver"
	"github.com/flameborn/validator/internal/relay"
	"github.com/flameborn/validator/internal/review"
	"github.com/flameborn/validator/internal/store"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a signed bearer token for the given wallet and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[startup] config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.Production() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	slog.SetDefault(logger)

	verifier := auth.NewVerifier(cfg)
	if *issueToken != "" {
		token, err := verifier.IssueToken(*issueToken, nil, *tokenTTL)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	dir := directory.New(st, cfg.DefaultReputation, logger.With("component", "directory"))
	if cfg.BootstrapAdmin != "" {
		created, err := dir.EnsureAdmin(ctx, cfg.BootstrapAdmin)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("registered bootstrap admin %s", cfg.BootstrapAdmin)
		}
	}
	cat := catalog.New(st, logger.With("component", "catalog"))
	if cfg.CourseSeedFile != "" {
		n, err := cat.LoadSeed(ctx, cfg.CourseSeedFile)
		if err != nil {
			log.Fatalf("course seed: %v", err)
		}
		log.Printf("seeded %d courses from %s", n, cfg.CourseSeedFile)
	}
	engine := review.New(st, cat, dir, logger.With("component", "review"))

	outboxRelay, err := startRelay(ctx, cfg, st, logger.With("component", "relay"))
	if err != nil {
		log.Fatalf("relay init: %v", err)
	}

	server := httpserver.New(cfg, engine, dir, cat, st, verifier)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("validator service listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	waitForShutdown(cancel, httpServer, outboxRelay)
}

// openStore connects to Postgres when a URL is configured and falls back to
// the in-memory store for local development.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		if cfg.Production() {
			log.Fatalf("[startup] VALIDATOR_DATABASE_URL is required in production")
		}
		log.Printf("no database configured; using in-memory store")
		return store.NewMemoryStore(), func() {}
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	st := store.NewPGStore(db)
	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("db schema: %v", err)
	}
	return st, func() { db.Close() }
}

// startRelay wires the configured sinks. With neither Kafka nor S3 configured
// the outbox is left untouched for a later deployment to drain.
func startRelay(ctx context.Context, cfg config.Config, outbox store.EventOutbox, logger *slog.Logger) (*relay.Relay, error) {
	var (
		publisher events.Publisher
		archiver  events.Archiver
	)
	if cfg.KafkaEnabled() {
		p, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return nil, err
		}
		publisher = p
	}
	if cfg.ArchiveEnabled() {
		a, err := events.NewS3Archiver(ctx, cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			return nil, err
		}
		archiver = a
	}
	if publisher == nil && archiver == nil {
		log.Printf("no event sinks configured; outbox relay disabled")
		return nil, nil
	}

	r := relay.New(outbox, publisher, archiver, cfg.RelayBatchSize, logger)
	if err := r.Start(ctx, cfg.RelayInterval); err != nil {
		return nil, err
	}
	return r, nil
}

func waitForShutdown(cancel context.CancelFunc, srv *http.Server, outboxRelay *relay.Relay) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if outboxRelay != nil {
		if err := outboxRelay.Shutdown(); err != nil {
			log.Printf("relay shutdown: %v", err)
		}
	}
	cancel()
}
