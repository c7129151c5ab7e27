package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wardsync/cache"
	"wardsync/classifier"
	"wardsync/config"
	"wardsync/metrics"
	"wardsync/routes"
	"wardsync/services"
	"wardsync/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		st      store.Store
		ready   func(context.Context) error
		counter cache.Counter
		deny    cache.Denylist
	)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemory()
	default:
		client, db, err := config.ConnectDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		mongoStore := store.NewMongo(client, db)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		st, ready = mongoStore, mongoStore.Health
	}

	if cfg.UsesRedis() {
		rdb, err := config.ConnectRedis(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		counter, deny = cache.NewRedisCounter(rdb), cache.NewRedisDenylist(rdb)
	} else {
		mem := cache.NewMemory()
		counter, deny = mem, mem
	}

	var cls classifier.Classifier = classifier.Static{Result: classifier.Fallback}
	if cfg.ClassifierURL != "" {
		cls = classifier.NewHTTP(cfg.ClassifierURL, cfg.ClassifierTimeout, logger.Named("classifier"))
	} else {
		logger.Warn("CLASSIFIER_URL not set, complaints get the fallback classification")
	}

	m := metrics.New()
	svc := services.New(services.Deps{
		Store:      st,
		Classifier: cls,
		Denylist:   deny,
		Metrics:    m,
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
	})

	if cfg.SeedWardsFile != "" {
		if err := seedWards(ctx, svc.Wards, cfg.SeedWardsFile); err != nil {
			return err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.NewRouter(routes.Deps{
		Services:            svc,
		Counter:             counter,
		Metrics:             m,
		Logger:              logger,
		Production:          cfg.IsProduction(),
		CORSOrigins:         routes.SplitOrigins(cfg.CORSOrigin),
		RateLimitPrefix:     cfg.ComplaintLimitPrefix,
		DailyComplaintLimit: cfg.ComplaintDailyLimit,
		Ready:               ready,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedWards(ctx context.Context, wards *services.WardService, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ward seed: %w", err)
	}
	var seed []services.CreateWardInput
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse ward seed: %w", err)
	}
	if _, err := wards.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed wards: %w", err)
	}
	return nil
}
