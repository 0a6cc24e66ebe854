// cmd/scribe-api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scribe-api/internal/api"
	"scribe-api/internal/common/auth"
	"scribe-api/internal/common/aws"
	"scribe-api/internal/common/config"
	"scribe-api/internal/common/database"
	"scribe-api/internal/common/logger"
	"scribe-api/internal/common/observability"
	"scribe-api/internal/notify"
	"scribe-api/internal/retention"
	"scribe-api/internal/search"
	"scribe-api/internal/session"
	"scribe-api/internal/store"
	"scribe-api/internal/ws"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scribe-api...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	obs := observability.New("scribe-api")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Search)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Session store: Redis when configured, in-process otherwise ---
	maxAge := time.Duration(cfg.Session.MaxAgeSeconds) * time.Second
	var sessions session.Store
	if cfg.Session.RedisURL != "" {
		sessionRedis, err := database.NewRedisFromURL(cfg.Session.RedisURL)
		if err != nil {
			zapLog.Fatal("session redis failed", zap.Error(err))
		}
		defer sessionRedis.Close()
		sessions = session.NewRedisStore(sessionRedis, maxAge)
		zapLog.Info("Session store on Redis", zap.String("url", cfg.Session.RedisURL))
	} else {
		sessions = session.NewMemoryStore(maxAge)
		zapLog.Warn("Session store in memory, sessions die with the process")
	}

	// --- SES mailer ---
	sesClient, err := aws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}

	hub := ws.NewHub(log)
	relay := ws.NewRelay(
		cfg.Inference.UpstreamURL,
		time.Duration(cfg.Inference.TimeoutSeconds)*time.Second,
		log,
	)

	jobs := store.NewJobStore(pg)
	users := store.NewUserStore(pg)
	index := search.NewTranscriptIndex(esClient, cfg.Search.Index, log)
	notifier := notify.New(sesClient, cfg.AWS.SenderEmail, log)
	uploadDir := "data/uploads"

	apiServer := api.New(api.Deps{
		Config:    cfg,
		Logger:    log,
		OIDC:      auth.NewOIDCClient(cfg.Auth.OIDC),
		Sessions:  sessions,
		Cookies:   session.NewCookieCodec(cfg.Session.StorageSecret, maxAge, cfg.App.Environment == "production"),
		Jobs:      jobs,
		Users:     users,
		Groups:    store.NewGroupStore(pg),
		Customers: store.NewCustomerStore(pg),
		Health:    store.NewHealthStore(redis),
		Index:     index,
		Notifier:  notifier,
		Hub:       hub,
		Relay:     relay,
		DB:        pg,
		Obs:       obs,
		UploadDir: uploadDir,
	})

	// --- Retention reaper ---
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	reaper := retention.NewReaper(retention.Deps{
		Jobs:      jobs,
		Users:     users,
		Index:     index,
		Notifier:  notifier,
		UploadDir: uploadDir,
		Logger:    log,
	})
	go reaper.Run(reaperCtx)

	// --- Metrics & pprof sidecar ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status": "healthy", "time": %q}`, time.Now().Format(time.RFC3339))
		})
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("API server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	zapLog.Info("scribe-api stopped gracefully")
}
