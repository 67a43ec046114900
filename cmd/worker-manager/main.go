package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"insurance-quote-workers/internal/catalog"
	awsclients "insurance-quote-workers/internal/common/aws"
	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/database"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/observability"
	"insurance-quote-workers/internal/survey"

	sqn "insurance-quote-workers/internal/workers/notification/send-quote-notification"
	cps "insurance-quote-workers/internal/workers/quote/create-plan-selection"
	rp "insurance-quote-workers/internal/workers/quote/recommend-plans"
	vsa "insurance-quote-workers/internal/workers/quote/validate-survey-answers"
	rsr "insurance-quote-workers/internal/workers/session/resolve-session-role"
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
			delay *= 2
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
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogSource", cfg.Quote.CatalogSource),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres setup failed", zap.Error(err))
	}
	err = retryWithBackoff(func() error {
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	ready := map[string]pinger{
		"zeebe":    pingFunc(zeebe.HealthCheck),
		"postgres": pg,
		"redis":    redis,
	}

	// --- Plan catalog ---
	plans, err := buildCatalog(ctx, cfg, pg, redis, ready, log, zapLog)
	if err != nil {
		zapLog.Fatal("catalog setup failed", zap.Error(err))
	}

	// --- AWS ---
	awsCfg, err := awsclients.Load(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.AWS.Endpoint)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	aws := awsclients.NewClients(awsCfg)

	answers := survey.NewStore(redis.Client, cfg.Quote.AnswersDuration())

	// --- Workers ---
	workers := camunda.NewWorkers(zeebe.GetClient(), zapLog)

	validateHandler := vsa.NewHandler(vsa.HandlerOptions{AppConfig: cfg, Store: answers, Logger: log})
	workers.Start(vsa.TaskType, config.GetWorkerConfig(cfg, vsa.TaskType), obs.Instrument(vsa.TaskType, validateHandler.Handle))

	recommendHandler := rp.NewHandler(rp.HandlerOptions{AppConfig: cfg, Catalog: plans, Store: answers, Logger: log})
	workers.Start(rp.TaskType, config.GetWorkerConfig(cfg, rp.TaskType), obs.Instrument(rp.TaskType, recommendHandler.Handle))

	selectionHandler := cps.NewHandler(cps.HandlerOptions{AppConfig: cfg, DB: pg.DB, Logger: log})
	workers.Start(cps.TaskType, config.GetWorkerConfig(cfg, cps.TaskType), obs.Instrument(cps.TaskType, selectionHandler.Handle))

	notifyHandler := sqn.NewHandler(sqn.HandlerOptions{AppConfig: cfg, DB: pg.DB, SES: aws.SES, SNS: aws.SNS, Logger: log})
	workers.Start(sqn.TaskType, config.GetWorkerConfig(cfg, sqn.TaskType), obs.Instrument(sqn.TaskType, notifyHandler.Handle))

	sessionHandler := rsr.NewHandler(rsr.HandlerOptions{AppConfig: cfg, Logger: log})
	workers.Start(rsr.TaskType, config.GetWorkerConfig(cfg, rsr.TaskType), obs.Instrument(rsr.TaskType, sessionHandler.Handle))

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))

	// --- Health & Metrics Server ---
	mux := healthMux(ready)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildCatalog picks the configured plan source and stacks the Redis cache and
// the in-process copy in front of it when their TTLs are set. A search-backed
// catalog joins the readiness checks.
func buildCatalog(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, redis *database.RedisClient, ready map[string]pinger, log logger.Logger, zapLog *zap.Logger) (catalog.Source, error) {
	var source catalog.Source

	switch cfg.Quote.CatalogSource {
	case config.CatalogSourceElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch, cfg.Quote.CatalogIndex)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Quote.CatalogIndex))
		ready["elasticsearch"] = es

		source, err = catalog.NewElasticsearchSource(es.Client, cfg.Quote.CatalogIndex, log)
		if err != nil {
			return nil, err
		}
	default:
		source = catalog.NewPostgresSource(pg.DB, log)
	}

	if ttl := cfg.Quote.CatalogCacheDuration(); ttl > 0 {
		source = catalog.NewCachedSource(source, redis.Client, ttl, log)
	}
	if ttl := cfg.Quote.CatalogMemoryDuration(); ttl > 0 {
		return catalog.NewMemorySource(source, ttl)
	}
	return source, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// healthMux serves liveness, readiness over deps, and the Prometheus registry.
func healthMux(deps map[string]pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = err.Error()
				status, code = "not_ready", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
