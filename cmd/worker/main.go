package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"flume/config"
	"flume/internal/messaging/consumer"
	worker "flume/processing"
	"flume/processing/push"
	"flume/storage/store"
)

const defaultConfigPath = "./config/worker.defaults.yml"

func main() {
	logger := logrus.WithField("service", "worker")
	logger.Info("Starting processing worker service...")

	_ = godotenv.Load()

	configPath := os.Getenv("FLUME_WORKER_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadWorkerConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load worker configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.WithField("backend", cfg.Store.Backend).Info("Initializing tenant store...")
	tenantStore, err := store.NewFromConfig(ctx, cfg.Store, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize tenant store")
	}
	defer tenantStore.Close()

	delay := worker.PerCharDelay{PerChar: cfg.DelayPerChar}

	var wg sync.WaitGroup
	var httpServer *http.Server
	var consumers []consumer.Consumer

	switch cfg.Mode {
	case config.WorkerModePull:
		logger.WithField("count", cfg.KafkaConsumer.Count).Info("Initializing Kafka consumers...")
		for i := 0; i < cfg.KafkaConsumer.Count; i++ {
			c, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
			if err != nil {
				logger.WithError(err).Fatalf("failed to initialize Kafka consumer %d", i)
			}
			consumers = append(consumers, c)
		}

		for i, c := range consumers {
			w := worker.New(logger.WithField("worker", i+1), tenantStore, c, delay, cfg.ConsumerRetryDelay)
			wg.Add(1)
			go func(id int, w *worker.Worker) {
				defer wg.Done()
				logger.Infof("worker %d started", id)
				w.Run(ctx)
				logger.Infof("worker %d stopped", id)
			}(i+1, w)
		}

	case config.WorkerModePush:
		// Push mode: the channel delivers over HTTP; the worker needs no
		// consumer of its own.
		w := worker.New(logger, tenantStore, nil, delay, cfg.ConsumerRetryDelay)
		pushHandler := push.NewHandler(w, logger)
		logger.Info("push delivery endpoint enabled")
		httpServer = newHTTPServer(cfg, pushHandler, logger)
	}

	// In pull mode the HTTP listener is optional and serves only health and
	// metrics.
	if httpServer == nil && cfg.HttpListenAddr != "" {
		httpServer = newHTTPServer(cfg, nil, logger)
	}

	if httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.WithField("addr", cfg.HttpListenAddr).Info("HTTP server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("HTTP server startup failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("shutting down worker service...")
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown failed")
		}
	}

	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.WithError(err).Error("consumer close failed")
		}
	}

	wg.Wait()
	logger.Info("worker service shut down")
}

func newHTTPServer(cfg *config.WorkerConfig, pushHandler *push.Handler, logger *logrus.Entry) *http.Server {
	mux := http.NewServeMux()
	if pushHandler != nil {
		mux.HandleFunc("/process", pushHandler.Deliver)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"service":   "worker",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}); err != nil {
			logger.WithError(err).Error("failed to encode health response")
		}
	})
	if cfg.Monitoring.EnableMetrics {
		mux.Handle(cfg.Monitoring.MetricsPath, promhttp.Handler())
	}

	return &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    cfg.HttpServer.ReadTimeout,
		WriteTimeout:   cfg.HttpServer.WriteTimeout,
		IdleTimeout:    cfg.HttpServer.IdleTimeout,
		MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
	}
}
