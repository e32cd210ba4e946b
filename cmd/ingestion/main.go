package main

import (
	"context"
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
	core "flume/ingestion/service/core"
	httphandler "flume/ingestion/service/http"
	"flume/internal/messaging/producer"
)

const defaultConfigPath = "./config/ingestion.defaults.yml"

func main() {
	logger := logrus.WithField("service", "ingestion")
	logger.Info("Starting ingestion service...")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("FLUME_INGESTION_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadIngestionConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load ingestion configuration")
	}

	logger.Info("Initializing Kafka producer...")
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaProducer, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize Kafka producer")
	}
	defer kafkaProducer.Close()

	svc := core.NewService(kafkaProducer, logger)
	handler := httphandler.NewIngestHandler(svc, logger, cfg.HttpServer.MaxBodyBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", handler.Ingest)
	mux.HandleFunc("/health", handler.HealthCheck)
	mux.HandleFunc("/", handler.HealthCheck)
	if cfg.Monitoring.EnableMetrics {
		mux.Handle(cfg.Monitoring.MetricsPath, promhttp.Handler())
	}

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    cfg.HttpServer.ReadTimeout,
		WriteTimeout:   cfg.HttpServer.WriteTimeout,
		IdleTimeout:    cfg.HttpServer.IdleTimeout,
		MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.WithField("addr", cfg.HttpListenAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server startup failed")
		}
		logger.Info("HTTP server stopped listening")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("shutting down ingestion service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}

	wg.Wait()
	logger.Info("ingestion service shut down")
}
