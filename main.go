package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"churnpredict/config"
	qhttp "churnpredict/http"
	"churnpredict/logging"
	"churnpredict/ml"
	"churnpredict/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cfg.Log.Console,
	})
	defer logger.Sync()

	// 3. Load model artifacts once; the process cannot serve without them
	loader, err := ml.NewLoader(ml.LoaderConfig{
		ModelPath:       cfg.Artifacts.ModelPath,
		ScalerPath:      cfg.Artifacts.ScalerPath,
		ONNXRuntimePath: cfg.Artifacts.ONNXRuntimePath,
	})
	if err != nil {
		logger.Fatal("invalid artifact config", zap.Error(err))
	}
	artifacts, err := loader.Load()
	if err != nil {
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}
	defer artifacts.Close()
	logger.Info("model artifacts loaded",
		zap.String("model", artifacts.ModelPath),
		zap.String("scaler", artifacts.ScalerPath),
	)

	metrics := monitoring.NewPredictionMetrics()
	predictor, err := ml.NewPredictor(artifacts, metrics)
	if err != nil {
		logger.Fatal("failed to create predictor", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Watch artifacts on disk
	if cfg.Artifacts.Watch {
		watcher, err := monitoring.NewArtifactWatcher(logger, artifacts.ModelPath, artifacts.ScalerPath)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	// 5. Start HTTP server
	handler, err := qhttp.NewHandler(predictor, metrics, logger, cfg.Http.AllowedOrigins)
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		RateLimit:      cfg.Http.RateLimit,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, handler, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	cancel()

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
