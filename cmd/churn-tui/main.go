package main

import (
	"context"
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"churnpredict/config"
	"churnpredict/logging"
	"churnpredict/ml"
	"churnpredict/tui"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// the terminal belongs to the form, so only file logging stays on
	logger := zap.NewNop()
	if cfg.Log.File != "" {
		logger = logging.New(logging.Options{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
	}
	defer logger.Sync()

	loader, err := ml.NewLoader(ml.LoaderConfig{
		ModelPath:       cfg.Artifacts.ModelPath,
		ScalerPath:      cfg.Artifacts.ScalerPath,
		ONNXRuntimePath: cfg.Artifacts.ONNXRuntimePath,
	})
	if err != nil {
		log.Fatalf("artifacts: %v", err)
	}
	artifacts, err := loader.Load()
	if err != nil {
		logger.Error("failed to load model artifacts", zap.Error(err))
		log.Fatalf("load artifacts: %v", err)
	}
	defer artifacts.Close()

	predictor, err := ml.NewPredictor(artifacts, nil)
	if err != nil {
		log.Fatalf("predictor: %v", err)
	}
	logger.Info("tui started", zap.String("model", artifacts.ModelPath))

	app := tui.New(context.Background(), predictor)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
