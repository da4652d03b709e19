package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-hartl/lettersort/internal/common"
	"github.com/m-hartl/lettersort/internal/folders"
	"github.com/m-hartl/lettersort/internal/llm/openai"
	"github.com/m-hartl/lettersort/internal/match"
	"github.com/m-hartl/lettersort/internal/ocr"
	"github.com/m-hartl/lettersort/internal/pipeline"
	"github.com/m-hartl/lettersort/internal/stability"
	"github.com/m-hartl/lettersort/internal/watch"
	"github.com/m-hartl/lettersort/internal/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	for _, dir := range []string{cfg.Paths.WatchDir, cfg.Paths.OutputDir, cfg.Paths.RecordsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := match.New(cfg.Match.Threshold)

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Language:  cfg.OCR.TesseractLang,
		DPI:       cfg.OCR.DPI,
		MaxPages:  cfg.OCR.MaxPages,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	pipe := pipeline.New(
		logger,
		extractor,
		extractor,
		llmClient,
		workers.NewDirectory(cfg.Paths.RecordsDir, engine, logger),
		folders.NewResolver(cfg.Paths.OutputDir, engine, logger),
		cfg.Paths.OutputDir,
		cfg.LLM.Language,
	)

	gate := stability.New(stability.Options{
		PollInterval:   cfg.Stability.PollInterval,
		RequiredStable: cfg.Stability.RequiredStable,
		MaxPolls:       cfg.Stability.MaxPolls,
		Logger:         logger,
	})

	watcher := watch.New(watch.Config{
		Dir:         cfg.Paths.WatchDir,
		InitialScan: true,
	}, gate, pipe, logger)

	logger.Info("lettersortd starting",
		"watch_dir", cfg.Paths.WatchDir,
		"output_dir", cfg.Paths.OutputDir,
		"records_dir", cfg.Paths.RecordsDir,
		"model", cfg.LLM.Model,
	)

	if err := watcher.Run(ctx); err != nil {
		logger.Error("watcher failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("stopped.")
}
