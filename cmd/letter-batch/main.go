package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-hartl/lettersort/constants"
	"github.com/m-hartl/lettersort/internal/common"
	"github.com/m-hartl/lettersort/internal/export"
	"github.com/m-hartl/lettersort/internal/folders"
	"github.com/m-hartl/lettersort/internal/llm/openai"
	"github.com/m-hartl/lettersort/internal/match"
	"github.com/m-hartl/lettersort/internal/ocr"
	"github.com/m-hartl/lettersort/internal/pipeline"
	"github.com/m-hartl/lettersort/internal/workers"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir = flag.String("dir", "", "directory of scanned letters to process (required)")
		out = flag.String("out", "", "output XLSX report path (optional, defaults to parent directory)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "letters.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		printError("Error: OPENAI_API_KEY is required\n")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

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

	docs, err := collectDocuments(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		fmt.Printf("No letters found in %s\n", *dir)
		return
	}
	logger.Info("starting batch", "dir", *dir, "documents", len(docs))

	var recs []pipeline.Record
	counts := map[pipeline.OutcomeKind]int{}
	for _, doc := range docs {
		rec := pipe.Process(ctx, doc)
		recs = append(recs, rec)
		counts[rec.Outcome]++
	}

	data, err := export.NewService(logger).FilingReportXLSX(recs)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d letters: %d filed, %d unrecognized, %d failed\n",
		len(recs),
		counts[pipeline.OutcomeFiled],
		counts[pipeline.OutcomeUnrecognized],
		counts[pipeline.OutcomeFailed],
	)
	fmt.Printf("Report written to %s\n", *out)
}

// collectDocuments lists the ingestible documents directly under dir in
// lexicographic order. Subdirectories are not descended into.
func collectDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !constants.IsAllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		docs = append(docs, filepath.Join(dir, e.Name()))
	}
	return docs, nil
}
