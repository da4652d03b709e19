package common

import (
	"os"
	"strconv"
	"time"

	"github.com/m-hartl/lettersort/constants"
)

// Config holds all application configuration
type Config struct {
	Paths     PathsConfig
	Stability StabilityConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Match     MatchConfig
}

// PathsConfig holds the directory layout of the sorter.
type PathsConfig struct {
	WatchDir   string // incoming scanned letters
	OutputDir  string // filed-document tree + buckets
	RecordsDir string // worker record files (one CSV per worker)
}

// StabilityConfig tunes the file-stability wait applied to new files.
type StabilityConfig struct {
	PollInterval   time.Duration
	RequiredStable int
	MaxPolls       int
}

// OCRConfig holds page-rendering and OCR configuration.
type OCRConfig struct {
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI, default 300
	MaxPages      int    // 0 = no limit
}

// LLMConfig holds attribute-extraction configuration.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	Language    string // language for the letter-type summary
}

// MatchConfig holds fuzzy-matching configuration.
type MatchConfig struct {
	Threshold int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			WatchDir:   getEnv("WATCH_DIR", "pdf_folder"),
			OutputDir:  getEnv("OUTPUT_DIR", "output"),
			RecordsDir: getEnv("CSV_DIR", "csv_files"),
		},
		Stability: StabilityConfig{
			PollInterval:   getEnvAsDuration("STABILITY_POLL_INTERVAL", constants.DefaultPollInterval),
			RequiredStable: getEnvAsInt("STABILITY_REQUIRED_POLLS", constants.DefaultRequiredStable),
			MaxPolls:       getEnvAsInt("STABILITY_MAX_POLLS", constants.DefaultMaxPolls),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			Language:    getEnv("LANGUAGE", "english"),
		},
		Match: MatchConfig{
			Threshold: getEnvAsInt("MATCH_THRESHOLD", constants.MatchThreshold),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Paths.WatchDir == "" {
		return NewAppError("CONFIG_ERROR", "WATCH_DIR is required", ErrInvalidInput)
	}
	if c.Paths.OutputDir == "" {
		return NewAppError("CONFIG_ERROR", "OUTPUT_DIR is required", ErrInvalidInput)
	}
	if c.Paths.RecordsDir == "" {
		return NewAppError("CONFIG_ERROR", "CSV_DIR is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be within 0..100", ErrInvalidInput)
	}
	return nil
}
