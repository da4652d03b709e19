// Package openai implements llm.AttributeExtractor against the OpenAI
// chat/completions API with a JSON-schema-constrained response.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m-hartl/lettersort/internal/llm"
)

type Config struct {
	Model       string
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ExtractAttributes sends the OCR text and returns the structured letter
// attributes. The model output is validated against the letter schema; a
// lenient normalization pass runs before giving up on a validation failure.
func (c *Client) ExtractAttributes(ctx context.Context, req llm.ExtractRequest) (llm.LetterAttributes, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"language", req.Language,
		"hint_names", len(req.HintNames),
	)

	schema := llm.BuildLetterJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req)},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.LetterAttributes{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.LetterAttributes{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.LetterAttributes{}, raw, fmt.Errorf("no choices in openai response")
	}
	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first, then retry once after a lenient normalization.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.NormalizeAttributes(rawContent)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.LetterAttributes{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.LetterAttributes{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.LetterAttributes
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.LetterAttributes{}, rawContent, fmt.Errorf("unmarshal attributes: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"sender", out.Sender,
		"receiver", out.Receiver,
		"date", out.DateOfWriting,
		"letter_type", out.LetterType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func buildSystemPrompt(req llm.ExtractRequest) string {
	lang := req.Language
	if lang == "" {
		lang = "english"
	}
	parts := []string{
		"You are a letter triage parser for scanned physical mail. Return ONLY JSON that matches the JSON Schema provided.",
		"For 'receiver', extract the NAME ONLY of the person receiving the letter (no titles, no addresses).",
		"For 'organisation', use the company or organisation of the sender; leave it empty for private senders.",
		"Use ISO-8601 dates (YYYY-MM-DD) for 'date_of_writing'.",
		"For 'letter_type', classify the letter as an ultra-short summary of at most 5 words, written in " + lang + ".",
	}
	if len(req.HintNames) > 0 {
		parts = append(parts,
			"If a responsible person associated with the recipient appears in the text and their name matches one of: "+
				strings.Join(req.HintNames, ", ")+", include it as 'responsible_person'; otherwise leave that field empty.")
	}
	parts = append(parts, "Never output null. If a field is not present, omit it.")
	return strings.Join(parts, " ")
}

func buildUserPrompt(req llm.ExtractRequest) string {
	var b strings.Builder
	b.WriteString("Filename: ")
	b.WriteString(req.FilenameHint)
	b.WriteString("\n\nOCR text (first ~6k chars):\n")
	if len(req.Text) > 6000 {
		b.WriteString(req.Text[:6000])
	} else {
		b.WriteString(req.Text)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
