package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"habit-coach-backend/internal/apperr"
)

// Engine operations, used as the Op of every error.
const (
	OpCategorize          = "categorize-task"
	OpScore               = "score-progress"
	OpRecommendExisting   = "recommend-existing"
	OpRecommendNew        = "recommend-new"
	OpRecommendCategories = "recommend-categories"
)

// Oracle is a text-generation backend: one prompt in, free text out.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Gateway makes exactly one oracle call per Ask. Nothing is retried or
// cached; identical prompts may produce different text.
type Gateway struct {
	Oracle Oracle

	// Timeout bounds a single call. Zero leaves the caller's context in
	// charge.
	Timeout time.Duration
}

func NewGateway(o Oracle, timeout time.Duration) *Gateway {
	return &Gateway{Oracle: o, Timeout: timeout}
}

// Ask sends prompt and returns the raw reply, or an OracleTimeout /
// OracleUnavailable error tagged with op.
func (g *Gateway) Ask(ctx context.Context, op, prompt string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	text, err := g.Oracle.Generate(ctx, prompt)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperr.Wrap(apperr.KindOracleTimeout, op, err)
		}
		return "", apperr.Wrap(apperr.KindOracleUnavailable, op, err)
	}
	return text, nil
}

// GeminiClient talks to Google's Gemini API through the genai SDK.
type GeminiClient struct {
	client   *genai.Client
	model    string
	jsonMode bool
}

// NewGeminiClient builds the client once at startup. With jsonMode the
// model is asked for an application/json reply; the extractor still runs
// on whatever comes back.
func NewGeminiClient(ctx context.Context, apiKey, model string, jsonMode bool) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:   client,
		model:    model,
		jsonMode: jsonMode,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if c.jsonMode {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// Name returns the backend name for logs.
func (c *GeminiClient) Name() string {
	return "gemini:" + c.model
}
