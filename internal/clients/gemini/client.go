// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.2
	DefaultMaxPrompt   = 400_000 // characters; larger prompts are cut from the tail
)

// Client implements the Summarizer interface
type Client struct {
	client      *genai.Client
	model       string
	baseURL     string
	temperature float32
	maxPrompt   int
	logger      *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different API endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithMaxPrompt caps the prompt length in characters
func WithMaxPrompt(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPrompt = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxPrompt:   DefaultMaxPrompt,
		logger:      common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = genaiClient

	return c, nil
}

// Close closes the client
func (c *Client) Close() error {
	// The genai client doesn't have a Close method
	return nil
}

// Summarize sends the prompt and returns the model's text answer
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt: %w", models.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(prompt); n > c.maxPrompt {
		c.logger.Debug().Int("chars", n).Int("max", c.maxPrompt).Msg("Truncating prompt")
		prompt = truncatePrompt(prompt, c.maxPrompt)
	}

	c.logger.Debug().Str("model", c.model).Int("chars", len(prompt)).Msg("Generating content")

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v: %w", err, models.ErrSourceUnavailable)
	}

	return extractTextFromResponse(result)
}

// truncatePrompt keeps the first n runes of prompt
func truncatePrompt(prompt string, n int) string {
	count := 0
	for i := range prompt {
		if count == n {
			return prompt[:i]
		}
		count++
	}
	return prompt
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated: %w", models.ErrSourceUnavailable)
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}

// Ensure Client implements Summarizer
var _ interfaces.Summarizer = (*Client)(nil)
