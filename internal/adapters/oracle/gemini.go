package oracle

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"

	"stocksent/internal/metrics"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// GeminiClient implements the scoring oracle using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *Limiter
	log     *logger.Logger

	mu           sync.RWMutex
	systemPrompt string
}

// NewGeminiClient creates a new Gemini-backed oracle client.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, limiter *Limiter) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		limiter: limiter,
		log:     logger.Get().With("component", "gemini_oracle", "model", model),
	}, nil
}

// SetSystemPrompt fixes the default system prompt for subsequent calls.
func (c *GeminiClient) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	c.systemPrompt = prompt
	c.mu.Unlock()
}

// Analyze sends the message text under the given system prompt and returns
// the raw response text.
func (c *GeminiClient) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
	if systemPrompt == "" {
		c.mu.RLock()
		systemPrompt = c.systemPrompt
		c.mu.RUnlock()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(userText),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(float32(0)),
			TopP:              genai.Ptr(float32(1)),
			MaxOutputTokens:   maxOutputTokens,
		},
	)
	metrics.RecordOracleCall("gemini", time.Since(start), err)
	if err != nil {
		return "", errors.Wrap(errors.ErrOracleUnavailable, err.Error())
	}

	text := result.Text()
	if text == "" {
		return "", errors.Wrapf(errors.ErrEmptyResponse, "no content returned")
	}

	c.log.Debugw("Oracle call complete", "text_length", len(userText))

	return text, nil
}
