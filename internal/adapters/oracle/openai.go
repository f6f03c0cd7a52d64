// Package oracle contains adapters for the external text-classification
// service. The pipeline treats every adapter as an untrusted black box
// behind the social.Oracle interface.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"stocksent/internal/metrics"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// maxOutputTokens bounds a single completion; score maps are tiny but the
// oracle may wrap them in prose.
const maxOutputTokens = 4096

// OpenAIClient implements the scoring oracle using the official OpenAI Go SDK.
type OpenAIClient struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	limiter *Limiter
	log     *logger.Logger

	mu           sync.RWMutex
	systemPrompt string
}

// NewOpenAIClient creates a new OpenAI-backed oracle client.
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration, limiter *Limiter) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   openai.ChatModel(model),
		timeout: timeout,
		limiter: limiter,
		log:     logger.Get().With("component", "openai_oracle", "model", model),
	}, nil
}

// SetSystemPrompt fixes the default system prompt for subsequent calls.
func (c *OpenAIClient) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	c.systemPrompt = prompt
	c.mu.Unlock()
}

// Analyze sends the message text under the given system prompt and returns
// the raw completion text. An empty systemPrompt falls back to the prompt
// fixed via SetSystemPrompt. Temperature 0 for a deterministic response.
func (c *OpenAIClient) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
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
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		Temperature:         openai.Float(0.0),
		TopP:                openai.Float(1.0),
		MaxCompletionTokens: openai.Int(maxOutputTokens),
	})
	metrics.RecordOracleCall("openai", time.Since(start), err)
	if err != nil {
		return "", errors.Wrap(errors.ErrOracleUnavailable, err.Error())
	}

	if len(response.Choices) == 0 {
		return "", errors.Wrapf(errors.ErrEmptyResponse, "no choices returned")
	}

	c.log.Debugw("Oracle call complete",
		"text_length", len(userText),
		"tokens_used", response.Usage.TotalTokens,
	)

	return response.Choices[0].Message.Content, nil
}
