// Package sentiment implements the scoring pipeline: a prompt-driven
// engine that turns enriched posts into per-symbol scores through an
// external oracle, and a concurrency-bounded stream processor around it.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stocksent/internal/domain/social"
	"stocksent/internal/metrics"
	"stocksent/internal/services/symbols"
	"stocksent/pkg/logger"
)

// Engine scores one request at a time. Every failure mode past its own
// boundary degrades to "fewer or no scores for this item"; it never
// terminates the pipeline.
type Engine struct {
	oracle          social.Oracle
	validator       *symbols.Validator
	log             *logger.Logger
	maxAbsSentiment int
	systemPrompt    string
}

// NewEngine builds the fixed system prompt from maxAbsSentiment and fixes
// it on the oracle. Values below 2 are clamped to 2 with a warning.
func NewEngine(oracle social.Oracle, validator *symbols.Validator, log *logger.Logger, maxAbsSentiment int) *Engine {
	if maxAbsSentiment <= 1 {
		log.Warn("maxAbsSentiment should be greater than 1. Setting it to 2.")
		maxAbsSentiment = 2
	}

	e := &Engine{
		oracle:          oracle,
		validator:       validator,
		log:             log.With("component", "sentiment_engine"),
		maxAbsSentiment: maxAbsSentiment,
		systemPrompt:    buildSystemPrompt(maxAbsSentiment),
	}
	e.oracle.SetSystemPrompt(e.systemPrompt)
	return e
}

// SystemPrompt returns the fixed prompt sent with every oracle call.
func (e *Engine) SystemPrompt() string {
	return e.systemPrompt
}

// Analyze validates the request's text, invokes the oracle when at least
// one relevant symbol is present, and parses the response into a filtered
// score map. A nil response with a nil error means the request was
// skipped: either nothing relevant was mentioned or the oracle call
// failed. Only a catalog load failure is returned as an error.
func (e *Engine) Analyze(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
	validation, err := e.validator.Validate(ctx, req.MessageText)
	if err != nil {
		return nil, err
	}
	if !validation.HasRelevantSymbol() {
		metrics.RequestsSkipped.WithLabelValues("no_relevant_symbols").Inc()
		return nil, nil
	}

	raw, err := e.oracle.Analyze(ctx, e.systemPrompt, req.MessageText)
	if err != nil {
		e.log.Errorf("Exception during sentiment analysis for message: %q", req.MessageText)
		e.log.Errorf("Exception: %v", err)
		metrics.RequestsSkipped.WithLabelValues("oracle_error").Inc()
		return nil, nil
	}

	return e.parseResponse(raw, req, validation), nil
}

func (e *Engine) parseResponse(raw string, req social.SentimentRequest, validation social.ValidationResult) *social.SentimentResponse {
	sanitized := SanitizeResponse(raw)

	var parsed map[string]int
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		e.log.Errorf("Error parsing sentiment response. Response content:\n%s\nSanitized content:\n%s", raw, sanitized)
		e.log.Errorf("Exception: %v", err)
		metrics.ParseFailures.Inc()
		parsed = nil
	}

	// Drop scores for symbols the oracle invented or that are not in the
	// catalog. Keys are folded to uppercase first so the relevant-symbol
	// check is exact.
	scores := make(map[string]int, len(parsed))
	for key, score := range parsed {
		upper := strings.ToUpper(key)
		if _, ok := validation.RelevantSymbols[upper]; ok {
			scores[upper] = score
		}
	}

	return &social.SentimentResponse{Request: req, Scores: scores}
}

// SanitizeResponse extracts the JSON payload from an oracle response that
// may carry preamble or epilogue text: everything from the first { to the
// last } inclusive. Without a balanced bracket pair the payload is an
// empty object.
func SanitizeResponse(response string) string {
	if strings.TrimSpace(response) == "" {
		return "{}"
	}
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first == -1 || last == -1 || last < first {
		return "{}"
	}
	return response[first : last+1]
}

func buildSystemPrompt(maxAbsSentiment int) string {
	return fmt.Sprintf(
		"You are a financial sentiment analyzer. "+
			"Analyze the sentiment of the following text and provide a numerical score for the sentiment towards each stock symbol mentioned in the post. "+
			"All stock symbols begin with $ sign. If a stock symbol is not mentioned, do not provide a score for it. "+
			"The score should be between -%[1]d (very negative) and %[1]d (very positive). "+
			"If the sentiment is neutral, return a score of 0. "+
			"The sentiment should reflect the overall tone of the text towards the stock symbols, not just the presence of the symbol. "+
			"For example, if the text is 'I think $AAPL is a great company', the score for AAPL should be positive. "+
			"If the text is 'I don't like $GOOGL', the score for GOOGL should be negative. "+
			"If the text is 'What do you think about $AMZN?', the score for AMZN should be neutral (0). "+
			"Differentiate between opinionated and reasoned sentiment, versus general questions about the market behaviour. "+
			"If the text contains multiple symbols, provide a score for each symbol mentioned. "+
			"The difference between a low positive score (1) and a high positive score (%[1]d) should be based on the strength of the sentiment expressed in the text and the reasoning behind it. "+
			"For example, if the text is 'I think $AAPL is a great company because of its strong earnings', the score for AAPL should be higher than if the text is simply 'I like $AAPL'. "+
			"Detailed analysis of a company's performance, market trends, and other relevant factors should be considered in the sentiment analysis scores. "+
			"Provide the scores in a JSON dictionary format with the stock symbols without $ as keys and the sentiment scores as integer values. "+
			`Respond only with the JSON dictionary. For example: { "AAPL": 2, "GOOGL": -1, "AMZN": 0 }.`,
		maxAbsSentiment,
	)
}
