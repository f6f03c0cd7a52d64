package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stocksent/pkg/errors"
)

type Config struct {
	App           AppConfig
	Files         FilesConfig
	Analyzer      AnalyzerConfig
	AI            AIConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"stocksent"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// FilesConfig holds the paths of every CSV the pipeline touches
type FilesConfig struct {
	Symbols string `envconfig:"FILE_SYMBOLS" required:"true"`
	Owners  string `envconfig:"FILE_OWNERS" required:"true"`
	Gains   string `envconfig:"FILE_GAINS" required:"true"`
	Posts   string `envconfig:"FILE_POSTS" required:"true"`
	Output  string `envconfig:"FILE_OUTPUT" required:"true"`
}

type AnalyzerConfig struct {
	// MaxParallelism bounds concurrent in-flight oracle calls
	MaxParallelism int `envconfig:"ANALYZER_MAX_PARALLELISM" default:"5"`

	// MaxAbsSentiment is the score magnitude the oracle is instructed to stay within
	MaxAbsSentiment int `envconfig:"ANALYZER_MAX_ABS_SENTIMENT" default:"2"`

	// ProgressEvery controls how often the stream processor logs progress
	ProgressEvery int `envconfig:"ANALYZER_PROGRESS_EVERY" default:"100"`

	// CountSkipped includes skipped items in the progress counter when true
	CountSkipped bool `envconfig:"ANALYZER_COUNT_SKIPPED" default:"false"`
}

type AIConfig struct {
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	GeminiKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	// Provider selects the oracle backend: openai or gemini
	Provider string `envconfig:"AI_PROVIDER" default:"openai"`

	// RequestsPerMinute throttles oracle calls; 0 disables the limiter
	RequestsPerMinute int `envconfig:"AI_REQUESTS_PER_MINUTE" default:"120"`

	TimeoutSeconds int `envconfig:"AI_TIMEOUT_SECONDS" default:"60"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
