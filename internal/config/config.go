package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	PublisherAPIKey string

	// AI backend
	AIProvider      string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	GeminiAPIKey    string
	GeminiModel     string
	AIMaxTokens     int
	AITemperature   float64
	AITimeout       time.Duration
	AIRetries       int
	AIRateLimit     float64

	// Translation
	TranslateConcurrency  int
	TranslationSchemaFile string
	DefaultLanguages      []string

	// Conversion
	OwnedDomain string

	// Google
	GoogleCredentialsFile string
	GCSBucket             string
	GCSPrefix             string
	GCSPublicBaseURL      string
	MaxImageBytes         int64

	// CMS
	CMSBaseURL   string
	CMSSpaceID   string
	CMSToken     string
	CMSFolder    string
	CMSComponent string
	CMSRateLimit float64

	// Metadata size tiers, in characters
	MetadataDirectLimit int
	MetadataHardLimit   int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration

	// Tracing; empty disables export
	OTLPEndpoint string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PublisherAPIKey: os.Getenv("PUBLISHER_API_KEY"),

		AIProvider:      strings.ToLower(envOr("AI_PROVIDER", "anthropic")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		AIMaxTokens:     envInt("AI_MAX_TOKENS", 2048),
		AITemperature:   envFloat("AI_TEMPERATURE", 0.2),
		AITimeout:       envDuration("AI_TIMEOUT", 60*time.Second),
		AIRetries:       envInt("AI_RETRIES", 3),
		AIRateLimit:     envFloat("AI_RATE_LIMIT", 5),

		TranslateConcurrency:  envInt("TRANSLATE_CONCURRENCY", 8),
		TranslationSchemaFile: os.Getenv("TRANSLATION_SCHEMA_FILE"),
		DefaultLanguages:      envList("DEFAULT_LANGUAGES"),

		OwnedDomain: envOr("OWNED_DOMAIN", "notta.ai"),

		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GCSBucket:             os.Getenv("GCS_BUCKET"),
		GCSPrefix:             envOr("GCS_PREFIX", "blog-images"),
		GCSPublicBaseURL:      os.Getenv("GCS_PUBLIC_BASE_URL"),
		MaxImageBytes:         envInt64("MAX_IMAGE_BYTES", 20971520), // 20MB

		CMSBaseURL:   envOr("CMS_BASE_URL", "https://mapi.storyblok.com/v1"),
		CMSSpaceID:   os.Getenv("CMS_SPACE_ID"),
		CMSToken:     os.Getenv("CMS_TOKEN"),
		CMSFolder:    envOr("CMS_FOLDER", "blog"),
		CMSComponent: envOr("CMS_COMPONENT", "blog_post"),
		CMSRateLimit: envFloat("CMS_RATE_LIMIT", 3),

		MetadataDirectLimit: envInt("METADATA_DIRECT_LIMIT", 12000),
		MetadataHardLimit:   envInt("METADATA_HARD_LIMIT", 60000),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 2048
	}
	if cfg.AITemperature < 0 {
		cfg.AITemperature = 0.2
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 60 * time.Second
	}
	if cfg.AIRetries <= 0 {
		cfg.AIRetries = 3
	}
	if cfg.AIRateLimit < 0 {
		cfg.AIRateLimit = 0
	}
	if cfg.TranslateConcurrency <= 0 {
		cfg.TranslateConcurrency = 8
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 20971520
	}
	if cfg.CMSRateLimit < 0 {
		cfg.CMSRateLimit = 0
	}
	if cfg.MetadataDirectLimit <= 0 {
		cfg.MetadataDirectLimit = 12000
	}
	if cfg.MetadataHardLimit < cfg.MetadataDirectLimit {
		cfg.MetadataHardLimit = max(60000, cfg.MetadataDirectLimit)
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.GCSPublicBaseURL == "" && cfg.GCSBucket != "" {
		cfg.GCSPublicBaseURL = "https://storage.googleapis.com/" + cfg.GCSBucket
	}

	return cfg
}

// AIKey returns the API key of the selected provider.
func (c Config) AIKey() string {
	switch c.AIProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

// AIModel returns the model of the selected provider.
func (c Config) AIModel() string {
	switch c.AIProvider {
	case "openai":
		return c.OpenAIModel
	case "gemini":
		return c.GeminiModel
	default:
		return c.AnthropicModel
	}
}

// Validate checks what the server needs to start.
func (c Config) Validate() error {
	if c.PublisherAPIKey == "" {
		return fmt.Errorf("PUBLISHER_API_KEY is required")
	}
	if err := c.ValidateAI(); err != nil {
		return err
	}
	if (c.CMSSpaceID == "") != (c.CMSToken == "") {
		return fmt.Errorf("CMS_SPACE_ID and CMS_TOKEN must be set together")
	}
	return nil
}

// ValidateAI checks the AI settings alone, for CLI commands that call the
// model.
func (c Config) ValidateAI() error {
	switch c.AIProvider {
	case "anthropic", "openai", "gemini":
	default:
		return fmt.Errorf("AI_PROVIDER %q is not one of anthropic, openai, gemini", c.AIProvider)
	}
	if c.AIKey() == "" {
		return fmt.Errorf("%s_API_KEY is required for AI_PROVIDER=%s", strings.ToUpper(c.AIProvider), c.AIProvider)
	}
	return nil
}

// PublishEnabled reports whether CMS credentials are configured.
func (c Config) PublishEnabled() bool {
	return c.CMSSpaceID != "" && c.CMSToken != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
