package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the OpenAI endpoint, for compatible gateways.
	BaseURL string
	// RateLimit in requests per second; zero disables limiting.
	RateLimit float64
}

// New builds the configured backend, instrumented with tracing and stats and
// throttled to the configured rate.
func New(ctx context.Context, cfg Config, stats *Stats) (Completer, error) {
	client := &http.Client{Timeout: 180 * time.Second}

	var backend Completer
	switch cfg.Provider {
	case ProviderAnthropic, "":
		backend = NewAnthropic(cfg.APIKey, cfg.Model, client)
	case ProviderOpenAI:
		backend = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, client)
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, client)
		if err != nil {
			return nil, err
		}
		backend = g
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	c := Trace(backend, cfg.Provider)
	if stats != nil {
		c = Observe(c, stats)
	}
	return Limit(c, cfg.RateLimit), nil
}
