// Package app wires configuration into the components shared by the server
// and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/cms"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/convert"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/extract"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/storage"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/translate"
)

const serviceName = "gdocs-blog-publisher"

// App holds the constructed components. Uploader is nil without a bucket;
// Stories is nil when publishing is not configured.
type App struct {
	Completer  ai.Completer
	Stats      *ai.Stats
	Converter  *convert.Converter
	Extractor  *extract.Extractor
	Translator *translate.Translator
	Uploader   *storage.Uploader
	Stories    *cms.Client
	Schema     translate.Schema
	Templates  translate.Templates

	gcs     *gcs.Client
	tracing *sdktrace.TracerProvider
}

// New builds every component cfg enables. The AI backend is built only when
// withAI is set, so commands that never call the model need no key.
func New(ctx context.Context, cfg config.Config, withAI bool, log *slog.Logger) (*App, error) {
	a := &App{
		Schema:    translate.DefaultSchema(),
		Templates: translate.DefaultTemplates(),
	}

	if cfg.OTLPEndpoint != "" {
		tp, err := setupTracing(ctx)
		if err != nil {
			return nil, fmt.Errorf("tracing: %w", err)
		}
		a.tracing = tp
	}

	ts, err := config.LoadTranslationSchema(cfg.TranslationSchemaFile)
	if err != nil {
		return nil, err
	}
	if ts != nil {
		a.Schema = ts.Content
		a.Templates = translate.Templates(ts.Templates)
	}

	if cfg.GCSBucket != "" {
		client, bucket, err := storage.OpenBucket(ctx, cfg.GoogleCredentialsFile, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		a.gcs = client
		a.Uploader = storage.NewUploader(bucket, storage.Options{
			Prefix:        cfg.GCSPrefix,
			PublicBaseURL: cfg.GCSPublicBaseURL,
			MaxBytes:      cfg.MaxImageBytes,
		}, log)
	}

	var uploader convert.Uploader
	if a.Uploader != nil {
		uploader = a.Uploader
	}
	a.Converter = convert.New(uploader,
		convert.WithOwnedDomain(cfg.OwnedDomain),
		convert.WithLogger(log),
	)

	if cfg.PublishEnabled() {
		a.Stories = cms.NewClient(cfg.CMSBaseURL, cfg.CMSSpaceID, cfg.CMSToken, cfg.CMSRateLimit)
	}

	call := ai.CallOptions{
		Attempts: cfg.AIRetries,
		Timeout:  cfg.AITimeout,
		Log:      log,
	}
	temperature := ai.Float(cfg.AITemperature)

	if withAI {
		a.Stats = ai.NewStats(time.Hour)
		a.Completer, err = ai.New(ctx, ai.Config{
			Provider:  cfg.AIProvider,
			APIKey:    cfg.AIKey(),
			Model:     cfg.AIModel(),
			BaseURL:   cfg.OpenAIBaseURL,
			RateLimit: cfg.AIRateLimit,
		}, a.Stats)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Translator = translate.New(
			translate.NewAILeaf(a.Completer, call, cfg.AIMaxTokens, temperature),
			translate.WithConcurrency(cfg.TranslateConcurrency),
			translate.WithLogger(log),
		)
	}

	a.Extractor = extract.NewExtractor(a.Completer, extract.Options{
		DirectLimit: cfg.MetadataDirectLimit,
		HardLimit:   cfg.MetadataHardLimit,
		Temperature: temperature,
		Call:        call,
	}, log)

	return a, nil
}

// Model names the configured backend model, or "" without one.
func (a *App) Model() string {
	if a.Completer == nil {
		return ""
	}
	return a.Completer.Model()
}

// Close releases clients and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Stories != nil {
		a.Stories.Close()
	}
	if a.gcs != nil {
		errs = append(errs, a.gcs.Close())
	}
	if a.tracing != nil {
		errs = append(errs, a.tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// setupTracing exports spans over OTLP/HTTP. The exporter reads its endpoint
// and headers from the standard OTEL_EXPORTER_OTLP_* variables.
func setupTracing(ctx context.Context) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	resource, err := sdkresource.Merge(sdkresource.Default(),
		sdkresource.NewSchemaless(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(provider)
	return provider, nil
}
