package ai

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"

type limited struct {
	next    Completer
	limiter *rate.Limiter
}

// Limit throttles calls through c to rps requests per second. A non-positive
// rps returns c unchanged.
func Limit(c Completer, rps float64) Completer {
	if rps <= 0 {
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &limited{next: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limited) Model() string {
	return l.next.Model()
}

func (l *limited) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Complete(ctx, req)
}

type traced struct {
	next     Completer
	provider string
}

// Trace wraps every call through c in a span.
func Trace(c Completer, provider string) Completer {
	return &traced{next: c, provider: provider}
}

func (t *traced) Model() string {
	return t.next.Model()
}

func (t *traced) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "complete "+t.next.Model(),
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("gen_ai.system", t.provider),
		attribute.String("gen_ai.request.model", t.next.Model()),
		attribute.Bool("structured", req.Schema != nil),
	)

	comp, err := t.next.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("gen_ai.usage.input_tokens", comp.InputTokens),
		attribute.Int("gen_ai.usage.output_tokens", comp.OutputTokens),
	)
	return comp, nil
}
