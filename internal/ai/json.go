package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrMalformedOutput marks a response that is not JSON or does not conform to
// the requested schema. It is retried like a transport failure.
var ErrMalformedOutput = errors.New("malformed model output")

// CallError is returned once a structured call has used up its attempts or
// its deadline. It unwraps to the last failure.
type CallError struct {
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("ai call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

type CallOptions struct {
	// Attempts defaults to MaxRetries.
	Attempts int
	// Timeout bounds each attempt. Zero leaves attempts bounded only by ctx.
	Timeout time.Duration
	// Backoff defaults to the jittered exponential Backoff.
	Backoff func(attempt int) time.Duration
	Log     *slog.Logger
}

// CompleteJSON runs req until the response parses as JSON, conforms to
// req.Schema and decodes into out. Transient backend errors, malformed output
// and per-attempt timeouts are retried with backoff; anything else stops
// immediately.
func CompleteJSON(ctx context.Context, c Completer, req Request, out any, opts CallOptions) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = MaxRetries
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = Backoff
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	var resolved *jsonschema.Resolved
	if req.Schema != nil {
		var err error
		resolved, err = req.Schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("resolve schema: %w", err)
		}
	}

	var lastErr error
	made := 0
	for attempt := range attempts {
		made++
		lastErr = completeOnce(ctx, c, req, resolved, out, opts.Timeout)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(lastErr) || attempt == attempts-1 {
			break
		}

		log.Warn("retrying ai call", "model", c.Model(), "attempt", attempt+1, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	return &CallError{Attempts: made, Err: lastErr}
}

func retryable(err error) bool {
	return IsRetryable(err) || errors.Is(err, ErrMalformedOutput) || errors.Is(err, context.DeadlineExceeded)
}

func completeOnce(ctx context.Context, c Completer, req Request, resolved *jsonschema.Resolved, out any, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	comp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	raw := ExtractJSON(comp.Text)
	if raw == "" {
		return fmt.Errorf("%w: no json in response: %s", ErrMalformedOutput, truncate(comp.Text, 200))
	}

	if resolved != nil {
		var instance any
		if err := json.Unmarshal([]byte(raw), &instance); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		if err := resolved.Validate(instance); err != nil {
			return fmt.Errorf("%w: schema: %v", ErrMalformedOutput, err)
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode: %v (raw: %s)", ErrMalformedOutput, err, truncate(raw, 200))
	}
	return nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ExtractJSON returns the JSON value in a model response: the whole text
// when it is valid JSON, the body of a fenced code block, or the first
// balanced object or array embedded in prose. It returns "" when none
// parses.
func ExtractJSON(text string) string {
	s := stripCodeBlock(text)
	if json.Valid([]byte(s)) {
		return s
	}
	if v := findFirstJSON(s); v != "" {
		return v
	}
	return ""
}

// findFirstJSON scans for the first '{' or '[' whose balanced span is valid
// JSON. String literals are skipped so brackets inside them do not count.
func findFirstJSON(s string) string {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end := matchingBracket(s, start); end > 0 {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return ""
}

func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
