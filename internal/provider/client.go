package provider

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttempts bounds GenerateWithRetry when the caller passes no limit.
const DefaultMaxAttempts = 3

// dialectClient is the per-protocol invocation surface. The Client picks one
// through the dispatch table keyed on the resolved profile's dialect.
type dialectClient interface {
	invoke(ctx context.Context, req Request, p Profile) (string, Usage, error)
	invokeStream(ctx context.Context, req Request, p Profile) (<-chan Chunk, error)
}

// UsageRecorder receives token counts for each completed generation.
type UsageRecorder interface {
	Record(model string, usage Usage)
}

// Client is the unified entry point: it resolves the model, fails fast on
// missing credentials, dispatches on dialect, and normalizes the result.
type Client struct {
	registry *Registry
	dialects map[Dialect]dialectClient
	logger   *slog.Logger
	tracer   trace.Tracer
	usage    UsageRecorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUsageRecorder wires token accounting.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(c *Client) { c.usage = r }
}

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.dialects = map[Dialect]dialectClient{
			DialectOpenAI:    &openAIClient{http: h},
			DialectAnthropic: &anthropicClient{http: h},
		}
	}
}

// NewClient builds a Client over the given registry.
func NewClient(registry *Registry, opts ...Option) *Client {
	httpc := newHTTPClient()
	c := &Client{
		registry: registry,
		dialects: map[Dialect]dialectClient{
			DialectOpenAI:    &openAIClient{http: httpc},
			DialectAnthropic: &anthropicClient{http: httpc},
		},
		logger: slog.Default(),
		tracer: otel.Tracer("ideaforge/provider"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolve applies defaults, maps the model to a profile, and fails fast when
// the credential slot is empty so no network I/O happens on a dead request.
func (c *Client) resolve(req Request) (Request, Profile, dialectClient, error) {
	req = req.withDefaults()
	profile, err := c.registry.Resolve(req.Model)
	if err != nil {
		return req, Profile{}, nil, err
	}
	if profile.Unauthenticated {
		return req, Profile{}, nil, &ConfigurationError{
			Model:          req.Model,
			CredentialName: profile.CredentialName,
		}
	}
	return req, profile, c.dialects[profile.Dialect], nil
}

// Generate performs a single non-streaming generation.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	req, profile, dialect, err := c.resolve(req)
	if err != nil {
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("llm.provider", profile.Family),
	))
	defer span.End()

	text, usage, err := dialect.invoke(ctx, req, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		c.logger.ErrorContext(ctx, "generation failed",
			"model", req.Model,
			"provider", profile.Family,
			"error", err)
		return "", err
	}

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", usage.InputTokens),
		attribute.Int("llm.usage.output_tokens", usage.OutputTokens),
	)
	if c.usage != nil {
		c.usage.Record(req.Model, usage)
	}
	c.logger.DebugContext(ctx, "generation succeeded",
		"model", req.Model,
		"provider", profile.Family,
		"output_tokens", usage.OutputTokens)
	return text, nil
}

// GenerateStream performs a streaming generation. The returned channel closes
// when the provider finishes or the context is cancelled; cancelling releases
// the underlying connection promptly. Streaming is never retried: once
// fragments have reached the caller, a silent restart could duplicate output.
func (c *Client) GenerateStream(ctx context.Context, req Request) (<-chan Chunk, error) {
	req, profile, dialect, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "llm.generate_stream", trace.WithAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("llm.provider", profile.Family),
	))
	defer span.End()

	ch, err := dialect.invokeStream(ctx, req, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream setup failed")
		c.logger.ErrorContext(ctx, "stream setup failed",
			"model", req.Model,
			"provider", profile.Family,
			"error", err)
		return nil, err
	}
	return ch, nil
}

// GenerateWithRetry wraps Generate with bounded retries and linear backoff
// (1s, 2s, ...). Credential rejections short-circuit immediately; after the
// last attempt the most recent error is surfaced.
func (c *Client) GenerateWithRetry(ctx context.Context, req Request, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retryable(err) {
			c.logger.WarnContext(ctx, "permanent error, not retrying",
				"model", req.Model,
				"attempt", attempt,
				"error", err)
			return "", err
		}

		c.logger.WarnContext(ctx, "generation attempt failed",
			"model", req.Model,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err)

		if attempt < maxAttempts {
			if err := c.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
				return "", lastErr
			}
		}
	}
	return "", lastErr
}

// sleepContext waits for the delay or the context, whichever ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
