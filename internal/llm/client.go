package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/observability"
)

const instrumentationName = "github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"

// Client is the single entry point discussion code uses to reach a
// language model. It binds a provider to a model and sampling defaults,
// throttles requests through a limiter that may be shared across sessions,
// and records a span and counters per call.
//
// Client is safe for concurrent use when the underlying provider is.
type Client struct {
	provider LLMProvider
	model    string
	defaults []CompletionOption
	stream   bool
	limiter  *rate.Limiter
	logger   *slog.Logger
	tracer   trace.Tracer

	calls    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel sets the model name sent with every request.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithDefaults sets completion options applied before per-call options.
func WithDefaults(opts ...CompletionOption) ClientOption {
	return func(c *Client) { c.defaults = append(c.defaults, opts...) }
}

// WithStreaming makes Invoke consume the provider's stream and concatenate it.
func WithStreaming(enabled bool) ClientOption {
	return func(c *Client) { c.stream = enabled }
}

// WithLimiter throttles calls. A nil limiter disables throttling.
func WithLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = limiter }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(c *Client) {
		if mp != nil {
			c.initInstruments(mp.Meter(instrumentationName))
		}
	}
}

// NewLimiter returns a limiter admitting rps requests per second with a
// burst of one, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewClient wraps provider. Without options the client uses the global
// OpenTelemetry providers and slog.Default.
func NewClient(provider LLMProvider, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		logger:   slog.Default(),
		tracer:   otel.Tracer(instrumentationName),
	}
	c.initInstruments(otel.Meter(instrumentationName))

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) initInstruments(meter metric.Meter) {
	// Instrument creation only fails on invalid names; fall back to no-op
	// instruments returned alongside the error.
	c.calls, _ = meter.Int64Counter(observability.MetricLLMCalls,
		metric.WithDescription("Language model calls issued"))
	c.failures, _ = meter.Int64Counter("mallm.llm.failures",
		metric.WithDescription("Language model calls that failed at the transport level"))
	c.latency, _ = meter.Float64Histogram("mallm.llm.duration",
		metric.WithDescription("Language model call latency"),
		metric.WithUnit("s"))
}

// Provider returns the wrapped provider.
func (c *Client) Provider() LLMProvider {
	return c.provider
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Invoke sends messages to the model and returns the generated text.
// Every failure is returned as an ErrTransportFailed error naming the stage
// set with WithStage; callers treat it as fatal for the session.
func (c *Client) Invoke(ctx context.Context, messages []Message, opts ...CompletionOption) (string, error) {
	req := newRequest(c.model, messages, c.defaults, opts)
	req.Stream = c.stream
	stage := req.Stage

	ctx, span := c.tracer.Start(ctx, "llm.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", c.provider.Name()),
			attribute.String("llm.model", c.model),
			attribute.String("llm.stage", stage),
			attribute.Int("llm.messages", len(messages)),
		))
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String("provider", c.provider.Name()),
		attribute.String("stage", stage),
	)
	c.calls.Add(ctx, 1, attrs)

	text, err := c.invoke(ctx, req)
	if err != nil {
		c.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "language model call failed",
			"provider", c.provider.Name(),
			"stage", stage,
			"retryable", IsRetryable(err),
			"error", err)
		return "", NewTransportError(stage, err)
	}

	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}

func (c *Client) invoke(ctx context.Context, req CompletionRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", NewInvalidRequestError(err.Error())
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	defer func() {
		c.latency.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("provider", c.provider.Name())))
	}()

	if req.Stream {
		return c.collect(ctx, req)
	}

	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", NewEmptyResponseError(c.provider.Name())
	}
	return resp.Message.Content, nil
}

func (c *Client) collect(ctx context.Context, req CompletionRequest) (string, error) {
	chunks, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		sb.WriteString(chunk.Delta)
	}
	return sb.String(), nil
}
