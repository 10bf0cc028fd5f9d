// Package escalate sends utterances the rule tier could not confidently
// resolve to a language model, together with the session's recent turns, and
// decodes the model's JSON reply into an intent resolution.
//
// Resolve never returns an error: a voice assistant must always say
// something, so transport failures, timeouts and unusable model output all
// degrade to a spoken response with the llm_response intent. The parsing
// ladder in parse.go absorbs the usual failure shapes of cheap
// OpenAI-compatible gateways.
package escalate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BharatDhande/Vaani/internal/observe"
	"github.com/BharatDhande/Vaani/pkg/intent"
	"github.com/BharatDhande/Vaani/pkg/memory"
	llm "github.com/BharatDhande/Vaani/pkg/provider/llm"
)

const (
	defaultTimeout     = 8 * time.Second
	defaultMaxTokens   = 256
	defaultTemperature = 0.3

	// connectApology is spoken when the provider cannot be reached at all.
	connectApology = "Sorry, I had trouble connecting to the AI. Please try again."
)

// Option configures a [Client].
type Option func(*Client)

// WithTimeout bounds each completion call. Default: 8s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxTokens caps the model's reply length. Default: 256.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature. Default: 0.3.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client escalates utterances to an [llm.Provider]. It is read-only after
// construction and safe for concurrent use.
type Client struct {
	llm         llm.Provider
	timeout     time.Duration
	maxTokens   int
	temperature float64
	metrics     *observe.Metrics
}

// New returns a Client backed by provider.
func New(provider llm.Provider, opts ...Option) *Client {
	c := &Client{
		llm:         provider,
		timeout:     defaultTimeout,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Resolve asks the model to classify text given the session's stored turns.
// It always returns a usable response routed by the llm tier; failures are
// reported to the caller only through the spoken apology.
func (c *Client) Resolve(ctx context.Context, text string, turns []memory.Turn) intent.Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     buildMessages(turns, text),
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	}

	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		slog.Error("llm escalation failed", "model", c.llm.Model(), "err", err)
		c.metrics.RecordEscalationError(ctx, "transport")
		return apology(connectApology)
	}

	raw := strings.TrimSpace(resp.Content)
	if raw == "" {
		slog.Error("llm returned empty content", "model", c.llm.Model())
		c.metrics.RecordEscalationError(ctx, "empty_content")
		return apology("Empty response from AI. Check API key or model name.")
	}

	res, conf := parseResolution(raw)
	return intent.Response{
		Intent:       res.Kind,
		Slots:        res.Slots,
		Confidence:   conf,
		TextResponse: res.Say,
		RoutedBy:     intent.RoutedByLLM,
	}
}

// Model reports the underlying provider's model identifier.
func (c *Client) Model() string {
	return c.llm.Model()
}

// apology wraps a spoken failure message as an llm-routed unknown, so an
// escalation failure never surfaces a transport error to the caller. Resolve
// counts the failure reason before returning this.
func apology(say string) intent.Response {
	return intent.Response{
		Intent:       intent.KindUnknown,
		Confidence:   0,
		TextResponse: say,
		RoutedBy:     intent.RoutedByLLM,
	}
}
