// Package router orchestrates one routing decision: rule tier first, LLM
// escalation when the rules are not confident enough.
//
// The router is the single point that guarantees every utterance yields a
// well-formed response. Nothing below it may surface an error past this
// boundary: escalation failures arrive already absorbed, storage failures
// are absorbed by the store guard, and anything unexpected is caught here
// and converted to a spoken apology.
package router

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BharatDhande/Vaani/internal/observe"
	"github.com/BharatDhande/Vaani/pkg/intent"
	"github.com/BharatDhande/Vaani/pkg/memory"
)

// DefaultRuleThreshold is the confidence below which a rule match is not
// trusted and the utterance escalates.
const DefaultRuleThreshold = 0.85

// defaultApology is spoken when routing itself faults.
const defaultApology = "Sorry, something went wrong. Please try again."

// Matcher is the rule tier seen by the router.
type Matcher interface {
	// Match classifies text and returns the resolution plus the winning
	// matcher's static confidence. Must be pure and non-blocking.
	Match(text, lang string) (intent.Resolution, float64)
}

// Escalator is the LLM tier seen by the router. Resolve never fails; see
// the escalate package.
type Escalator interface {
	Resolve(ctx context.Context, text string, turns []memory.Turn) intent.Response
}

// Option configures a [Router].
type Option func(*Router)

// WithThreshold overrides the rule-confidence threshold.
func WithThreshold(t float64) Option {
	return func(r *Router) {
		r.threshold = t
	}
}

// WithApology overrides the spoken fallback used when routing faults.
func WithApology(say string) Option {
	return func(r *Router) {
		r.apology = say
	}
}

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// Router decides, per utterance, which tier answers. It is read-only after
// construction and safe for concurrent use; per-session serialization is the
// turn store's concern.
type Router struct {
	rules     Matcher
	escalator Escalator
	store     memory.TurnStore
	threshold float64
	apology   string
	metrics   *observe.Metrics
}

// New creates a Router. store should be wrapped in a session.StoreGuard so
// storage failures degrade instead of failing requests.
func New(rules Matcher, escalator Escalator, store memory.TurnStore, opts ...Option) *Router {
	r := &Router{
		rules:     rules,
		escalator: escalator,
		store:     store,
		threshold: DefaultRuleThreshold,
		apology:   defaultApology,
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Route resolves one utterance to a response. It never returns an error and
// never panics past its boundary; latency_ms covers the whole decision.
func (r *Router) Route(ctx context.Context, utt intent.Utterance) (resp intent.Response) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			observe.Logger(ctx).Error("routing fault",
				"session_id", utt.SessionID,
				"panic", rec,
			)
			resp = intent.Response{
				Intent:       intent.KindUnknown,
				Confidence:   0,
				TextResponse: r.apology,
				RoutedBy:     intent.RoutedByRule,
			}
			r.metrics.RecordRouteDecision(ctx, "fallback", string(intent.KindUnknown))
		}
		elapsed := time.Since(start)
		resp.LatencyMS = elapsed.Milliseconds()
		r.metrics.RouteDuration.Record(ctx, elapsed.Seconds())
	}()

	ruleStart := time.Now()
	res, conf := r.rules.Match(utt.Text, utt.Lang)
	r.metrics.RuleMatchDuration.Record(ctx, time.Since(ruleStart).Seconds())

	switch {
	case conf >= r.threshold:
		return r.respondRule(ctx, utt, res, conf)

	case utt.Partial:
		// Interim transcripts never reach the LLM tier.
		r.metrics.RecordRouteDecision(ctx, "suppressed", string(intent.KindUnknown))
		return intent.Response{
			Intent:     intent.KindUnknown,
			Confidence: 0,
			RoutedBy:   intent.RoutedByRule,
		}

	default:
		return r.respondLLM(ctx, utt)
	}
}

// respondRule finishes a confident rule match. Stateless intents skip memory
// entirely; context-dependent ones consult it for a missing referent and
// record their own turn so later follow-ups can resolve against it.
func (r *Router) respondRule(ctx context.Context, utt intent.Utterance, res intent.Resolution, conf float64) intent.Response {
	if res.Kind.NeedsContext() && res.ContactName == "" && res.PhoneNumber == "" {
		turns := r.snapshot(ctx, utt.SessionID)
		if ref := lastContact(turns); ref != "" {
			res.ContactName = ref
		}
	}

	resp := intent.Response{
		Intent:       res.Kind,
		Slots:        res.Slots,
		Confidence:   conf,
		TextResponse: res.Say,
		RoutedBy:     intent.RoutedByRule,
	}
	if res.Kind.NeedsContext() {
		r.remember(ctx, utt, resp)
	}
	r.metrics.RecordRouteDecision(ctx, "rule", string(res.Kind))
	return resp
}

// respondLLM escalates: memory snapshot, model call, turn append.
func (r *Router) respondLLM(ctx context.Context, utt intent.Utterance) intent.Response {
	turns := r.snapshot(ctx, utt.SessionID)

	escStart := time.Now()
	resp := r.escalator.Resolve(ctx, utt.Text, turns)
	r.metrics.EscalationDuration.Record(ctx, time.Since(escStart).Seconds())

	// Escalation failures count themselves inside the escalate client, which
	// can tell a failed call from a model that legitimately answered unknown.

	r.remember(ctx, utt, resp)
	r.metrics.RecordRouteDecision(ctx, "llm", string(resp.Intent))
	return resp
}

// snapshot reads the session history, treating failures as an empty session.
func (r *Router) snapshot(ctx context.Context, sessionID string) []memory.Turn {
	if sessionID == "" {
		return nil
	}
	turns, err := r.store.Get(ctx, sessionID)
	if err != nil {
		r.metrics.RecordMemoryOp(ctx, "get", "error")
		observe.Logger(ctx).Warn("memory read failed, continuing without history",
			"session_id", sessionID, "err", err)
		return nil
	}
	r.metrics.RecordMemoryOp(ctx, "get", "ok")
	return turns
}

// remember appends the finished turn. Nothing is appended for anonymous
// sessions or when the caller already disconnected, so an abandoned
// escalation leaves no partial history behind.
func (r *Router) remember(ctx context.Context, utt intent.Utterance, resp intent.Response) {
	if utt.SessionID == "" || ctx.Err() != nil {
		return
	}
	turn := memory.Turn{
		ID:        uuid.NewString(),
		SessionID: utt.SessionID,
		Text:      utt.Text,
		Intent:    resp.Intent,
		Slots:     resp.Slots,
		Spoken:    resp.TextResponse,
		Timestamp: time.Now().UTC(),
	}
	if err := r.store.Append(ctx, utt.SessionID, turn); err != nil {
		r.metrics.RecordMemoryOp(ctx, "append", "error")
		observe.Logger(ctx).Warn("memory append failed",
			"session_id", utt.SessionID, "err", err)
		return
	}
	r.metrics.RecordMemoryOp(ctx, "append", "ok")
}

// lastContact walks the history newest-first for a referent a bare "call
// her" style utterance can reuse.
func lastContact(turns []memory.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if name := turns[i].Slots.ContactName; name != "" {
			return name
		}
	}
	return ""
}
