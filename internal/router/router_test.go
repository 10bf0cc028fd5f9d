package router

import (
	"context"
	"testing"
	"time"

	"github.com/BharatDhande/Vaani/internal/rules"
	"github.com/BharatDhande/Vaani/pkg/intent"
	"github.com/BharatDhande/Vaani/pkg/memory"
	memorymock "github.com/BharatDhande/Vaani/pkg/memory/mock"
)

// stubEscalator is a controllable Escalator for router tests.
type stubEscalator struct {
	resp     intent.Response
	fn       func(ctx context.Context, text string, turns []memory.Turn) intent.Response
	calls    int
	gotText  string
	gotTurns []memory.Turn
}

func (s *stubEscalator) Resolve(ctx context.Context, text string, turns []memory.Turn) intent.Response {
	s.calls++
	s.gotText = text
	s.gotTurns = turns
	if s.fn != nil {
		return s.fn(ctx, text, turns)
	}
	return s.resp
}

func llmAnswer(say string) intent.Response {
	return intent.Response{
		Intent:       intent.KindLLMResponse,
		Confidence:   1.0,
		TextResponse: say,
		RoutedBy:     intent.RoutedByLLM,
	}
}

func TestRoute_ConfidentRuleMatch(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{}
	store := &memorymock.Store{}
	r := New(rules.NewEngine(), esc, store)

	resp := r.Route(context.Background(), intent.Utterance{
		Text:      "open whatsapp",
		SessionID: "s1",
		Lang:      "en",
	})

	if resp.Intent != intent.KindOpenApp {
		t.Fatalf("intent = %s, want %s", resp.Intent, intent.KindOpenApp)
	}
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %s, want rule", resp.RoutedBy)
	}
	if resp.Confidence < DefaultRuleThreshold {
		t.Errorf("confidence = %v, want >= %v", resp.Confidence, DefaultRuleThreshold)
	}
	if resp.AppName != "whatsapp" {
		t.Errorf("app_name = %q", resp.AppName)
	}
	if esc.calls != 0 {
		t.Errorf("escalator called %d times on the rule fast path", esc.calls)
	}
	// open_app is stateless: the fast path must not touch memory at all.
	if len(store.GetCalls) != 0 || len(store.AppendCalls) != 0 {
		t.Errorf("stateless fast path touched memory: gets=%d appends=%d",
			len(store.GetCalls), len(store.AppendCalls))
	}
	if resp.LatencyMS < 0 {
		t.Errorf("latency_ms = %d", resp.LatencyMS)
	}
}

func TestRoute_ContextIntentResolvesReferent(t *testing.T) {
	t.Parallel()

	table := []rules.Matcher{{
		Name:       "bare_call",
		Kind:       intent.KindMakeCall,
		Keywords:   []string{"call her", "call him", "call them"},
		Confidence: 0.9,
	}}
	store := &memorymock.Store{
		Turns: []memory.Turn{
			{Text: "call Mom", Intent: intent.KindMakeCall, Slots: intent.Slots{ContactName: "Mom"}},
			{Text: "what time is it", Intent: intent.KindLLMResponse},
		},
	}
	r := New(rules.NewEngineWith(table), &stubEscalator{}, store)

	resp := r.Route(context.Background(), intent.Utterance{Text: "call her", SessionID: "s1"})

	if resp.Intent != intent.KindMakeCall {
		t.Fatalf("intent = %s", resp.Intent)
	}
	if resp.ContactName != "Mom" {
		t.Errorf("contact_name = %q, want referent from history", resp.ContactName)
	}
	if len(store.GetCalls) != 1 {
		t.Errorf("GetCalls = %d, want 1", len(store.GetCalls))
	}
	// Context-dependent rule turns are recorded for later follow-ups.
	if len(store.AppendCalls) != 1 {
		t.Errorf("AppendCalls = %d, want 1", len(store.AppendCalls))
	}
}

func TestRoute_PartialSuppressed(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{resp: llmAnswer("should never be spoken")}
	store := &memorymock.Store{}
	r := New(rules.NewEngine(), esc, store)

	resp := r.Route(context.Background(), intent.Utterance{
		Text:      "umm i think",
		SessionID: "s1",
		Partial:   true,
	})

	if resp.Intent != intent.KindUnknown {
		t.Fatalf("intent = %s, want unknown", resp.Intent)
	}
	if resp.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", resp.Confidence)
	}
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %s, want rule", resp.RoutedBy)
	}
	if esc.calls != 0 {
		t.Error("partial utterance must never reach the LLM tier")
	}
	if len(store.AppendCalls) != 0 {
		t.Error("suppressed utterances must not be recorded")
	}
}

func TestRoute_ConfidentPartialStillAnswered(t *testing.T) {
	t.Parallel()

	r := New(rules.NewEngine(), &stubEscalator{}, &memorymock.Store{})

	resp := r.Route(context.Background(), intent.Utterance{
		Text:    "set timer for 5 minutes",
		Partial: true,
	})

	if resp.Intent != intent.KindSetTimer {
		t.Fatalf("intent = %s, want a confident rule match even on a partial", resp.Intent)
	}
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %s", resp.RoutedBy)
	}
}

func TestRoute_Escalation(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{resp: llmAnswer("I'm doing great, thanks!")}
	store := &memorymock.Store{
		Turns: []memory.Turn{{Text: "hi", Spoken: "Hello!"}},
	}
	r := New(rules.NewEngine(), esc, store)

	resp := r.Route(context.Background(), intent.Utterance{
		Text:      "how are you today",
		SessionID: "s1",
	})

	if resp.RoutedBy != intent.RoutedByLLM {
		t.Fatalf("routed_by = %s, want llm", resp.RoutedBy)
	}
	if resp.TextResponse != "I'm doing great, thanks!" {
		t.Errorf("text_response = %q", resp.TextResponse)
	}
	if esc.calls != 1 {
		t.Fatalf("escalator calls = %d, want 1", esc.calls)
	}
	if len(esc.gotTurns) != 1 {
		t.Errorf("escalator got %d history turns, want 1", len(esc.gotTurns))
	}
	if len(store.AppendCalls) != 1 {
		t.Fatalf("AppendCalls = %d, want 1", len(store.AppendCalls))
	}
	turn := store.AppendCalls[0].Turn
	if turn.Text != "how are you today" || turn.Spoken != resp.TextResponse {
		t.Errorf("recorded turn = %+v", turn)
	}
	if turn.ID == "" {
		t.Error("turn ID not assigned")
	}
}

func TestRoute_NoAppendAfterDisconnect(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	esc := &stubEscalator{
		fn: func(context.Context, string, []memory.Turn) intent.Response {
			cancel() // caller goes away mid-escalation
			return llmAnswer("too late")
		},
	}
	store := &memorymock.Store{}
	r := New(rules.NewEngine(), esc, store)

	resp := r.Route(ctx, intent.Utterance{Text: "how are you", SessionID: "s1"})

	if resp.RoutedBy != intent.RoutedByLLM {
		t.Fatalf("routed_by = %s", resp.RoutedBy)
	}
	if len(store.AppendCalls) != 0 {
		t.Error("abandoned escalation must not append a partial turn")
	}
}

func TestRoute_AnonymousSessionSkipsMemory(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{resp: llmAnswer("hello")}
	store := &memorymock.Store{}
	r := New(rules.NewEngine(), esc, store)

	r.Route(context.Background(), intent.Utterance{Text: "how are you"})

	if len(store.GetCalls) != 0 || len(store.AppendCalls) != 0 {
		t.Errorf("anonymous request touched memory: gets=%d appends=%d",
			len(store.GetCalls), len(store.AppendCalls))
	}
	if esc.calls != 1 {
		t.Errorf("escalator calls = %d, want 1", esc.calls)
	}
	if len(esc.gotTurns) != 0 {
		t.Errorf("escalator got %d turns, want none", len(esc.gotTurns))
	}
}

func TestRoute_PanicBecomesApology(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{
		fn: func(context.Context, string, []memory.Turn) intent.Response {
			panic("boom")
		},
	}
	r := New(rules.NewEngine(), esc, &memorymock.Store{})

	resp := r.Route(context.Background(), intent.Utterance{Text: "how are you", SessionID: "s1"})

	if resp.Intent != intent.KindUnknown {
		t.Fatalf("intent = %s, want unknown", resp.Intent)
	}
	if resp.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", resp.Confidence)
	}
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %s, want rule", resp.RoutedBy)
	}
	if resp.TextResponse == "" {
		t.Error("fallback must carry a spoken apology")
	}
	if resp.LatencyMS < 0 {
		t.Errorf("latency_ms = %d", resp.LatencyMS)
	}
}

func TestRoute_LatencyCoversEscalation(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{
		fn: func(context.Context, string, []memory.Turn) intent.Response {
			time.Sleep(50 * time.Millisecond)
			return llmAnswer("slow answer")
		},
	}
	r := New(rules.NewEngine(), esc, &memorymock.Store{})

	resp := r.Route(context.Background(), intent.Utterance{Text: "how are you"})

	if resp.LatencyMS < 45 {
		t.Errorf("latency_ms = %d, must include the escalation wait", resp.LatencyMS)
	}
}

func TestRoute_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	table := []rules.Matcher{{
		Name:       "exact",
		Kind:       intent.KindTakePhoto,
		Keywords:   []string{"photo"},
		Confidence: 0.85,
	}}
	esc := &stubEscalator{resp: llmAnswer("fallback")}
	r := New(rules.NewEngineWith(table), esc, &memorymock.Store{}, WithThreshold(0.85))

	resp := r.Route(context.Background(), intent.Utterance{Text: "photo please"})

	// Confidence equal to the threshold stays on the rule tier.
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %s, want rule at the boundary", resp.RoutedBy)
	}
	if esc.calls != 0 {
		t.Errorf("escalator calls = %d, want 0", esc.calls)
	}
}

func TestRoute_CustomApology(t *testing.T) {
	t.Parallel()

	esc := &stubEscalator{
		fn: func(context.Context, string, []memory.Turn) intent.Response {
			panic("boom")
		},
	}
	r := New(rules.NewEngine(), esc, &memorymock.Store{}, WithApology("Kuch gadbad ho gayi."))

	resp := r.Route(context.Background(), intent.Utterance{Text: "how are you"})
	if resp.TextResponse != "Kuch gadbad ho gayi." {
		t.Errorf("text_response = %q", resp.TextResponse)
	}
}
