// Package rules implements the deterministic tier of the intent pipeline:
// an ordered list of keyword matchers that map an utterance to an intent and
// its slots without any network call.
//
// Matching is first-match-wins in declaration order — not best-match scoring.
// That keeps the hot path at a few string scans per request and makes the
// outcome trivially predictable; the matcher table is ordered so that more
// specific patterns ("send whatsapp") appear before the broader ones that
// would also fire ("send message", "play ").
//
// Match is a pure function of (text, lang), which makes results safe to
// memoize: the engine keeps a small LRU of recent decisions so repeated
// finals of the same utterance (a common STT pattern) skip the scan.
package rules

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/BharatDhande/Vaani/pkg/intent"
)

// defaultCacheSize bounds the match memoization LRU.
const defaultCacheSize = 512

// Matcher is one (pattern set → intent builder) entry in the rule table.
type Matcher struct {
	// Name labels the matcher in logs and tests.
	Name string

	// Kind is the intent this matcher resolves to.
	Kind intent.Kind

	// Keywords trigger the matcher when ANY of them occurs in the lowered
	// text. Trailing spaces are significant ("run " avoids "running").
	Keywords []string

	// NegativeKeywords veto the match when ANY of them occurs.
	NegativeKeywords []string

	// Confidence is this matcher's static confidence, judged at design time
	// by how unambiguous the pattern class is. Not computed per input.
	Confidence float64

	// Build extracts slots and the spoken confirmation from the original-
	// cased text. May be nil for matchers with no slots.
	Build func(text string) (intent.Slots, string)
}

// matches reports whether m fires on the lowered text.
func (m *Matcher) matches(textLower string) bool {
	for _, neg := range m.NegativeKeywords {
		if strings.Contains(textLower, neg) {
			return false
		}
	}
	for _, kw := range m.Keywords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

// cacheKey identifies one memoized match decision.
type cacheKey struct {
	text string
	lang string
}

// cacheEntry pairs the memoized resolution with its confidence.
type cacheEntry struct {
	res        intent.Resolution
	confidence float64
}

// Engine evaluates the ordered matcher table. It is read-only after
// construction and safe for concurrent use; the LRU handles its own locking.
type Engine struct {
	matchers []Matcher
	cache    *lru.Cache[cacheKey, cacheEntry]
}

// NewEngine creates an Engine with the built-in matcher table.
func NewEngine() *Engine {
	return NewEngineWith(defaultMatchers())
}

// NewEngineWith creates an Engine with a custom matcher table. Used by tests
// and by deployments that extend the rule set.
func NewEngineWith(matchers []Matcher) *Engine {
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[cacheKey, cacheEntry](defaultCacheSize)
	return &Engine{matchers: matchers, cache: cache}
}

// Match classifies text and returns the resolution plus the winning
// matcher's confidence. It never fails: malformed or empty text resolves to
// (unknown, 0.0). lang is carried for future language-specific tables; the
// built-in table is English.
func (e *Engine) Match(text, lang string) (intent.Resolution, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return intent.Resolution{Kind: intent.KindUnknown}, 0
	}

	key := cacheKey{text: trimmed, lang: lang}
	if hit, ok := e.cache.Get(key); ok {
		return hit.res, hit.confidence
	}

	res, conf := e.match(trimmed)
	e.cache.Add(key, cacheEntry{res: res, confidence: conf})
	return res, conf
}

// match runs the table scan. Split out so the cache path stays obvious.
func (e *Engine) match(text string) (intent.Resolution, float64) {
	lower := strings.ToLower(text)

	for i := range e.matchers {
		m := &e.matchers[i]
		if !m.matches(lower) {
			continue
		}

		res := intent.Resolution{Kind: m.Kind}
		if m.Build != nil {
			res.Slots, res.Say = m.Build(text)
		}
		return res, m.Confidence
	}

	return intent.Resolution{Kind: intent.KindUnknown}, 0
}
