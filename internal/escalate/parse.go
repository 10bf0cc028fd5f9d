package escalate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/BharatDhande/Vaani/pkg/intent"
)

// maxFallbackLen caps how much raw model prose is spoken when every JSON
// recovery rung fails.
const maxFallbackLen = 300

var (
	fencePattern   = regexp.MustCompile("```(?:json)?\\s*")
	bracePattern   = regexp.MustCompile(`\{[^{}]*\}`)
	errBadPayload  = errors.New("escalate: payload failed schema validation")
	errEmptyIntent = errors.New("escalate: payload missing intent")
)

// payload is the decoded model output. Confidence is a pointer so a model
// that omits it can be told apart from one that reports zero.
type payload struct {
	intent.Resolution
	Confidence *float64 `json:"confidence"`
}

// parseResolution recovers a resolution from raw model output. Models behind
// cheap gateways routinely wrap the JSON in markdown fences, truncate it at
// the token limit, or bury it in prose; each rung of the ladder handles one
// of those failure shapes. The final rung never fails: unusable output
// becomes a plain spoken llm_response.
func parseResolution(raw string) (intent.Resolution, float64) {
	cleaned := strings.TrimSpace(raw)
	if strings.Contains(cleaned, "```") {
		cleaned = strings.TrimSpace(fencePattern.ReplaceAllString(cleaned, ""))
	}

	if res, conf, err := decodePayload([]byte(cleaned)); err == nil {
		return res, conf
	}

	if repaired := repairTruncated(cleaned); repaired != cleaned {
		if res, conf, err := decodePayload([]byte(repaired)); err == nil {
			slog.Warn("repaired truncated model JSON", "repaired", clip(repaired, 150))
			return res, conf
		}
	}

	if block := bracePattern.FindString(cleaned); block != "" {
		if res, conf, err := decodePayload([]byte(block)); err == nil {
			slog.Warn("extracted JSON from model prose", "block", clip(block, 100))
			return res, conf
		}
	}

	slog.Warn("model output unusable as JSON, speaking it raw", "raw", clip(cleaned, 150))
	return intent.Resolution{
		Kind: intent.KindLLMResponse,
		Say:  clip(cleaned, maxFallbackLen),
	}, 1.0
}

// decodePayload validates data against the intent schema and unmarshals it.
func decodePayload(data []byte) (intent.Resolution, float64, error) {
	if !json.Valid(data) || !validPayload(data) {
		return intent.Resolution{}, 0, errBadPayload
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return intent.Resolution{}, 0, err
	}
	if p.Kind == "" {
		return intent.Resolution{}, 0, errEmptyIntent
	}
	if p.Say == "" {
		p.Say = "Done."
	}

	conf := 1.0
	if p.Confidence != nil {
		conf = *p.Confidence
	}
	return p.Resolution, conf, nil
}

// repairTruncated closes a JSON object cut off by the token limit: an open
// string value gets its quote, then unbalanced braces are closed.
func repairTruncated(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if last := s[len(s)-1]; last != '"' && last != '}' {
		s += `"`
	}
	if opens := strings.Count(s, "{") - strings.Count(s, "}"); opens > 0 {
		s += strings.Repeat("}", opens)
	}
	return s
}

// clip bounds s to at most n runes for logs and spoken fallbacks.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
