package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// Slot extraction is lightweight pattern capture, not full NLP. Every
// extractor takes the original-cased text (captures keep the user's casing)
// and returns the zero value when nothing usable is found.

var (
	// appTrigger grabs the word(s) after an open/launch trigger when the app
	// is not in the package map: "open candy crush app" → "candy crush".
	appTrigger = regexp.MustCompile(`(?i)(?:open|launch|start|run)\s+(\w[\w\s]*?)(?:\s+app)?$`)

	// contactPattern captures a contact name after a call/message trigger,
	// stopping at common trailing words.
	contactPattern = regexp.MustCompile(`(?i)(?:call|message|text|whatsapp|ring|dial|ping)\s+(?:to\s+)?([A-Za-z][A-Za-z\s]{1,30}?)(?:\s+(?:and|please|now|on|via)|\.|$)`)

	// phonePattern captures an explicit phone number.
	phonePattern = regexp.MustCompile(`(\+?\d[\d\s\-]{5,}\d)`)

	// timePattern captures a clock time such as "7 am", "6:30" or "18:00".
	timePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)

	// durationPattern captures value/unit pairs for timer accumulation.
	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(hour|hr|minute|min|second|sec)`)
)

// extractAppName resolves the app reference in text to (name, package).
// Package map lookup (with phonetic fallback) runs first; otherwise the word
// after the trigger verb is taken as the name with no package.
func extractAppName(text string) (string, string) {
	lower := strings.ToLower(text)
	if name, pkg := lookupApp(lower); name != "" {
		return name, pkg
	}
	if m := appTrigger.FindStringSubmatch(lower); m != nil {
		name := strings.TrimSpace(m[1])
		return name, appPackages[name]
	}
	return "", ""
}

// extractContact returns the contact name following a call/message trigger.
func extractContact(text string) string {
	if m := contactPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractPhone returns an explicit phone number if one was dictated.
func extractPhone(text string) string {
	if m := phonePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractTime returns the first clock time mentioned in text.
func extractTime(text string) string {
	if m := timePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractTimerSeconds accumulates every duration mention into total seconds:
// "2 hours 30 minutes" → 9000. Returns 0 when no duration is present.
func extractTimerSeconds(text string) int {
	total := 0
	for _, m := range durationPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(strings.ToLower(m[2]), "h"):
			total += v * 3600
		case strings.HasPrefix(strings.ToLower(m[2]), "m"):
			total += v * 60
		default:
			total += v
		}
	}
	return total
}

// extractQuery returns the text after the first trigger phrase found,
// stripped of trailing punctuation: ("search for cat videos", ["search for"])
// → "cat videos".
func extractQuery(text string, triggers ...string) string {
	lower := strings.ToLower(text)
	for _, trig := range triggers {
		idx := strings.Index(lower, trig)
		if idx == -1 {
			continue
		}
		q := strings.Trim(text[idx+len(trig):], " ?.,!")
		if q != "" {
			return q
		}
	}
	return ""
}
