package escalate

import (
	"github.com/BharatDhande/Vaani/pkg/memory"
	llm "github.com/BharatDhande/Vaani/pkg/provider/llm"
)

// systemPrompt instructs the model to answer with a single JSON intent
// object. response_format is deliberately not used: several OpenAI-compatible
// gateways silently return empty content when it is set, so the prompt does
// the constraining and the parser tolerates the rest.
const systemPrompt = `You are Vaani, a voice assistant. Reply ONLY with a JSON object. No prose, no markdown, no explanation.

Every response MUST have "intent" and "text_response" (max 15 words, what you say aloud).

Intents: open_app | make_call | send_whatsapp | send_message | send_email | set_alarm | set_timer | set_reminder | web_search | play_music | get_weather | navigate | toggle_setting | take_photo | read_notifications | llm_response

Examples:
{"intent":"llm_response","text_response":"I am doing great, thanks for asking!"}
{"intent":"open_app","app_name":"whatsapp","app_package":"com.whatsapp","text_response":"Opening WhatsApp now."}
{"intent":"make_call","contact_name":"Mom","text_response":"Calling Mom now."}
{"intent":"set_timer","timer_seconds":300,"text_response":"5 minute timer started."}
{"intent":"web_search","query":"weather today","text_response":"Searching the web for you."}

Output ONLY the JSON. Start with { and end with }. Nothing before or after.`

// buildMessages interleaves the stored conversation turns ahead of the
// current utterance. Each turn yields the user's text plus what the
// assistant said back, so follow-ups like "call him again" resolve.
func buildMessages(turns []memory.Turn, text string) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)*2+1)
	for _, turn := range turns {
		if turn.Text != "" {
			msgs = append(msgs, llm.Message{Role: "user", Content: turn.Text})
		}
		if turn.Spoken != "" {
			msgs = append(msgs, llm.Message{Role: "assistant", Content: turn.Spoken})
		}
	}
	return append(msgs, llm.Message{Role: "user", Content: text})
}
