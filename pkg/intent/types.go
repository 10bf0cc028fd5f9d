// Package intent defines the wire types shared between the Vaani routing
// pipeline and its clients: the classified intent kinds, their slot payloads,
// and the request/response shapes exchanged with the transport layer.
//
// Device-action handlers downstream of the backend dispatch on [Kind] and read
// only the slots relevant to that kind. Slots that were not extracted are
// absent from the serialized form rather than defaulted to empty strings.
package intent

// Kind classifies the user's goal. Each kind carries only the slots relevant
// to it; see [Slots] for the full field set.
type Kind string

const (
	KindOpenApp           Kind = "open_app"
	KindMakeCall          Kind = "make_call"
	KindSendWhatsApp      Kind = "send_whatsapp"
	KindSendMessage       Kind = "send_message"
	KindSendEmail         Kind = "send_email"
	KindWebSearch         Kind = "web_search"
	KindNavigate          Kind = "navigate"
	KindPlayMusic         Kind = "play_music"
	KindGetWeather        Kind = "get_weather"
	KindSetAlarm          Kind = "set_alarm"
	KindSetTimer          Kind = "set_timer"
	KindSetReminder       Kind = "set_reminder"
	KindToggleSetting     Kind = "toggle_setting"
	KindTakePhoto         Kind = "take_photo"
	KindReadNotifications Kind = "read_notifications"

	// KindLLMResponse is a free-form spoken answer with no device action.
	// Only TextResponse is populated.
	KindLLMResponse Kind = "llm_response"

	// KindUnknown means no classification could be made.
	KindUnknown Kind = "unknown"
)

// IsValid reports whether k is a recognised intent kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindOpenApp, KindMakeCall, KindSendWhatsApp, KindSendMessage,
		KindSendEmail, KindWebSearch, KindNavigate, KindPlayMusic,
		KindGetWeather, KindSetAlarm, KindSetTimer, KindSetReminder,
		KindToggleSetting, KindTakePhoto, KindReadNotifications,
		KindLLMResponse, KindUnknown:
		return true
	}
	return false
}

// NeedsContext reports whether resolving this kind may require conversation
// history — contact-directed intents can arrive with a pronoun referent
// ("call her") that only prior turns can resolve. Stateless kinds skip the
// memory read on the rule fast path entirely.
func (k Kind) NeedsContext() bool {
	switch k {
	case KindMakeCall, KindSendWhatsApp, KindSendMessage, KindSendEmail:
		return true
	}
	return false
}

// RoutedBy records which tier of the pipeline produced the final response.
type RoutedBy string

const (
	// RoutedByRule marks responses produced by the deterministic rule matcher.
	RoutedByRule RoutedBy = "rule"

	// RoutedByLLM marks responses produced by the LLM escalation tier.
	RoutedByLLM RoutedBy = "llm"
)

// Utterance is the immutable input to one routing decision.
type Utterance struct {
	// Text is the transcribed speech. Must be non-empty after trimming.
	Text string `json:"text"`

	// SessionID identifies the conversation thread for memory lookups.
	SessionID string `json:"session_id"`

	// Partial marks an interim speech-recognition result. Partial utterances
	// are never escalated to the LLM tier.
	Partial bool `json:"partial"`

	// Lang is a BCP 47-ish language code ("en", "hi", ...). Defaults to "en".
	Lang string `json:"lang"`
}

// Slots carries the extracted parameters of an intent. Every field is
// optional; unpopulated slots are omitted from the serialized form.
type Slots struct {
	AppName      string `json:"app_name,omitempty"`      // open_app
	AppPackage   string `json:"app_package,omitempty"`   // open_app (Android package)
	ContactName  string `json:"contact_name,omitempty"`  // make_call / send_*
	PhoneNumber  string `json:"phone_number,omitempty"`  // make_call / send_message
	MessageBody  string `json:"message_body,omitempty"`  // send_message / send_whatsapp / send_email
	EmailTo      string `json:"email_to,omitempty"`      // send_email
	EmailSubject string `json:"email_subject,omitempty"` // send_email
	AlarmTime    string `json:"alarm_time,omitempty"`    // set_alarm ("HH:MM" or "7 am")
	TimerSeconds int    `json:"timer_seconds,omitempty"` // set_timer
	ReminderText string `json:"reminder_text,omitempty"` // set_reminder
	ReminderTime string `json:"reminder_time,omitempty"` // set_reminder
	Query        string `json:"query,omitempty"`         // web_search / get_weather / play_music
	Location     string `json:"location,omitempty"`      // navigate / get_weather
	SettingName  string `json:"setting_name,omitempty"`  // toggle_setting
	SettingValue *bool  `json:"setting_value,omitempty"` // toggle_setting (nil = not stated)
}

// Resolution is a classified intent plus its extracted slots and the phrase
// the assistant should speak. Both the rule matcher and the LLM escalation
// client produce this shape.
type Resolution struct {
	Kind Kind `json:"intent"`
	Slots

	// Say is the phrase the assistant speaks aloud for this resolution.
	Say string `json:"text_response,omitempty"`
}

// Response is the normalized answer returned for every routing decision.
// Slot fields are flattened next to the intent so thin clients can dispatch
// on "intent" and read parameters without a nested lookup.
type Response struct {
	Intent Kind `json:"intent"`
	Slots

	// Confidence is the matcher's static confidence for rule-routed responses
	// or the model's self-reported confidence for LLM-routed ones, in [0, 1].
	Confidence float64 `json:"confidence"`

	// TextResponse is what the assistant says aloud. Absent when the resolved
	// intent needs no spoken confirmation.
	TextResponse string `json:"text_response,omitempty"`

	// RoutedBy records the tier that produced this response.
	RoutedBy RoutedBy `json:"routed_by"`

	// LatencyMS is the wall-clock duration of the whole routing decision,
	// not just the tier that answered.
	LatencyMS int64 `json:"latency_ms"`
}
