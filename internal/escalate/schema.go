package escalate

import (
	"github.com/kaptinlin/jsonschema"
)

// intentSchema is the contract the model's JSON must satisfy before it is
// trusted as an action payload. "intent" alone is required; a missing
// text_response is defaulted after decoding. additionalProperties stays open
// so forward-compatible extras from newer prompts do not break old servers.
const intentSchema = `{
  "type": "object",
  "required": ["intent"],
  "properties": {
    "intent": {
      "type": "string",
      "enum": [
        "open_app", "make_call", "send_message", "send_whatsapp",
        "send_email", "set_alarm", "set_timer", "set_reminder",
        "web_search", "play_music", "get_weather", "navigate",
        "take_photo", "toggle_setting", "read_notifications",
        "llm_response", "unknown"
      ]
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "app_name": {"type": "string"},
    "app_package": {"type": "string"},
    "phone_number": {"type": "string"},
    "contact_name": {"type": "string"},
    "message_body": {"type": "string"},
    "email_to": {"type": "string"},
    "email_subject": {"type": "string"},
    "alarm_time": {"type": "string"},
    "timer_seconds": {"type": "integer", "minimum": 0},
    "reminder_text": {"type": "string"},
    "reminder_time": {"type": "string"},
    "query": {"type": "string"},
    "location": {"type": "string"},
    "setting_name": {"type": "string"},
    "setting_value": {"type": "boolean"},
    "text_response": {"type": "string"}
  }
}`

var compiledSchema = func() *jsonschema.Schema {
	schema, err := jsonschema.NewCompiler().Compile([]byte(intentSchema))
	if err != nil {
		panic("escalate: compile intent schema: " + err.Error())
	}
	return schema
}()

// validPayload reports whether data conforms to the intent schema.
func validPayload(data []byte) bool {
	return compiledSchema.ValidateJSON(data).IsValid()
}
