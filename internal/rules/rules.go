package rules

import (
	"strings"

	"github.com/BharatDhande/Vaani/pkg/intent"
)

// defaultMatchers is the built-in English rule table. Declaration order is
// the tiebreak: the WhatsApp matcher precedes make_call and send_message
// because "whatsapp call mom" and "message on whatsapp" would otherwise fire
// the broader patterns first.
func defaultMatchers() []Matcher {
	return []Matcher{
		{
			Name:       "send_whatsapp",
			Kind:       intent.KindSendWhatsApp,
			Keywords:   []string{"whatsapp ", "send whatsapp", "message on whatsapp"},
			Confidence: 0.95,
			Build: func(text string) (intent.Slots, string) {
				return intent.Slots{ContactName: extractContact(text)}, "Opening WhatsApp"
			},
		},
		{
			Name:             "open_app",
			Kind:             intent.KindOpenApp,
			Keywords:         []string{"open ", "launch ", "start ", "run "},
			NegativeKeywords: []string{"search", "look up", "find", "timer", "alarm"},
			Confidence:       0.93,
			Build: func(text string) (intent.Slots, string) {
				name, pkg := extractAppName(text)
				say := "Opening app"
				if name != "" {
					say = "Opening " + name
				}
				return intent.Slots{AppName: name, AppPackage: pkg}, say
			},
		},
		{
			Name:             "make_call",
			Kind:             intent.KindMakeCall,
			Keywords:         []string{"call ", "ring ", "dial ", "phone "},
			NegativeKeywords: []string{"reminder", "schedule", "whatsapp call"},
			Confidence:       0.91,
			Build: func(text string) (intent.Slots, string) {
				slots := intent.Slots{
					ContactName: extractContact(text),
					PhoneNumber: extractPhone(text),
				}
				say := "Calling contact"
				if slots.ContactName != "" {
					say = "Calling " + slots.ContactName
				}
				return slots, say
			},
		},
		{
			Name:       "set_alarm",
			Kind:       intent.KindSetAlarm,
			Keywords:   []string{"set alarm", "wake me", "alarm at", "alarm for"},
			Confidence: 0.93,
			Build: func(text string) (intent.Slots, string) {
				at := extractTime(text)
				say := "Setting alarm"
				if at != "" {
					say = "Setting alarm for " + at
				}
				return intent.Slots{AlarmTime: at}, say
			},
		},
		{
			Name:       "set_timer",
			Kind:       intent.KindSetTimer,
			Keywords:   []string{"set timer", "start timer", "timer for", "countdown"},
			Confidence: 0.93,
			Build: func(text string) (intent.Slots, string) {
				return intent.Slots{TimerSeconds: extractTimerSeconds(text)}, "Timer started"
			},
		},
		{
			Name:       "take_photo",
			Kind:       intent.KindTakePhoto,
			Keywords:   []string{"take photo", "take a photo", "take picture", "take a picture", "take selfie", "take a selfie", "click photo", "click a photo"},
			Confidence: 0.94,
			Build: func(string) (intent.Slots, string) {
				return intent.Slots{}, "Opening camera"
			},
		},
		{
			Name:       "navigate",
			Kind:       intent.KindNavigate,
			Keywords:   []string{"navigate to", "directions to", "take me to", "how to reach", "route to"},
			Confidence: 0.92,
			Build: func(text string) (intent.Slots, string) {
				loc := extractQuery(text, "navigate to", "directions to", "take me to", "route to", "how to reach")
				return intent.Slots{Location: loc}, "Opening navigation"
			},
		},
		{
			Name:       "send_message",
			Kind:       intent.KindSendMessage,
			Keywords:   []string{"send message", "text message", "sms ", "send sms"},
			Confidence: 0.90,
			Build: func(text string) (intent.Slots, string) {
				slots := intent.Slots{
					ContactName: extractContact(text),
					PhoneNumber: extractPhone(text),
				}
				say := "Sending message"
				if slots.ContactName != "" {
					say = "Sending message to " + slots.ContactName
				}
				return slots, say
			},
		},
		{
			Name:       "send_email",
			Kind:       intent.KindSendEmail,
			Keywords:   []string{"send email", "compose email", "email to", "send mail"},
			Confidence: 0.90,
			Build: func(text string) (intent.Slots, string) {
				return intent.Slots{ContactName: extractContact(text)}, "Opening email composer"
			},
		},
		{
			Name:       "set_reminder",
			Kind:       intent.KindSetReminder,
			Keywords:   []string{"remind me", "set reminder", "reminder to", "don't let me forget"},
			Confidence: 0.91,
			Build: func(text string) (intent.Slots, string) {
				return intent.Slots{
					ReminderText: text,
					ReminderTime: extractTime(text),
				}, "Reminder set"
			},
		},
		{
			Name:       "toggle_setting",
			Kind:       intent.KindToggleSetting,
			Keywords:   []string{"turn on", "turn off", "enable ", "disable ", "toggle ", "switch on", "switch off"},
			Confidence: 0.90,
			Build: func(text string) (intent.Slots, string) {
				lower := strings.ToLower(text)
				on := strings.Contains(lower, "turn on") ||
					strings.Contains(lower, "switch on") ||
					strings.Contains(lower, "enable")
				setting := lookupSetting(lower)
				say := "Toggling setting"
				if setting != "" {
					say = "Toggling " + setting
				}
				return intent.Slots{SettingName: setting, SettingValue: &on}, say
			},
		},
		{
			Name:       "read_notifications",
			Kind:       intent.KindReadNotifications,
			Keywords:   []string{"read notifications", "show notifications", "what are my notifications", "any messages"},
			Confidence: 0.92,
			Build: func(string) (intent.Slots, string) {
				return intent.Slots{}, "Reading your notifications"
			},
		},
		{
			Name:       "get_weather",
			Kind:       intent.KindGetWeather,
			Keywords:   []string{"weather", "temperature", "forecast", "rain today", "will it rain"},
			Confidence: 0.89,
			Build: func(text string) (intent.Slots, string) {
				q := extractQuery(text, "weather in", "weather for", "weather at", "temperature in")
				if q == "" {
					q = "current location"
				}
				return intent.Slots{Query: q}, "Fetching weather"
			},
		},
		{
			Name:       "play_music",
			Kind:       intent.KindPlayMusic,
			Keywords:   []string{"play music", "play song", "play ", "pause music", "next song", "previous song", "stop music"},
			Confidence: 0.88,
			Build: func(text string) (intent.Slots, string) {
				return intent.Slots{Query: extractQuery(text, "play ")}, "Playing music"
			},
		},
		{
			Name:       "web_search",
			Kind:       intent.KindWebSearch,
			Keywords:   []string{"search for", "google ", "search ", "look up", "find me", "browse"},
			Confidence: 0.87,
			Build: func(text string) (intent.Slots, string) {
				q := extractQuery(text, "search for", "google", "search", "look up", "find me", "browse")
				return intent.Slots{Query: q}, "Searching the web"
			},
		},
	}
}
