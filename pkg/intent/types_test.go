package intent

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNeedsContext(t *testing.T) {
	t.Parallel()
	contextual := map[Kind]bool{
		KindMakeCall:     true,
		KindSendWhatsApp: true,
		KindSendMessage:  true,
		KindSendEmail:    true,
	}
	for _, k := range []Kind{
		KindOpenApp, KindMakeCall, KindSendWhatsApp, KindSendMessage,
		KindSendEmail, KindWebSearch, KindNavigate, KindPlayMusic,
		KindGetWeather, KindSetAlarm, KindSetTimer, KindSetReminder,
		KindToggleSetting, KindTakePhoto, KindReadNotifications,
		KindLLMResponse, KindUnknown,
	} {
		if got := k.NeedsContext(); got != contextual[k] {
			t.Errorf("%s.NeedsContext() = %v, want %v", k, got, contextual[k])
		}
	}
}

func TestKindIsValid(t *testing.T) {
	t.Parallel()
	if !KindOpenApp.IsValid() {
		t.Error("open_app should be valid")
	}
	if Kind("dance").IsValid() {
		t.Error("unrecognized kind should be invalid")
	}
}

func TestResponseJSON_OmitsUnpopulatedSlots(t *testing.T) {
	t.Parallel()
	resp := Response{
		Intent:       KindOpenApp,
		Slots:        Slots{AppName: "WhatsApp", AppPackage: "com.whatsapp"},
		Confidence:   0.93,
		TextResponse: "Opening WhatsApp",
		RoutedBy:     RoutedByRule,
		LatencyMS:    4,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	for _, want := range []string{`"intent":"open_app"`, `"app_name":"WhatsApp"`, `"routed_by":"rule"`, `"latency_ms":4`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
	// Slots not extracted must be absent, not empty strings.
	for _, absent := range []string{"contact_name", "phone_number", "setting_value", "timer_seconds"} {
		if strings.Contains(s, absent) {
			t.Errorf("JSON should omit %s: %s", absent, s)
		}
	}
}
