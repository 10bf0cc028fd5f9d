package rules

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// phoneticThreshold is the minimum Jaro-Winkler score required for a
// phonetically-matched app name to be accepted. STT regularly mangles brand
// names ("open what's up"), so exact map lookup gets a phonetic fallback.
const phoneticThreshold = 0.80

// appPackages maps spoken app names to Android package identifiers.
var appPackages = map[string]string{
	"whatsapp":    "com.whatsapp",
	"instagram":   "com.instagram.android",
	"youtube":     "com.google.android.youtube",
	"maps":        "com.google.android.apps.maps",
	"google maps": "com.google.android.apps.maps",
	"spotify":     "com.spotify.music",
	"netflix":     "com.netflix.mediaclient",
	"telegram":    "org.telegram.messenger",
	"twitter":     "com.twitter.android",
	"x":           "com.twitter.android",
	"facebook":    "com.facebook.katana",
	"snapchat":    "com.snapchat.android",
	"gmail":       "com.google.android.gm",
	"camera":      "android.media.action.IMAGE_CAPTURE",
	"calculator":  "com.android.calculator2",
	"settings":    "com.android.settings",
	"chrome":      "com.android.chrome",
	"clock":       "com.android.deskclock",
	"contacts":    "com.android.contacts",
	"phone":       "com.android.dialer",
	"photos":      "com.google.android.apps.photos",
	"play store":  "com.android.vending",
	"files":       "com.google.android.documentsui",
	"tiktok":      "com.zhiliaoapp.musically",
	"linkedin":    "com.linkedin.android",
	"zoom":        "us.zoom.videomeetings",
	"uber":        "com.ubercab",
}

// toggleSettings is the vocabulary of device settings the assistant can
// flip. Ordered longest-phrase first so "do not disturb" is found before a
// shorter accidental substring, and so repeated calls are deterministic.
var toggleSettings = []string{
	"airplane mode",
	"do not disturb",
	"flashlight",
	"bluetooth",
	"dark mode",
	"vibration",
	"rotation",
	"hotspot",
	"silent",
	"torch",
	"wi-fi",
	"wifi",
}

// knownApps returns the app names sorted longest first, so "google maps"
// wins over "maps" on substring matching.
var knownApps = func() []string {
	names := make([]string, 0, len(appPackages))
	for name := range appPackages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// lookupApp resolves a spoken app reference to (name, package). Exact
// substring matching runs first; when that fails, each candidate token is
// compared phonetically against the known app names so misheard transcripts
// still resolve. Returns ("", "") when nothing matches.
func lookupApp(textLower string) (string, string) {
	for _, name := range knownApps {
		if strings.Contains(textLower, name) {
			return name, appPackages[name]
		}
	}
	return phoneticApp(textLower)
}

// phoneticApp matches individual tokens against known app names using Double
// Metaphone candidate filtering ranked by Jaro-Winkler similarity.
func phoneticApp(textLower string) (string, string) {
	var (
		bestName  string
		bestScore float64
	)
	for _, token := range strings.Fields(textLower) {
		tp, ts := matchr.DoubleMetaphone(token)
		for _, name := range knownApps {
			np, ns := matchr.DoubleMetaphone(name)
			if tp != np && tp != ns && (ts == "" || (ts != np && ts != ns)) {
				continue
			}
			if score := matchr.JaroWinkler(token, name, false); score > bestScore {
				bestName, bestScore = name, score
			}
		}
	}
	if bestScore < phoneticThreshold {
		return "", ""
	}
	return bestName, appPackages[bestName]
}

// lookupSetting returns the first known toggle setting mentioned in the text.
func lookupSetting(textLower string) string {
	for _, setting := range toggleSettings {
		if strings.Contains(textLower, setting) {
			return setting
		}
	}
	return ""
}
