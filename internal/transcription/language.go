package transcription

import "strings"

var languageNames = map[string]string{
	"eng": "English",
	"hin": "Hindi",
	"spa": "Spanish",
	"fra": "French",
	"deu": "German",
	"ita": "Italian",
}

// LanguageName maps a provider language code to a display name. Unknown
// codes pass through unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
