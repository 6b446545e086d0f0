package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"voice-alerts-go/internal/titles"
	"voice-alerts-go/internal/types"
)

const ProviderRules = "rules"

type policy struct {
	label      string
	keywords   []string
	department string
	urgency    string
	falseAlarm bool
	title      string
	// escalate raises urgency to High when any of these also appear.
	escalate []string
}

// policies are checked in order. Only an explicit retraction outranks a
// hazard, so "never mind, the smoke was from the kitchen" is not dispatched
// while "the fire is not ok now" still is.
var policies = []policy{
	{
		label:      "False alarm",
		keywords:   []string{"false alarm", "never mind", "nevermind"},
		department: types.DeptAdministration,
		urgency:    types.UrgencyGeneral,
		falseAlarm: true,
		title:      "False Alarm Report",
	},
	{
		label:      "Fire",
		keywords:   []string{"fire", "smoke", "burning", "flames"},
		department: types.DeptFireSafety,
		urgency:    types.UrgencyHigh,
	},
	{
		label:      "Slip or fall",
		keywords:   []string{"slip", "fall", "fell", "fallen", "accident"},
		department: types.DeptEmergencyMedical,
		urgency:    types.UrgencyHigh,
	},
	{
		label:      "Medical",
		keywords:   []string{"medical", "hurt", "injured", "injury", "health", "ambulance", "unconscious", "bleeding", "chest pain", "चिकित्सा", "सिर दर्द", "दर्द"},
		department: types.DeptEmergencyMedical,
		urgency:    types.UrgencyMedium,
		escalate:   []string{"unconscious", "bleeding", "chest", "heart", "breathing", "ambulance", "not responding"},
	},
	{
		label:      "Elevator malfunction",
		keywords:   []string{"elevator", "lift is stuck"},
		department: types.DeptMaintenance,
		urgency:    types.UrgencyHigh,
	},
	{
		label:      "Security",
		keywords:   []string{"security", "suspicious", "intruder", "theft", "break-in", "stolen"},
		department: types.DeptSecurity,
		urgency:    types.UrgencyMedium,
	},
	{
		label:      "Water",
		keywords:   []string{"water", "leak", "plumbing", "flooding", "pipe burst"},
		department: types.DeptFacilities,
		urgency:    types.UrgencyMedium,
	},
	{
		label:      "Power or IT",
		keywords:   []string{"power", "electricity", "outage", "computer", "network", "wifi", "internet", "server down"},
		department: types.DeptITSupport,
		urgency:    types.UrgencyMedium,
	},
	{
		label:      "Climate control",
		keywords:   []string{"hvac", "air conditioning", "temperature", "heating"},
		department: types.DeptFacilities,
		urgency:    types.UrgencyGeneral,
	},
	{
		// all-clear phrases count only when nothing above matched
		label:      "False alarm",
		keywords:   []string{"okay now", "ok now", "all clear"},
		department: types.DeptAdministration,
		urgency:    types.UrgencyGeneral,
		falseAlarm: true,
		title:      "False Alarm Report",
	},
}

var offTopicKeywords = []string{
	"chatgpt", "gpt", "gemini", "is this ai", "are you ai", "are you an ai", "are you a bot",
	"artificial intelligence", "ai model", "what tech", "which model", "what model",
}

// Rules is a deterministic keyword strategy. It needs no network and is the
// reference encoding of the routing policy.
type Rules struct{}

func (Rules) Classify(_ context.Context, transcript, _ string) (types.ClassificationResult, error) {
	text := strings.ToLower(strings.TrimSpace(transcript))

	if text != "" && matchAny(text, offTopicKeywords) != "" {
		res := offTopic
		logic := *offTopic.TranslationLogic
		logic.FollowUpQuestions = append([]string(nil), offTopic.TranslationLogic.FollowUpQuestions...)
		res.TranslationLogic = &logic
		res.Provider = ProviderRules
		return res, nil
	}

	if text != "" {
		for _, p := range policies {
			kw := matchAny(text, p.keywords)
			if kw == "" {
				continue
			}
			urgency := p.urgency
			if matchAny(text, p.escalate) != "" {
				urgency = types.UrgencyHigh
			}
			title := p.title
			if title == "" {
				title = titles.Generate(transcript, p.department)
			}
			return types.ClassificationResult{
				Title:        title,
				Department:   p.department,
				Urgency:      urgency,
				IsFalseAlarm: p.falseAlarm,
				Summary:      fmt.Sprintf("%s reported by voice alert.", p.label),
				TranslationLogic: &types.TranslationLogic{
					TranslatedReport: fmt.Sprintf("Caller reports: %s", strings.TrimSpace(transcript)),
					FollowUpQuestions: []string{
						"What is the exact location?",
						"Is anyone in immediate danger?",
					},
					RoutingExplanation: fmt.Sprintf("Transcript mentions %q; routed to %s as %s.", kw, p.department, urgency),
				},
				Provider: ProviderRules,
			}, nil
		}
	}

	logic := unclearLogic
	logic.FollowUpQuestions = append([]string(nil), unclearLogic.FollowUpQuestions...)
	return types.ClassificationResult{
		Title:            titles.Generate(transcript, types.Unclear),
		Department:       types.Unclear,
		Urgency:          types.Unclear,
		Summary:          "The message could not be interpreted.",
		TranslationLogic: &logic,
		Provider:         ProviderRules,
	}, nil
}

// matchAny returns the first keyword found in text as a whole word. A
// keyword may carry one inflection suffix ("leaking", "slipped"). Keywords
// outside ASCII match as plain substrings since those scripts are not
// segmented here.
func matchAny(text string, keywords []string) string {
	for _, k := range keywords {
		if containsWord(text, k) {
			return k
		}
	}
	return ""
}

var inflections = []string{"ping", "ped", "ing", "ed", "es", "s"}

func containsWord(text, kw string) bool {
	if !isASCII(kw) {
		return strings.Contains(text, kw)
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
			return true
		}
		for _, suf := range inflections {
			if strings.HasPrefix(text[end:], suf) && wordBoundaryAfter(text, end+len(suf)) && wordBoundaryBefore(text, start) {
				return true
			}
		}
		from = start + 1
	}
	return false
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func wordBoundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
