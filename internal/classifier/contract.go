package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"voice-alerts-go/internal/titles"
	"voice-alerts-go/internal/types"
)

type wireResult struct {
	Title            *string                 `json:"title"`
	Department       *string                 `json:"department"`
	Urgency          *string                 `json:"urgency"`
	IsFalseAlarm     *bool                   `json:"isFalseAlarm"`
	Summary          *string                 `json:"summary"`
	TranslationLogic *types.TranslationLogic `json:"translationLogic"`
	// older prompts used this key
	LegacyLogic *types.TranslationLogic `json:"AITranslation_Logic"`
}

// Decode parses model output into the classification contract. Missing
// required fields and routing values outside the known sets are errors.
func Decode(output, transcript string) (types.ClassificationResult, error) {
	raw := extractJSON(output)
	if raw == "" {
		return types.ClassificationResult{}, fmt.Errorf("no JSON found in model output: %q", truncate(output, 200))
	}
	var w wireResult
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return types.ClassificationResult{}, fmt.Errorf("decode model output: %w", err)
	}

	missing := []string{}
	if w.Title == nil {
		missing = append(missing, "title")
	}
	if w.Department == nil {
		missing = append(missing, "department")
	}
	if w.Urgency == nil {
		missing = append(missing, "urgency")
	}
	if w.IsFalseAlarm == nil {
		missing = append(missing, "isFalseAlarm")
	}
	if w.Summary == nil {
		missing = append(missing, "summary")
	}
	if len(missing) > 0 {
		return types.ClassificationResult{}, fmt.Errorf("model output missing required fields %v", missing)
	}

	dept, ok := types.CanonicalDepartment(*w.Department)
	if !ok {
		return types.ClassificationResult{}, fmt.Errorf("unknown department %q", *w.Department)
	}
	urgency, ok := types.CanonicalUrgency(*w.Urgency)
	if !ok {
		return types.ClassificationResult{}, fmt.Errorf("unknown urgency %q", *w.Urgency)
	}

	res := types.ClassificationResult{
		Title:            strings.TrimSpace(*w.Title),
		Department:       dept,
		Urgency:          urgency,
		IsFalseAlarm:     *w.IsFalseAlarm,
		Summary:          strings.TrimSpace(*w.Summary),
		TranslationLogic: w.TranslationLogic,
	}
	if res.TranslationLogic == nil {
		res.TranslationLogic = w.LegacyLogic
	}
	if res.Title == "" {
		res.Title = titles.Generate(transcript, dept)
	}
	return res, nil
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// A markdown fence around the payload is dropped; fences inside string
// values are left alone.
func extractJSON(s string) string {
	s = trimFence(s)
	if s == "" {
		return ""
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

func trimFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
