package classifier

import (
	"encoding/json"
	"fmt"

	"voice-alerts-go/internal/types"
)

// offTopic is the fixed answer for callers asking about the system itself.
var offTopic = types.ClassificationResult{
	Title:        "Non-Emergency Tech Inquiry",
	Department:   types.DeptAdministration,
	Urgency:      types.UrgencyGeneral,
	IsFalseAlarm: true,
	Summary:      "User asked about internal technology instead of reporting an emergency.",
	TranslationLogic: &types.TranslationLogic{
		TranslatedReport: "Haha, that is confidential only to the company. Do you have an emergency to report?",
		FollowUpQuestions: []string{
			"Can you describe the emergency you want to report?",
			"Was there an issue you need help with?",
		},
		RoutingExplanation: "The user inquired about internal systems or AI. Marked as non-emergency and routed to admin.",
	},
}

var unclearLogic = types.TranslationLogic{
	TranslatedReport: "Sorry, that doesn't sound right. Could you clarify the alert you're raising?",
	FollowUpQuestions: []string{
		"Can you repeat that in a different way?",
		"Was this an alert or an accidental input?",
	},
	RoutingExplanation: "The message was ambiguous, and needs further clarification before routing.",
}

const promptTemplate = `Analyze this emergency call transcript and classify it into a structured format.
Language: %s
Transcript: %s

If the transcript is about technology, AI models, or implementation details
(e.g., "Are you using ChatGPT?", "Is this AI?", "What tech are you using?"),
respond with exactly this JSON:
%s

Otherwise, return a JSON object with the following structure:
{
  "title": "Auto-generated title based on content",
  "department": "Emergency Medical Team|Fire Safety Team|Security Team|Facilities Team|Administration Team|Housekeeping Team|IT Support Team|Maintenance Team|Unclear",
  "urgency": "High Priority|Medium Priority|General Task|Unclear",
  "isFalseAlarm": false,
  "summary": "Brief summary of the emergency",
  "translationLogic": {
    "translatedReport": "Formal English report of the situation as if reporting to a control center. If unclear, say: '%s'",
    "followUpQuestions": [
      "Ask two questions to clarify the situation, or say: '%s'",
      "%s"
    ],
    "routingExplanation": "Explain why it was routed as such. If unclear, say: '%s'"
  }
}

Classification rules:
- Fire, smoke, burning -> Fire Safety Team, High Priority
- Medical, hurt, injured, health issues -> Emergency Medical Team, High/Medium Priority
- Security, suspicious, intruder -> Security Team, Medium Priority
- Water leak, plumbing, facilities -> Facilities Team, Medium Priority
- Power, electricity, IT issues -> IT Support Team, Medium Priority
- False alarm, never mind, okay now -> Administration Team, General Task, isFalseAlarm: true
- HVAC, temperature, air conditioning -> Facilities Team, General Task
- Elevator issues -> Maintenance Team, High Priority
- Slip, fall, accident -> Emergency Medical Team, High Priority
- If the transcript is unclear, nonsensical, or cannot be interpreted, use "Unclear" for both department and urgency

Respond only with valid JSON.
`

// BuildPrompt renders the instruction shared by every LLM-backed strategy.
func BuildPrompt(transcript, language string) string {
	canned, _ := json.MarshalIndent(offTopic, "", "  ")
	quoted, _ := json.Marshal(transcript)
	return fmt.Sprintf(promptTemplate,
		language,
		string(quoted),
		string(canned),
		unclearLogic.TranslatedReport,
		unclearLogic.FollowUpQuestions[0],
		unclearLogic.FollowUpQuestions[1],
		unclearLogic.RoutingExplanation,
	)
}
