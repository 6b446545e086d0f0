package types

import (
	"strings"
	"time"
)

const Unclear = "Unclear"

// Departments an alert can be routed to.
const (
	DeptEmergencyMedical = "Emergency Medical Team"
	DeptFireSafety       = "Fire Safety Team"
	DeptSecurity         = "Security Team"
	DeptFacilities       = "Facilities Team"
	DeptAdministration   = "Administration Team"
	DeptHousekeeping     = "Housekeeping Team"
	DeptITSupport        = "IT Support Team"
	DeptMaintenance      = "Maintenance Team"
)

// Urgency levels.
const (
	UrgencyHigh    = "High Priority"
	UrgencyMedium  = "Medium Priority"
	UrgencyGeneral = "General Task"
)

var Departments = []string{
	DeptEmergencyMedical,
	DeptFireSafety,
	DeptSecurity,
	DeptFacilities,
	DeptAdministration,
	DeptHousekeeping,
	DeptITSupport,
	DeptMaintenance,
}

var Urgencies = []string{UrgencyHigh, UrgencyMedium, UrgencyGeneral}

// CanonicalDepartment maps v case-insensitively onto the department set or Unclear.
func CanonicalDepartment(v string) (string, bool) {
	return canonical(v, Departments)
}

// CanonicalUrgency maps v case-insensitively onto the urgency set or Unclear.
func CanonicalUrgency(v string) (string, bool) {
	return canonical(v, Urgencies)
}

func canonical(v string, set []string) (string, bool) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, Unclear) {
		return Unclear, true
	}
	for _, s := range set {
		if strings.EqualFold(v, s) {
			return s, true
		}
	}
	return "", false
}

type Transcription struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type TranslationLogic struct {
	TranslatedReport   string   `json:"translatedReport"`
	FollowUpQuestions  []string `json:"followUpQuestions"`
	RoutingExplanation string   `json:"routingExplanation"`
}

type ClassificationResult struct {
	Title            string            `json:"title"`
	Department       string            `json:"department"`
	Urgency          string            `json:"urgency"`
	IsFalseAlarm     bool              `json:"isFalseAlarm"`
	Summary          string            `json:"summary"`
	TranslationLogic *TranslationLogic `json:"translationLogic,omitempty"`
	Provider         string            `json:"provider,omitempty"`
}

// IsUnclear reports whether either routing field carries the Unclear sentinel.
func (c ClassificationResult) IsUnclear() bool {
	return c.Department == Unclear || c.Urgency == Unclear
}

type VoiceRecording struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Timestamp  time.Time `json:"timestamp"`
	Language   string    `json:"language"`
	Transcript string    `json:"transcript"`
	AudioURL   string    `json:"audioUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Alert struct {
	ID               int64             `json:"id"`
	RecordingID      int64             `json:"recordingId"`
	Title            string            `json:"title"`
	Transcript       string            `json:"transcript"`
	Department       string            `json:"department"`
	Urgency          string            `json:"urgency"`
	IsResolved       bool              `json:"isResolved"`
	ResolvedAt       *time.Time        `json:"resolvedAt"`
	ResolvedBy       *string           `json:"resolvedBy"`
	IsFalseAlarm     bool              `json:"isFalseAlarm"`
	IsLatest         bool              `json:"isLatest"`
	TranslationLogic *TranslationLogic `json:"translationLogic"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Recording        *VoiceRecording   `json:"recording,omitempty"`
}

// NewRecording holds the fields of a recording before it has an identity.
type NewRecording struct {
	Filename   string
	Timestamp  time.Time
	Language   string
	Transcript string
	AudioURL   string
}

// NewAlert holds the fields of an alert before insertion. The recording
// reference is filled in by the store inside the same transaction.
type NewAlert struct {
	Title            string
	Transcript       string
	Department       string
	Urgency          string
	IsFalseAlarm     bool
	TranslationLogic *TranslationLogic
}
