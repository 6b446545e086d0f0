package db

import (
	"context"
	"sync"
	"time"

	"voice-alerts-go/internal/types"
)

// Memory is a process-local store used when no DSN is configured and in
// tests. A single mutex gives the same atomicity as the SQL transaction.
type Memory struct {
	mu          sync.Mutex
	recordings  map[int64]types.VoiceRecording
	alerts      []types.Alert
	nextRecID   int64
	nextAlertID int64
	now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		recordings: map[int64]types.VoiceRecording{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) SaveAlert(_ context.Context, nr types.NewRecording, na types.NewAlert) (types.VoiceRecording, types.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.createRecording(nr)
	alert := m.createAlert(rec.ID, na)
	m.demoteAllExcept(alert.ID)

	return rec, m.withRecording(alert), nil
}

func (m *Memory) createRecording(nr types.NewRecording) types.VoiceRecording {
	m.nextRecID++
	now := m.now()
	rec := types.VoiceRecording{
		ID:         m.nextRecID,
		Filename:   nr.Filename,
		Timestamp:  nr.Timestamp,
		Language:   nr.Language,
		Transcript: nr.Transcript,
		AudioURL:   nr.AudioURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.recordings[rec.ID] = rec
	return rec
}

func (m *Memory) createAlert(recordingID int64, na types.NewAlert) types.Alert {
	m.nextAlertID++
	now := m.now()
	a := types.Alert{
		ID:               m.nextAlertID,
		RecordingID:      recordingID,
		Title:            na.Title,
		Transcript:       na.Transcript,
		Department:       na.Department,
		Urgency:          na.Urgency,
		IsFalseAlarm:     na.IsFalseAlarm,
		IsLatest:         true,
		TranslationLogic: cloneLogic(na.TranslationLogic),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.alerts = append(m.alerts, a)
	return a
}

func (m *Memory) demoteAllExcept(id int64) {
	now := m.now()
	for i := range m.alerts {
		if m.alerts[i].ID != id && m.alerts[i].IsLatest {
			m.alerts[i].IsLatest = false
			m.alerts[i].UpdatedAt = now
		}
	}
}

func (m *Memory) ListAlerts(_ context.Context) ([]types.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Alert, len(m.alerts))
	for i, a := range m.alerts {
		out[i] = m.withRecording(a)
	}
	sortAlerts(out)
	return out, nil
}

func (m *Memory) UpdateAlert(_ context.Context, id int64, patch types.AlertPatch) (types.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			patch.Apply(&m.alerts[i], m.now())
			return m.withRecording(m.alerts[i]), nil
		}
	}
	return types.Alert{}, types.ErrAlertNotFound
}

func (m *Memory) Close() {}

// withRecording returns a copy of a that shares no memory with the store.
func (m *Memory) withRecording(a types.Alert) types.Alert {
	if rec, ok := m.recordings[a.RecordingID]; ok {
		a.Recording = &rec
	}
	a.TranslationLogic = cloneLogic(a.TranslationLogic)
	if a.ResolvedAt != nil {
		at := *a.ResolvedAt
		a.ResolvedAt = &at
	}
	if a.ResolvedBy != nil {
		by := *a.ResolvedBy
		a.ResolvedBy = &by
	}
	return a
}

func cloneLogic(l *types.TranslationLogic) *types.TranslationLogic {
	if l == nil {
		return nil
	}
	c := *l
	c.FollowUpQuestions = append([]string(nil), l.FollowUpQuestions...)
	return &c
}
