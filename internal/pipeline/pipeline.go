// Package pipeline turns one submitted recording into a stored alert:
// save audio, transcribe, classify, persist, then notify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"voice-alerts-go/internal/classifier"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/notify"
	"voice-alerts-go/internal/storage"
	"voice-alerts-go/internal/transcription"
	"voice-alerts-go/internal/types"
)

type State string

const (
	StateReceived     State = "received"
	StateTranscribing State = "transcribing"
	StateClassifying  State = "classifying"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// AlertSaver persists a recording and its alert atomically.
type AlertSaver interface {
	SaveAlert(ctx context.Context, rec types.NewRecording, alert types.NewAlert) (types.VoiceRecording, types.Alert, error)
}

type Submission struct {
	Audio       []byte
	Filename    string
	ContentType string
	Provider    string
}

type Result struct {
	Recording      types.VoiceRecording       `json:"recording"`
	Alert          types.Alert                `json:"alert"`
	Classification types.ClassificationResult `json:"classification"`
	State          State                      `json:"-"`
}

type Pipeline struct {
	audio       storage.AudioStore
	transcriber transcription.Transcriber
	classifiers *classifier.Registry
	store       AlertSaver
	notifier    notify.Notifier
	log         *logger.Logger
	now         func() time.Time
}

func New(
	audio storage.AudioStore,
	transcriber transcription.Transcriber,
	classifiers *classifier.Registry,
	store AlertSaver,
	notifier notify.Notifier,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		audio:       audio,
		transcriber: transcriber,
		classifiers: classifiers,
		store:       store,
		notifier:    notifier,
		log:         log.Component("pipeline"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run processes one submission. Each external service is called at most
// once; on failure no recording or alert rows exist.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (Result, error) {
	if len(sub.Audio) == 0 {
		return Result{State: StateFailed}, &types.ValidationError{Field: "audio", Msg: "no audio file provided"}
	}
	provider, clf, err := p.classifiers.Resolve(sub.Provider)
	if err != nil {
		return Result{State: StateFailed}, err
	}

	received := p.now()
	name := storage.RecordingName(received, sub.Filename)
	log := p.log.WithFields(logrus.Fields{"recording": name, "provider": provider})
	step(log, StateReceived).Info("saving audio")

	audioURL, err := p.audio.Save(ctx, name, sub.Audio, sub.ContentType)
	if err != nil {
		return p.fail(log, StateReceived, &types.StoreError{Op: "save audio", Err: err})
	}

	step(log, StateTranscribing).Info("transcribing audio")
	tr, err := p.transcriber.Transcribe(ctx, sub.Audio, name)
	if err != nil {
		return p.fail(log, StateTranscribing, err)
	}
	language := transcription.LanguageName(tr.LanguageCode)

	step(log, StateClassifying).WithField("language", language).Info("classifying transcript")
	cls, err := clf.Classify(ctx, tr.Text, language)
	if err != nil {
		return p.fail(log, StateClassifying, err)
	}
	if cls.IsUnclear() {
		language = types.Unclear
	}

	step(log, StatePersisting).WithFields(logrus.Fields{
		"department": cls.Department,
		"urgency":    cls.Urgency,
	}).Info("persisting alert")
	rec, alert, err := p.store.SaveAlert(ctx,
		types.NewRecording{
			Filename:   name,
			Timestamp:  received,
			Language:   language,
			Transcript: tr.Text,
			AudioURL:   audioURL,
		},
		types.NewAlert{
			Title:            cls.Title,
			Transcript:       tr.Text,
			Department:       cls.Department,
			Urgency:          cls.Urgency,
			IsFalseAlarm:     cls.IsFalseAlarm,
			TranslationLogic: cls.TranslationLogic,
		},
	)
	if err != nil {
		return p.fail(log, StatePersisting, err)
	}

	step(log, StateDone).WithField("alert_id", alert.ID).Info("alert created")
	if p.notifier != nil {
		// each sink logs its own failure
		_ = p.notifier.Notify(ctx, notify.Event{Type: notify.EventAlertCreated, Alert: alert})
	}

	return Result{Recording: rec, Alert: alert, Classification: cls, State: StateDone}, nil
}

func (p *Pipeline) fail(log *logrus.Entry, at State, err error) (Result, error) {
	log.WithField("step", at).WithField("state", StateFailed).WithError(err).Error("pipeline failed")
	return Result{State: StateFailed}, fmt.Errorf("%s: %w", at, err)
}

func step(log *logrus.Entry, s State) *logrus.Entry {
	return log.WithField("step", s).WithField("state", s)
}
