package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voice-alerts-go/internal/types"
)

// latestLockKey serializes writers of the is_latest flag.
const latestLockKey int64 = 0x766f696365

var schema = []string{
	`CREATE TABLE IF NOT EXISTS voice_recordings (
		id          BIGSERIAL PRIMARY KEY,
		filename    TEXT        NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		language    TEXT        NOT NULL,
		transcript  TEXT        NOT NULL,
		audio_url   TEXT        NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id                BIGSERIAL PRIMARY KEY,
		recording_id      BIGINT      NOT NULL UNIQUE REFERENCES voice_recordings(id),
		title             TEXT        NOT NULL,
		transcript        TEXT        NOT NULL,
		department        TEXT        NOT NULL,
		urgency           TEXT        NOT NULL,
		is_resolved       BOOLEAN     NOT NULL DEFAULT false,
		resolved_at       TIMESTAMPTZ,
		resolved_by       TEXT,
		is_false_alarm    BOOLEAN     NOT NULL DEFAULT false,
		is_latest         BOOLEAN     NOT NULL DEFAULT false,
		translation_logic JSONB,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT alerts_resolution_consistent CHECK (
			(is_resolved AND resolved_at IS NOT NULL AND resolved_by IS NOT NULL)
			OR (NOT is_resolved AND resolved_at IS NULL AND resolved_by IS NULL)
		)
	)`,
	`CREATE INDEX IF NOT EXISTS alerts_latest_created_idx ON alerts (is_latest DESC, created_at DESC)`,
}

const alertColumns = `
	a.id, a.recording_id, a.title, a.transcript, a.department, a.urgency,
	a.is_resolved, a.resolved_at, a.resolved_by, a.is_false_alarm, a.is_latest,
	a.translation_logic, a.created_at, a.updated_at,
	r.id, r.filename, r.timestamp, r.language, r.transcript, r.audio_url, r.created_at, r.updated_at`

// DB is the PostgreSQL store.
type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the tables if they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() {
	d.Pool.Close()
}

func (d *DB) SaveAlert(ctx context.Context, nr types.NewRecording, na types.NewAlert) (types.VoiceRecording, types.Alert, error) {
	tx, err := d.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, latestLockKey); err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "lock", Err: err}
	}

	rec, err := createRecording(ctx, tx, nr)
	if err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "create recording", Err: err}
	}
	alert, err := createAlert(ctx, tx, rec.ID, na)
	if err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "create alert", Err: err}
	}
	if err := demoteAllExcept(ctx, tx, alert.ID); err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "demote alerts", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return types.VoiceRecording{}, types.Alert{}, &types.StoreError{Op: "commit", Err: err}
	}

	alert.Recording = &rec
	return rec, alert, nil
}

func createRecording(ctx context.Context, tx pgx.Tx, nr types.NewRecording) (types.VoiceRecording, error) {
	var rec types.VoiceRecording
	err := tx.QueryRow(ctx, `
	INSERT INTO voice_recordings (filename, timestamp, language, transcript, audio_url)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, filename, timestamp, language, transcript, audio_url, created_at, updated_at`,
		nr.Filename, nr.Timestamp, nr.Language, nr.Transcript, nr.AudioURL,
	).Scan(&rec.ID, &rec.Filename, &rec.Timestamp, &rec.Language, &rec.Transcript, &rec.AudioURL, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return types.VoiceRecording{}, fmt.Errorf("failed to insert recording: %w", err)
	}
	return rec, nil
}

func createAlert(ctx context.Context, tx pgx.Tx, recordingID int64, na types.NewAlert) (types.Alert, error) {
	logic, err := encodeLogic(na.TranslationLogic)
	if err != nil {
		return types.Alert{}, err
	}

	a := types.Alert{
		RecordingID:      recordingID,
		Title:            na.Title,
		Transcript:       na.Transcript,
		Department:       na.Department,
		Urgency:          na.Urgency,
		IsFalseAlarm:     na.IsFalseAlarm,
		IsLatest:         true,
		TranslationLogic: na.TranslationLogic,
	}
	err = tx.QueryRow(ctx, `
	INSERT INTO alerts (recording_id, title, transcript, department, urgency, is_false_alarm, is_latest, translation_logic)
	VALUES ($1, $2, $3, $4, $5, $6, true, $7)
	RETURNING id, created_at, updated_at`,
		recordingID, na.Title, na.Transcript, na.Department, na.Urgency, na.IsFalseAlarm, logic,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return types.Alert{}, fmt.Errorf("failed to insert alert: %w", err)
	}
	return a, nil
}

func demoteAllExcept(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
	UPDATE alerts SET is_latest = false, updated_at = now()
	WHERE id <> $1 AND is_latest`, id)
	if err != nil {
		return fmt.Errorf("failed to demote alerts: %w", err)
	}
	return nil
}

func (d *DB) ListAlerts(ctx context.Context) ([]types.Alert, error) {
	rows, err := d.Pool.Query(ctx, `
	SELECT `+alertColumns+`
	FROM alerts a
	JOIN voice_recordings r ON r.id = a.recording_id
	ORDER BY a.is_latest DESC, a.created_at DESC, a.id DESC`)
	if err != nil {
		return nil, &types.StoreError{Op: "list alerts", Err: err}
	}
	defer rows.Close()

	alerts := []types.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, &types.StoreError{Op: "list alerts", Err: err}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StoreError{Op: "list alerts", Err: err}
	}
	return alerts, nil
}

func (d *DB) UpdateAlert(ctx context.Context, id int64, patch types.AlertPatch) (types.Alert, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return types.Alert{}, &types.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	a, err := scanAlert(tx.QueryRow(ctx, `
	SELECT `+alertColumns+`
	FROM alerts a
	JOIN voice_recordings r ON r.id = a.recording_id
	WHERE a.id = $1
	FOR UPDATE OF a`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Alert{}, types.ErrAlertNotFound
	}
	if err != nil {
		return types.Alert{}, &types.StoreError{Op: "load alert", Err: err}
	}

	patch.Apply(&a, time.Now().UTC())

	_, err = tx.Exec(ctx, `
	UPDATE alerts SET
		department = $2, urgency = $3, is_resolved = $4, resolved_at = $5,
		resolved_by = $6, is_false_alarm = $7, updated_at = $8
	WHERE id = $1`,
		a.ID, a.Department, a.Urgency, a.IsResolved, a.ResolvedAt, a.ResolvedBy, a.IsFalseAlarm, a.UpdatedAt)
	if err != nil {
		return types.Alert{}, &types.StoreError{Op: "update alert", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Alert{}, &types.StoreError{Op: "commit", Err: err}
	}
	return a, nil
}

func scanAlert(row pgx.Row) (types.Alert, error) {
	var (
		a     types.Alert
		rec   types.VoiceRecording
		logic []byte
	)
	err := row.Scan(
		&a.ID, &a.RecordingID, &a.Title, &a.Transcript, &a.Department, &a.Urgency,
		&a.IsResolved, &a.ResolvedAt, &a.ResolvedBy, &a.IsFalseAlarm, &a.IsLatest,
		&logic, &a.CreatedAt, &a.UpdatedAt,
		&rec.ID, &rec.Filename, &rec.Timestamp, &rec.Language, &rec.Transcript, &rec.AudioURL, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return types.Alert{}, err
	}
	if len(logic) > 0 {
		a.TranslationLogic = &types.TranslationLogic{}
		if err := json.Unmarshal(logic, a.TranslationLogic); err != nil {
			return types.Alert{}, fmt.Errorf("failed to decode translation logic: %w", err)
		}
	}
	a.Recording = &rec
	return a, nil
}

func encodeLogic(l *types.TranslationLogic) (any, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation logic: %w", err)
	}
	return string(b), nil
}
