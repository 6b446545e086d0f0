// Package db holds the alert store: recordings, alerts and the single
// "latest" flag.
package db

import (
	"context"
	"sort"

	"voice-alerts-go/internal/types"
)

// Store is implemented by the PostgreSQL and in-memory backends.
type Store interface {
	// SaveAlert creates the recording, creates the alert referencing it with
	// isLatest=true and demotes every other alert, all in one transaction.
	SaveAlert(ctx context.Context, rec types.NewRecording, alert types.NewAlert) (types.VoiceRecording, types.Alert, error)
	ListAlerts(ctx context.Context) ([]types.Alert, error)
	UpdateAlert(ctx context.Context, id int64, patch types.AlertPatch) (types.Alert, error)
	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)

// sortAlerts orders latest first, then newest first.
func sortAlerts(alerts []types.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.IsLatest != b.IsLatest {
			return a.IsLatest
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
