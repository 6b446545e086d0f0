// Package report renders the alert list as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"voice-alerts-go/internal/types"
)

const sheet = "Alerts"

var header = []interface{}{
	"ID", "Created", "Title", "Department", "Urgency", "Language",
	"Resolved", "Resolved At", "Resolved By", "False Alarm", "Latest",
	"Transcript", "Audio URL",
}

// WriteAlerts writes one row per alert, in the given order, to w.
func WriteAlerts(w io.Writer, alerts []types.Alert) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range alerts {
		row := alertRow(a)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func alertRow(a types.Alert) []interface{} {
	var language, audioURL, resolvedAt, resolvedBy string
	if a.Recording != nil {
		language = a.Recording.Language
		audioURL = a.Recording.AudioURL
	}
	if a.ResolvedAt != nil {
		resolvedAt = a.ResolvedAt.Format(time.RFC3339)
	}
	if a.ResolvedBy != nil {
		resolvedBy = *a.ResolvedBy
	}
	return []interface{}{
		a.ID, a.CreatedAt.Format(time.RFC3339), a.Title, a.Department, a.Urgency, language,
		yesNo(a.IsResolved), resolvedAt, resolvedBy, yesNo(a.IsFalseAlarm), yesNo(a.IsLatest),
		a.Transcript, audioURL,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
