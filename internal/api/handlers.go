package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"voice-alerts-go/internal/aggregator"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/notify"
	"voice-alerts-go/internal/pipeline"
	"voice-alerts-go/internal/report"
	"voice-alerts-go/internal/types"
)

const (
	loggerKey     = "logger"
	maxAudioBytes = 25 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Analyzer interface {
	Run(ctx context.Context, sub pipeline.Submission) (pipeline.Result, error)
}

type AlertStore interface {
	ListAlerts(ctx context.Context) ([]types.Alert, error)
	UpdateAlert(ctx context.Context, id int64, patch types.AlertPatch) (types.Alert, error)
}

type Handler struct {
	analyzer Analyzer
	store    AlertStore
	notifier notify.Notifier
	log      *logger.Logger
}

func NewHandler(analyzer Analyzer, store AlertStore, notifier notify.Notifier, log *logger.Logger) *Handler {
	return &Handler{analyzer: analyzer, store: store, notifier: notifier, log: log.Component("api")}
}

func (h *Handler) Analyze(c *gin.Context) {
	log := h.requestLog(c).WithField("handler", "analyze")

	fh, err := c.FormFile("audio")
	if err != nil {
		log.WithError(err).Warn("missing audio field")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	if fh.Size > maxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Audio file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		log.WithError(err).Error("failed to open upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable audio file"})
		return
	}
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	f.Close()
	if err != nil {
		log.WithError(err).Error("failed to read upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable audio file"})
		return
	}

	res, err := h.analyzer.Run(c.Request.Context(), pipeline.Submission{
		Audio:       audio,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Provider:    c.PostForm("provider"),
	})
	if err != nil {
		h.writeError(c, log, err, "Failed to analyze voice recording")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"recording":      res.Recording,
		"alert":          res.Alert,
		"classification": res.Classification,
	})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.store.ListAlerts(c.Request.Context())
	if err != nil {
		h.writeError(c, h.requestLog(c), err, "Failed to fetch alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type updateRequest struct {
	ID json.RawMessage `json:"id"`
	types.AlertPatch
}

func (h *Handler) UpdateAlert(c *gin.Context) {
	log := h.requestLog(c).WithField("handler", "update")

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("invalid update body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	id, err := parseID(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Alert ID is required"})
		return
	}
	patch := req.AlertPatch
	if err := patch.Normalize(); err != nil {
		h.writeError(c, log, err, "Failed to update alert")
		return
	}

	alert, err := h.store.UpdateAlert(c.Request.Context(), id, patch)
	if err != nil {
		h.writeError(c, log.WithField("alert_id", id), err, "Failed to update alert")
		return
	}
	log.WithField("alert_id", id).Info("alert updated")

	if h.notifier != nil {
		_ = h.notifier.Notify(c.Request.Context(), notify.Event{Type: notify.EventAlertUpdated, Alert: alert})
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) Stats(c *gin.Context) {
	alerts, err := h.store.ListAlerts(c.Request.Context())
	if err != nil {
		h.writeError(c, h.requestLog(c), err, "Failed to fetch alerts")
		return
	}
	c.JSON(http.StatusOK, aggregator.Summarize(alerts))
}

func (h *Handler) Export(c *gin.Context) {
	log := h.requestLog(c).WithField("handler", "export")
	alerts, err := h.store.ListAlerts(c.Request.Context())
	if err != nil {
		h.writeError(c, log, err, "Failed to fetch alerts")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteAlerts(&buf, alerts); err != nil {
		h.writeError(c, log, err, "Failed to export alerts")
		return
	}
	name := fmt.Sprintf("alerts-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// writeError maps the error taxonomy onto HTTP statuses. Internal details are
// logged, never returned.
func (h *Handler) writeError(c *gin.Context, log *logrus.Entry, err error, msg string) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		log.WithError(err).Warn("rejected request")
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, types.ErrAlertNotFound):
		log.WithError(err).Warn("alert not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
	default:
		log.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func (h *Handler) requestLog(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return h.log.Entry
}

// parseID accepts the id as a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, errors.New("missing id")
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}
