package logger

import (
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(Options{Level: tt.level})
			if got := l.Logger.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := New(Options{Environment: "production"}).Logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("expected JSON formatter outside local")
	}
	if _, ok := New(Options{}).Logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Error("expected text formatter for local")
	}
}

func TestNewWithFile(t *testing.T) {
	l := New(Options{File: filepath.Join(t.TempDir(), "service.log"), MaxSizeMB: 1})
	l.Info("written to file and stdout")
}

func TestWithRequestKeepsRequestID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/alerts/list", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	e := Discard().WithRequest(r)
	if e.Data["req_id"] != "abc-123" {
		t.Errorf("req_id = %v", e.Data["req_id"])
	}
	if e.Data["path"] != "/api/alerts/list" {
		t.Errorf("path = %v", e.Data["path"])
	}

	r2 := httptest.NewRequest("GET", "/", nil)
	if id, _ := Discard().WithRequest(r2).Data["req_id"].(string); id == "" {
		t.Error("expected generated req_id")
	}
}

func TestWithError(t *testing.T) {
	l := Discard()
	if l.WithError(nil) != l.Entry {
		t.Error("nil error should return base entry")
	}
	if got := l.WithError(errors.New("boom")).Data["error"]; got != "boom" {
		t.Errorf("error field = %v", got)
	}
	if got := l.Component("pipeline").Data["component"]; got != "pipeline" {
		t.Errorf("component field = %v", got)
	}
}
