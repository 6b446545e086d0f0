package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"voice-alerts-go/internal/aggregator"
	"voice-alerts-go/internal/db"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/notify"
	"voice-alerts-go/internal/pipeline"
	"voice-alerts-go/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// storeAnalyzer writes a fixed classification straight to the store.
type storeAnalyzer struct {
	store *db.Memory
	calls int
	subs  []pipeline.Submission
	err   error
}

func (a *storeAnalyzer) Run(ctx context.Context, sub pipeline.Submission) (pipeline.Result, error) {
	a.calls++
	a.subs = append(a.subs, sub)
	if a.err != nil {
		return pipeline.Result{State: pipeline.StateFailed}, a.err
	}
	rec, alert, err := a.store.SaveAlert(ctx,
		types.NewRecording{Filename: sub.Filename, Timestamp: time.Now(), Language: "English", Transcript: "fire"},
		types.NewAlert{Title: "Fire Safety Alert", Transcript: "fire", Department: types.DeptFireSafety, Urgency: types.UrgencyHigh},
	)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Result{
		Recording: rec, Alert: alert, State: pipeline.StateDone,
		Classification: types.ClassificationResult{Title: alert.Title, Department: alert.Department, Urgency: alert.Urgency},
	}, nil
}

type testServer struct {
	router   *gin.Engine
	store    *db.Memory
	analyzer *storeAnalyzer
}

func newTestServer() *testServer {
	store := db.NewMemory()
	an := &storeAnalyzer{store: store}
	h := NewHandler(an, store, nil, logger.Discard())
	return &testServer{
		router:   NewRouter(h, nil, logger.Discard(), RouterOptions{}),
		store:    store,
		analyzer: an,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, withAudio bool, provider string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if withAudio {
		fw, err := mw.CreateFormFile("audio", "recording.wav")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("RIFF....WAVE"))
	}
	if provider != "" {
		mw.WriteField("provider", provider)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/voice/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *testServer) seed(t *testing.T) types.Alert {
	t.Helper()
	res, err := s.analyzer.Run(context.Background(), pipeline.Submission{Filename: "seed.wav"})
	if err != nil {
		t.Fatal(err)
	}
	return res.Alert
}

func patchRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/alerts/update", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalyze(t *testing.T) {
	s := newTestServer()

	w := s.do(multipartRequest(t, true, "gemini"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Success        bool                       `json:"success"`
		Recording      types.VoiceRecording       `json:"recording"`
		Alert          types.Alert                `json:"alert"`
		Classification types.ClassificationResult `json:"classification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !resp.Alert.IsLatest || resp.Alert.RecordingID != resp.Recording.ID {
		t.Fatalf("response = %+v", resp)
	}
	if got := s.analyzer.subs[0]; got.Provider != "gemini" || got.Filename != "recording.wav" || len(got.Audio) == 0 {
		t.Fatalf("submission = %+v", got)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestAnalyzeWithoutAudioCreatesNothing(t *testing.T) {
	s := newTestServer()

	w := s.do(multipartRequest(t, false, "gpt"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if s.analyzer.calls != 0 {
		t.Fatal("pipeline ran without audio")
	}
	alerts, _ := s.store.ListAlerts(context.Background())
	if len(alerts) != 0 {
		t.Fatalf("store has %d alerts", len(alerts))
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown provider", &types.ValidationError{Field: "provider", Msg: "unknown provider"}, http.StatusBadRequest},
		{"transcription", &types.TranscriptionError{Err: errors.New("secret upstream detail")}, http.StatusInternalServerError},
		{"classification", &types.ClassificationError{Provider: "gpt", Err: errors.New("secret upstream detail")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()
			s.analyzer.err = tc.err

			w := s.do(multipartRequest(t, true, ""))
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if strings.Contains(w.Body.String(), "secret upstream detail") {
				t.Fatalf("internal detail leaked: %s", w.Body)
			}
		})
	}
}

func TestListAlerts(t *testing.T) {
	s := newTestServer()
	first := s.seed(t)
	time.Sleep(2 * time.Millisecond)
	second := s.seed(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/alerts/list", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var alerts []types.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(alerts) != 2 || alerts[0].ID != second.ID || alerts[1].ID != first.ID {
		t.Fatalf("alerts = %+v", alerts)
	}
	if alerts[0].Recording == nil {
		t.Fatal("recording not embedded")
	}
}

func TestUpdateAlert(t *testing.T) {
	s := newTestServer()
	a := s.seed(t)

	w := s.do(patchRequest(`{"id": ` + jsonInt(a.ID) + `, "isResolved": true, "department": "fire safety team"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var got types.Alert
	json.Unmarshal(w.Body.Bytes(), &got)
	if !got.IsResolved || got.ResolvedAt == nil || got.ResolvedBy == nil || got.Department != types.DeptFireSafety {
		t.Fatalf("resolved alert = %+v", got)
	}

	w = s.do(patchRequest(`{"id": "` + jsonInt(a.ID) + `", "isResolved": false}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	got = types.Alert{}
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.IsResolved || got.ResolvedAt != nil || got.ResolvedBy != nil {
		t.Fatalf("reopened alert = %+v", got)
	}
}

type downSink struct{}

func (downSink) Notify(context.Context, notify.Event) error { return errors.New("broker down") }

func TestUpdateAlertLogsNotificationFailureOnce(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := &logger.Logger{Entry: logrus.NewEntry(base)}
	fanout := notify.NewFanout(log)
	fanout.Add("kafka", downSink{})

	store := db.NewMemory()
	an := &storeAnalyzer{store: store}
	router := NewRouter(NewHandler(an, store, fanout, log), nil, logger.Discard(), RouterOptions{})
	res, err := an.Run(context.Background(), pipeline.Submission{Filename: "seed.wav"})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, patchRequest(`{"id": `+jsonInt(res.Alert.ID)+`, "isFalseAlarm": true}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("got %d warnings for one failing sink, want 1", warnings)
	}
}

func TestUpdateAlertErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing id", `{"isResolved": true}`, http.StatusBadRequest},
		{"null id", `{"id": null}`, http.StatusBadRequest},
		{"bad id", `{"id": "abc"}`, http.StatusBadRequest},
		{"malformed", `{"id": 1`, http.StatusBadRequest},
		{"unknown department", `{"id": 1, "department": "Pizza Team"}`, http.StatusBadRequest},
		{"unknown alert", `{"id": 999, "isResolved": true}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()
			s.seed(t)
			if w := s.do(patchRequest(tc.body)); w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body)
			}
		})
	}
}

func TestStatsAndExport(t *testing.T) {
	s := newTestServer()
	s.seed(t)
	s.seed(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/alerts/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var st aggregator.Stats
	json.Unmarshal(w.Body.Bytes(), &st)
	if st.Total != 2 || st.OpenHigh != 2 || st.New != 2 {
		t.Fatalf("stats = %+v", st)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/alerts/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxMIME {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Fatal("export is not a zip container")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer()
	if w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`12`, 12, true},
		{`"12"`, 12, true},
		{`" 7 "`, 7, true},
		{``, 0, false},
		{`null`, 0, false},
		{`0`, 0, false},
		{`-3`, 0, false},
		{`1.5`, 0, false},
		{`"x"`, 0, false},
	}
	for _, tc := range cases {
		got, err := parseID(json.RawMessage(tc.raw))
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseID(%s) = %d, %v", tc.raw, got, err)
		}
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
