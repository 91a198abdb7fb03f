package endpoints

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ShipCreekGroup/email-parser/internal/api"
	"github.com/ShipCreekGroup/email-parser/internal/config"
	"github.com/ShipCreekGroup/email-parser/internal/emails"
	"github.com/ShipCreekGroup/email-parser/internal/providers"
	"github.com/ShipCreekGroup/email-parser/internal/sessions"
	"github.com/ShipCreekGroup/email-parser/internal/svcctx"
)

type sseEvent struct {
	name string
	data string
}

// parseSSE splits an event stream body into events, joining multi-line
// data payloads back together.
func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()

	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		var ev sseEvent
		var dataLines []string
		for _, line := range strings.Split(block, "\n") {
			if rest, ok := strings.CutPrefix(line, "event: "); ok {
				ev.name = rest
			} else if rest, ok := strings.CutPrefix(line, "data: "); ok {
				dataLines = append(dataLines, rest)
			}
		}
		ev.data = strings.Join(dataLines, "\n")
		events = append(events, ev)
	}
	return events
}

func newTestHandler(t *testing.T, client providers.StreamingClient) (http.Handler, *sessions.Store) {
	t.Helper()

	cfgMgr, err := config.NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	registry := providers.NewRegistry()
	// Registered under the configured default provider name so requests
	// without an explicit provider hit the test client.
	registry.Register(cfgMgr.Get().Defaults.LLMProvider, client)

	store := sessions.NewStore()
	services := &svcctx.Services{
		Registry:  registry,
		ConfigMgr: cfgMgr,
		Sessions:  store,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	mux := http.NewServeMux()
	apiReg := api.NewRegistry()
	for _, ep := range All() {
		apiReg.Register(ep)
	}
	apiReg.RegisterRoutes(mux)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})
	return handler, store
}

func doParse(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/parse", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestParseStreamsSnapshotsThenDone(t *testing.T) {
	handler, store := newTestHandler(t, providers.NewMockClient())

	rec := doParse(t, handler, `{"text":"From: alice@x.com\nHi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) < 2 {
		t.Fatalf("got %d events, want at least snapshot + done", len(events))
	}

	last := events[len(events)-1]
	if last.name != "done" {
		t.Fatalf("last event = %q, want done", last.name)
	}
	var done struct {
		SessionID string `json:"session_id"`
		Count     int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(last.data), &done); err != nil {
		t.Fatalf("done payload: %v", err)
	}
	if done.Count != 1 {
		t.Errorf("done count = %d, want 1", done.Count)
	}
	if done.SessionID == "" {
		t.Fatal("done event missing session_id")
	}

	for _, ev := range events[:len(events)-1] {
		if ev.name != "snapshot" {
			t.Errorf("unexpected event %q before done", ev.name)
		}
		var records []emails.Record
		if err := json.Unmarshal([]byte(ev.data), &records); err != nil {
			t.Errorf("snapshot payload not a record array: %v", err)
		}
	}

	result, ok := store.Get(done.SessionID)
	if !ok {
		t.Fatal("session not stored after done")
	}
	if len(result.Emails) != 1 || result.Emails[0].Sender != "alice@x.com" {
		t.Errorf("stored emails = %+v", result.Emails)
	}
}

func TestParseMissingCredentialFailsBeforeStreaming(t *testing.T) {
	client := providers.NewMockClient()
	client.NoCredential = true
	handler, _ := newTestHandler(t, client)

	rec := doParse(t, handler, `{"text":"some email"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if client.Streams() != 0 {
		t.Errorf("stream opened despite missing credential")
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body: %v", err)
	}
	if resp.Kind != "authentication" {
		t.Errorf("error kind = %q, want authentication", resp.Kind)
	}
}

func TestParseUnknownProvider(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())

	rec := doParse(t, handler, `{"text":"hi","provider":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseInvalidBody(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())

	rec := doParse(t, handler, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseMidStreamFailureEmitsErrorEvent(t *testing.T) {
	client := providers.NewMockClient()
	client.Chunks = []string{`[{"sender":"a@x.com"}`, `,{"sender":"b@x.com"}]`}
	client.FailAtChunk = 2
	handler, store := newTestHandler(t, client)

	rec := doParse(t, handler, `{"text":"two emails"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (stream already open)", rec.Code)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.name != "error" {
		t.Fatalf("last event = %q, want error", last.name)
	}
	var payload struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(last.data), &payload); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	if payload.Kind != "upstream" {
		t.Errorf("error kind = %q, want upstream", payload.Kind)
	}
	if store.Len() != 0 {
		t.Errorf("failed extraction stored a session")
	}
}

func TestParseSchemaViolationEmitsErrorEvent(t *testing.T) {
	client := providers.NewMockClient()
	client.Chunks = []string{`[{"subject":`, `42}]`}
	handler, _ := newTestHandler(t, client)

	rec := doParse(t, handler, `{"text":"oops"}`)
	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.name != "error" {
		t.Fatalf("last event = %q, want error", last.name)
	}
	if !strings.Contains(last.data, "schema_violation") {
		t.Errorf("error payload = %q, want schema_violation kind", last.data)
	}
}

func parseSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doParse(t, handler, `{"text":"email text"}`)
	events := parseSSE(t, rec.Body.String())
	last := events[len(events)-1]
	if last.name != "done" {
		t.Fatalf("setup parse failed: last event %q", last.name)
	}
	var done struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(last.data), &done); err != nil {
		t.Fatalf("done payload: %v", err)
	}
	return done.SessionID
}

func TestExportFormats(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())
	sessionID := parseSession(t, handler)

	cases := []struct {
		format      string
		contentType string
		check       func(t *testing.T, body []byte)
	}{
		{"json", "application/json", func(t *testing.T, body []byte) {
			var records []emails.Record
			if err := json.Unmarshal(body, &records); err != nil {
				t.Fatalf("invalid JSON export: %v", err)
			}
			if len(records) != 1 || records[0].Sender != "alice@x.com" {
				t.Errorf("records = %+v", records)
			}
		}},
		{"csv", "text/csv; charset=utf-8", func(t *testing.T, body []byte) {
			lines := strings.Split(strings.TrimSpace(string(body)), "\n")
			if len(lines) != 2 {
				t.Fatalf("CSV lines = %d, want header + 1 row", len(lines))
			}
			if lines[0] != "date,sender,subject,preview,body" {
				t.Errorf("CSV header = %q", lines[0])
			}
		}},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(t *testing.T, body []byte) {
			if len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
				t.Error("XLSX export is not a zip archive")
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/sessions/"+sessionID+"/export/"+tc.format, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tc.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tc.contentType)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "emails."+tc.format) {
				t.Errorf("Content-Disposition = %q", cd)
			}
			tc.check(t, rec.Body.Bytes())
		})
	}
}

func TestExportUnknownSession(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())

	req := httptest.NewRequest("GET", "/api/sessions/deadbeef/export/json", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())
	sessionID := parseSession(t, handler)

	req := httptest.NewRequest("GET", "/api/sessions/"+sessionID+"/export/pdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestStaticServesIndex(t *testing.T) {
	handler, _ := newTestHandler(t, providers.NewMockClient())

	for _, path := range []string{"/", "/some/ui/route"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Email Parser") {
			t.Errorf("GET %s did not serve the UI", path)
		}
	}
}
