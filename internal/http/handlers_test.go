package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"mediguard/internal/core"
	"mediguard/internal/llm"
	"mediguard/pkg"
)

const verdictReply = `All set. <TRIAGE>{"tier":3,"label":"MANAGE AT HOME","confidence":"high","topSymptoms":["sore throat"],"explanation":"Mild viral symptoms","caveats":"Return if fever rises"}</TRIAGE>`

type stubEvents struct {
	events []core.Event
	err    error
	limit  int
}

func (s *stubEvents) Recent(_ context.Context, limit int) ([]core.Event, error) {
	s.limit = limit
	return s.events, s.err
}

func newTestServer(replies ...string) (*Server, *llm.Scripted) {
	client := llm.NewScripted(replies...)
	triage := core.NewTriageService(client, zerolog.Nop())
	srv := NewServer(core.NewRegistry(), triage, nil, zerolog.Nop())
	srv.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return srv, client
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, srv *Server, body string) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Greeting != core.Greeting {
		t.Errorf("unexpected greeting %q", resp.Greeting)
	}
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer()
	createSession(t, srv, "")

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sessions":1`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestCreateSession_WithProfile(t *testing.T) {
	srv, _ := newTestServer()
	id := createSession(t, srv, `{"profile":{"age":"52","conditions":"diabetes"}}`)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view pkg.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Profile.Age != "52" || view.Profile.Conditions != "diabetes" {
		t.Errorf("profile not stored: %+v", view.Profile)
	}
	if len(view.Transcript) != 1 || view.Transcript[0].Content != core.Greeting {
		t.Errorf("expected greeting-only transcript, got %+v", view.Transcript)
	}
	if view.MessageCap != 50 {
		t.Errorf("expected message cap 50, got %d", view.MessageCap)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv, _ := newTestServer()
	rec := do(t, srv, http.MethodGet, "/api/sessions/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPostMessage_Verdict(t *testing.T) {
	srv, client := newTestServer("How long has it hurt?", verdictReply)
	id := createSession(t, srv, "")

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"my throat hurts"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var first pkg.ChatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &first)
	if first.Reply != "How long has it hurt?" || first.Verdict != nil {
		t.Errorf("unexpected first response %+v", first)
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/verdict", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 before a verdict, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"two days, 3 out of 10"}`)
	var second pkg.ChatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &second)
	if second.Reply != "All set." {
		t.Errorf("expected stripped reply, got %q", second.Reply)
	}
	if second.Verdict == nil || second.Verdict.Tier != pkg.TierSelfCare {
		t.Fatalf("expected tier 3 verdict, got %+v", second.Verdict)
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/verdict", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var v pkg.Verdict
	_ = json.Unmarshal(rec.Body.Bytes(), &v)
	if v.Label != pkg.LabelSelfCare {
		t.Errorf("unexpected verdict %+v", v)
	}
	if n := len(client.Calls()); n != 2 {
		t.Errorf("expected 2 completion calls, got %d", n)
	}
}

func TestPostMessage_Empty(t *testing.T) {
	srv, client := newTestServer()
	id := createSession(t, srv, "")

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"   "}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(client.Calls()) != 0 {
		t.Error("blank message reached the model")
	}
}

func TestPostMessage_RedFlagThenDismiss(t *testing.T) {
	srv, client := newTestServer()
	id := createSession(t, srv, "")

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"I have CHEST PAIN"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp pkg.ChatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Emergency == nil || resp.Emergency.CallNumber != core.EmergencyNumber {
		t.Fatalf("expected emergency directive, got %+v", resp)
	}
	if len(client.Calls()) != 0 {
		t.Error("red-flag message reached the model")
	}

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"it went away"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while emergency is pending, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/emergency/dismiss", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"it went away"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after dismiss, got %d", rec.Code)
	}

	var view pkg.SessionView
	_ = json.Unmarshal(do(t, srv, http.MethodGet, "/api/sessions/"+id, "").Body.Bytes(), &view)
	for _, m := range view.Transcript {
		if strings.Contains(strings.ToLower(m.Content), "chest pain") {
			t.Error("red-flag message was appended to the transcript")
		}
	}
}

func TestPostMessage_CompletionFailure(t *testing.T) {
	srv, client := newTestServer()
	client.FailWith(errors.New("upstream 503"))
	id := createSession(t, srv, "")

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"headache"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp pkg.ChatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reply != core.FallbackReply {
		t.Errorf("expected fallback reply, got %q", resp.Reply)
	}
}

func TestPutProfile(t *testing.T) {
	srv, client := newTestServer()
	id := createSession(t, srv, "")

	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/profile", `{"age":"70","sex":"male","medications":"warfarin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"dizzy"}`)

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !strings.Contains(calls[0][0].Content, "warfarin") {
		t.Error("system prompt does not carry the updated profile")
	}
}

func TestReport(t *testing.T) {
	srv, _ := newTestServer(verdictReply)
	id := createSession(t, srv, "")
	do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"sore throat"}`)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MANAGE AT HOME") {
		t.Errorf("text report missing verdict: %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/report?format=pdf", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/report?format=docx", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestEndSession(t *testing.T) {
	srv, _ := newTestServer()
	id := createSession(t, srv, "")

	if rec := do(t, srv, http.MethodDelete, "/api/sessions/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after end, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second end, got %d", rec.Code)
	}
}

func TestRules(t *testing.T) {
	srv, _ := newTestServer()
	rec := do(t, srv, http.MethodGet, "/api/rules", "")
	var rules []core.RedFlagRule
	if err := json.Unmarshal(rec.Body.Bytes(), &rules); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rules) != len(core.DefaultRedFlags) || rules[0].Name != "chest_pain" {
		t.Errorf("unexpected rules %+v", rules)
	}
}

func TestEvents(t *testing.T) {
	srv, _ := newTestServer()
	if rec := do(t, srv, http.MethodGet, "/api/events", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without an event source, got %d", rec.Code)
	}

	stub := &stubEvents{events: []core.Event{{ID: "e1", Kind: core.EventRedFlag, Rule: "stroke"}}}
	srv.Events = stub

	rec := do(t, srv, http.MethodGet, "/api/events?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.limit != 5 {
		t.Errorf("expected limit 5, got %d", stub.limit)
	}
	if !strings.Contains(rec.Body.String(), `"rule":"stroke"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	if rec := do(t, srv, http.MethodGet, "/api/events?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	stub.err = errors.New("connection refused")
	if rec := do(t, srv, http.MethodGet, "/api/events", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHTTPError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrBusy, http.StatusConflict},
		{core.ErrEmergencyActive, http.StatusConflict},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		he, ok := httpError(tc.err).(*echo.HTTPError)
		if !ok || he.Code != tc.code {
			t.Errorf("httpError(%v) = %v, want %d", tc.err, he, tc.code)
		}
	}
}
