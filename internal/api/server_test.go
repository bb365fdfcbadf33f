package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-coach/internal/auth"
	"github.com/fmuoria/interview-coach/internal/ingestion"
	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/scoring"
	"github.com/fmuoria/interview-coach/internal/storage"
)

// wordScorer scores "good" answers 2, "ok" answers 1 and anything else 0.
// The answer "boom" fails.
type wordScorer struct{}

func (wordScorer) Score(ctx context.Context, answer string) (int, error) {
	answer = strings.ToLower(answer)
	switch {
	case strings.Contains(answer, "boom"):
		return 0, errors.New("model unavailable")
	case strings.Contains(answer, "good"):
		return 2, nil
	case strings.Contains(answer, "ok"):
		return 1, nil
	}
	return 0, nil
}

type testEnv struct {
	handler http.Handler
	db      *storage.DB
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	src, err := ingestion.NewSource([]string{"Tell me about yourself.", "Why this role?"})
	if err != nil {
		t.Fatal(err)
	}
	threshold := 2
	mgr, err := interview.NewManager(src, wordScorer{}, interview.NewMemoryStore(), interview.Options{
		Threshold: &threshold,
		Labels:    scoring.DefaultLabels,
	})
	if err != nil {
		t.Fatal(err)
	}

	db, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if opts.Results == nil {
		opts.Results = db
	}
	if opts.Auth == nil {
		opts.Auth = auth.NewService(db, nil)
	}

	srv := NewServer(mgr, wordScorer{}, scoring.DefaultLabels, opts)
	return &testEnv{handler: srv.Router(), db: db}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)

	var m map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
			t.Fatalf("%s %s: bad JSON %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, m
}

func (e *testEnv) start(t *testing.T, body string) string {
	t.Helper()
	w, m := e.do(t, http.MethodPost, "/start-interview", body)
	if w.Code != http.StatusOK {
		t.Fatalf("start-interview = %d %v", w.Code, m)
	}
	if m["question"] != "Tell me about yourself." {
		t.Errorf("first question = %v", m["question"])
	}
	id, _ := m["session_id"].(string)
	if id == "" {
		t.Fatal("missing session_id")
	}
	return id
}

func submitBody(id, answer string) string {
	b, _ := json.Marshal(map[string]string{"session_id": id, "answer": answer})
	return string(b)
}

func TestInterviewFlow(t *testing.T) {
	tests := []struct {
		name        string
		answers     [2]string
		wantLabel   string
		wantFinal   float64
		wantVerdict string
	}{
		{name: "Good then poor is selected", answers: [2]string{"a good answer", "no idea"}, wantLabel: "Good", wantFinal: 2, wantVerdict: "Selected"},
		{name: "Poor then ok needs improvement", answers: [2]string{"no idea", "it was ok"}, wantLabel: "Poor", wantFinal: 1, wantVerdict: "Needs Improvement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{})
			id := env.start(t, "")

			w, m := env.do(t, http.MethodPost, "/submit-answer", submitBody(id, tt.answers[0]))
			if w.Code != http.StatusOK {
				t.Fatalf("first submit = %d %v", w.Code, m)
			}
			if m["finished"] != false || m["next_question"] != "Why this role?" || m["label"] != tt.wantLabel {
				t.Errorf("unexpected progress: %v", m)
			}

			w, m = env.do(t, http.MethodPost, "/submit-answer", submitBody(id, tt.answers[1]))
			if w.Code != http.StatusOK {
				t.Fatalf("second submit = %d %v", w.Code, m)
			}
			if m["finished"] != true || m["final_score"] != tt.wantFinal || m["verdict"] != tt.wantVerdict {
				t.Errorf("unexpected final: %v", m)
			}

			// finished sessions reject further answers
			w, m = env.do(t, http.MethodPost, "/submit-answer", submitBody(id, "more"))
			if w.Code != http.StatusConflict || m["error"] == nil {
				t.Errorf("submit after finish = %d %v", w.Code, m)
			}
		})
	}
}

func TestSubmitAnswer_Errors(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t, `{"user_id": "42"}`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "Unknown session", body: submitBody("abc", "hello"), want: http.StatusNotFound},
		{name: "Empty answer", body: submitBody(id, "  "), want: http.StatusBadRequest},
		{name: "Missing session id", body: `{"answer": "hi"}`, want: http.StatusBadRequest},
		{name: "Malformed JSON", body: `{"session_id":`, want: http.StatusBadRequest},
		{name: "Scorer failure", body: submitBody(id, "boom"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, m := env.do(t, http.MethodPost, "/submit-answer", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%v)", w.Code, tt.want, m)
			}
			if _, ok := m["error"].(string); !ok {
				t.Errorf("expected error body, got %v", m)
			}
		})
	}

	// rejected submissions left the session at its first question
	w, m := env.do(t, http.MethodGet, "/sessions/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET session = %d", w.Code)
	}
	if m["current_index"] != float64(0) || m["status"] != "in_progress" || m["user_id"] != "42" {
		t.Errorf("unexpected session: %v", m)
	}

	if w, _ := env.do(t, http.MethodGet, "/sessions/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET unknown session = %d, want 404", w.Code)
	}
}

func TestFinishedInterviewIsRecorded(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t, `{"user_id": "7"}`)
	env.do(t, http.MethodPost, "/submit-answer", submitBody(id, "good"))
	env.do(t, http.MethodPost, "/submit-answer", submitBody(id, "ok"))

	w, m := env.do(t, http.MethodGet, "/api/results?user_id=7", "")
	if w.Code != http.StatusOK || m["count"] != float64(1) {
		t.Fatalf("results = %d %v", w.Code, m)
	}
	rec := m["interviews"].([]any)[0].(map[string]any)
	if rec["session_id"] != id || rec["final_score"] != float64(3) || rec["max_score"] != float64(4) {
		t.Errorf("unexpected record: %v", rec)
	}
	if answers := rec["answers"].([]any); len(answers) != 2 {
		t.Errorf("expected 2 answers, got %d", len(answers))
	}

	w, _ = env.do(t, http.MethodGet, "/api/results/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "interview_results.xlsx") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Interviews")
	if len(rows) != 2 || rows[1][0] != id {
		t.Errorf("unexpected interviews sheet: %v", rows)
	}
}

func TestPredictAndChatbot(t *testing.T) {
	env := newTestEnv(t, Options{})

	w, m := env.do(t, http.MethodPost, "/api/predict", `{"answer": "A GOOD answer, see https://example.com"}`)
	if w.Code != http.StatusOK || m["prediction"] != "Good" || m["score"] != float64(2) {
		t.Errorf("predict = %d %v", w.Code, m)
	}
	if m["cleaned"] != "good answer see" {
		t.Errorf("cleaned = %q", m["cleaned"])
	}

	if w, _ := env.do(t, http.MethodPost, "/api/predict", `{"answer": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("predict(empty) = %d, want 400", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/predict", `{"answer": "boom"}`); w.Code != http.StatusBadGateway {
		t.Errorf("predict(failure) = %d, want 502", w.Code)
	}

	w, m = env.do(t, http.MethodPost, "/api/chatbot", `{"message": "hello"}`)
	if w.Code != http.StatusOK || m["reply"] != "I received your message: hello" {
		t.Errorf("chatbot = %d %v", w.Code, m)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/chatbot", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("chatbot(empty) = %d, want 400", w.Code)
	}
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, Options{})

	w, m := env.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || m["message"] != "Backend is running successfully" {
		t.Errorf("root = %d %v", w.Code, m)
	}
	w, m = env.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || m["status"] != "healthy" {
		t.Errorf("health = %d %v", w.Code, m)
	}
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name      string
		method    string
		path      string
		want      int
		wantAllow string
	}{
		{name: "Unknown path", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
		{name: "Unknown nested path", method: http.MethodPost, path: "/api/unknown/thing", want: http.StatusNotFound},
		{name: "Wrong method", method: http.MethodGet, path: "/start-interview", want: http.StatusMethodNotAllowed, wantAllow: "POST"},
		{name: "Wrong method on root", method: http.MethodPost, path: "/", want: http.StatusMethodNotAllowed, wantAllow: "GET"},
		{name: "Wrong method on alias", method: http.MethodGet, path: "/api/predict/", want: http.StatusMethodNotAllowed, wantAllow: "POST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, m := env.do(t, tt.method, tt.path, "")
			if w.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
			}
			if msg, _ := m["error"].(string); msg == "" {
				t.Errorf("expected a JSON error body, got %q", w.Body.String())
			}
			if got := w.Header().Get("Allow"); got != tt.wantAllow {
				t.Errorf("Allow = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestAccounts(t *testing.T) {
	env := newTestEnv(t, Options{})

	signup := `{"email": "ada@example.com", "password": "correct horse", "name": "Ada"}`
	w, m := env.do(t, http.MethodPost, "/api/auth/signup", signup)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup = %d %v", w.Code, m)
	}
	user := m["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Errorf("unexpected user: %v", user)
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "Duplicate signup", path: "/api/auth/signup", body: signup, want: http.StatusConflict},
		{name: "Short password", path: "/api/auth/signup", body: `{"email": "b@example.com", "password": "x"}`, want: http.StatusBadRequest},
		{name: "Login", path: "/api/auth/login", body: `{"email": "ada@example.com", "password": "correct horse"}`, want: http.StatusOK},
		{name: "Wrong password", path: "/api/auth/login", body: `{"email": "ada@example.com", "password": "nope nope"}`, want: http.StatusUnauthorized},
		{name: "Google not configured", path: "/api/auth/google", body: `{"id_token": "t"}`, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w, m := env.do(t, http.MethodPost, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%v)", w.Code, tt.want, m)
			}
		})
	}

	if w, _ := env.do(t, http.MethodGet, "/api/auth/google/login", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("google login without config = %d, want 503", w.Code)
	}
}

func TestFrontendAliases(t *testing.T) {
	env := newTestEnv(t, Options{})

	signup := `{"email": "grace@example.com", "password": "correct horse", "name": "Grace"}`
	if w, m := env.do(t, http.MethodPost, "/api/auth/signup", signup); w.Code != http.StatusCreated {
		t.Fatalf("signup = %d %v", w.Code, m)
	}

	w, m := env.do(t, http.MethodPost, "/login", `{"email": "grace@example.com", "password": "correct horse"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /login = %d %v", w.Code, m)
	}
	if user, _ := m["user"].(map[string]any); user["email"] != "grace@example.com" {
		t.Errorf("POST /login user = %v", m["user"])
	}
	if w, _ := env.do(t, http.MethodPost, "/login", `{"email": "grace@example.com", "password": "wrong one"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("POST /login with wrong password = %d, want 401", w.Code)
	}

	w, m = env.do(t, http.MethodPost, "/api/predict/", `{"answer": "a good answer"}`)
	if w.Code != http.StatusOK || m["prediction"] != "Good" {
		t.Errorf("POST /api/predict/ = %d %v", w.Code, m)
	}
	w, m = env.do(t, http.MethodPost, "/api/chatbot/", `{"message": "hi"}`)
	if w.Code != http.StatusOK || m["reply"] != "I received your message: hi" {
		t.Errorf("POST /api/chatbot/ = %d %v", w.Code, m)
	}

	if w, _ := env.do(t, http.MethodPost, "/google-login", `{"credential": "t"}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /google-login without config = %d, want 503", w.Code)
	}
}

func TestGoogleLoginCredentialField(t *testing.T) {
	g, err := auth.NewGoogleAuth("client-id", "secret", "http://localhost:5000/api/auth/google/callback")
	if err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(filepath.Join(t.TempDir(), "google.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	env := newTestEnv(t, Options{Auth: auth.NewService(db, g)})

	// a token that reaches verification is rejected as a credential error,
	// a missing one as bad input
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "Credential field", path: "/google-login", body: `{"credential": "not-a-jwt"}`, want: http.StatusUnauthorized},
		{name: "ID token field", path: "/api/auth/google", body: `{"id_token": "not-a-jwt"}`, want: http.StatusUnauthorized},
		{name: "No token", path: "/google-login", body: `{}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w, m := env.do(t, http.MethodPost, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%v)", w.Code, tt.want, m)
			}
		})
	}
}

func TestGoogleRedirect(t *testing.T) {
	g, err := auth.NewGoogleAuth("client-id", "secret", "http://localhost:5000/api/auth/google/callback")
	if err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(filepath.Join(t.TempDir(), "google.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	env := newTestEnv(t, Options{Auth: auth.NewService(db, g)})

	w, _ := env.do(t, http.MethodGet, "/api/auth/google/login", "")
	if w.Code != http.StatusFound {
		t.Fatalf("redirect = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "client_id=client-id") {
		t.Errorf("Location = %q", loc)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != stateCookie || !strings.Contains(loc, "state="+cookies[0].Value) {
		t.Fatalf("state cookie missing or not in redirect: %v", cookies)
	}

	// callback with a forged state is rejected before any exchange
	r := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=x", nil)
	r.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("callback with forged state = %d, want 400", rec.Code)
	}
}

func TestMiddleware(t *testing.T) {
	env := newTestEnv(t, Options{
		Limiter:        NewClientLimiter(0.001, 2),
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	r := httptest.NewRequest(http.MethodOptions, "/submit-answer", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d %v", w.Code, w.Header())
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin should not be allowed")
	}

	// preflight is answered before limiting, so the budget of 2 is
	// spent by the /health call above and this one
	env.do(t, http.MethodGet, "/health", "")
	if w, m := env.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request = %d %v, want 429", w.Code, m)
	}
}

func TestClientLimiter(t *testing.T) {
	if NewClientLimiter(0, 5) != nil {
		t.Error("zero rate should disable limiting")
	}

	cl := NewClientLimiter(0.001, 1)
	if !cl.Allow("a") || cl.Allow("a") {
		t.Error("burst of 1 should allow exactly one request")
	}
	if !cl.Allow("b") {
		t.Error("clients are limited independently")
	}

	if n := cl.Sweep(timeFarFuture()); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if !cl.Allow("a") {
		t.Error("swept client should start with a fresh budget")
	}
}

func timeFarFuture() time.Time { return time.Now().Add(time.Hour) }
