package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/dumpmerge/internal/artifact"
	"github.com/JonMunkholm/dumpmerge/internal/config"
	"github.com/JonMunkholm/dumpmerge/internal/core"
	_ "github.com/JonMunkholm/dumpmerge/internal/core/formats"
)

const contactsCSV = "name,email,phone\n" +
	"J Smith,jsmith@example.com,555-1212\n" +
	"J Smith,jsmith@example.com,555-9999\n" +
	",,42\n"

func newTestServer(t *testing.T, store artifact.Store, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	svc := core.NewService(core.ServiceConfig{}, core.NewRunLimiter(2, time.Second))
	return NewServer(cfg, svc, store)
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/normalize", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status string             `json:"status"`
		Runs   core.LimiterStatus `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Runs.MaxConcurrent != 2 || body.Runs.Available != 2 {
		t.Errorf("health = %+v", body)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestListFormats(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var infos []FormatInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	keys := map[string]bool{}
	for _, f := range infos {
		keys[f.Key] = true
	}
	for _, want := range []string{"csv", "txt", "sqlite", "xlsx", "postgres"} {
		if !keys[want] {
			t.Errorf("format %q not listed", want)
		}
	}
}

func TestNormalize_ReturnsMapping(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, uploadRequest(t, "contacts.csv", contactsCSV, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	want := `{
  "jsmith@example.com": [
    "J Smith",
    "555-1212",
    "555-9999"
  ]
}`
	if got := rec.Body.String(); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("missing X-Run-ID header")
	}
	if got := rec.Header().Get("X-Entries"); got != "1" {
		t.Errorf("X-Entries = %q, want 1", got)
	}
}

func TestNormalize_Store(t *testing.T) {
	store := artifact.NewMemoryStore()
	s := newTestServer(t, store, nil)

	rec := serve(s, uploadRequest(t, "contacts.csv", contactsCSV, map[string]string{"store": "true"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp StoredResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	name := resp.RunID + "/contactsout.json"
	if resp.Location != "memory://"+name {
		t.Errorf("location = %q, want memory://%s", resp.Location, name)
	}
	if resp.Entries != 1 || resp.Rows != 3 || resp.Skipped != 1 {
		t.Errorf("response = %+v", resp)
	}

	data, err := store.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("stored output missing: %v", err)
	}
	if !strings.Contains(string(data), `"jsmith@example.com"`) {
		t.Errorf("stored output = %s", data)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d", rec.Code)
	}
	var run core.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Location != resp.Location || run.Format != "csv" || run.Source != "contacts.csv" {
		t.Errorf("run = %+v", run)
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		store      artifact.Store
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported file type",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "notes.pdf", "x", nil) },
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "FILE002",
		},
		{
			name:       "no file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "", "", map[string]string{"store": "false"}) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader("email\na@x.com\n"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "HTTP400",
		},
		{
			name: "store without storage",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "contacts.csv", contactsCSV, map[string]string{"store": "true"})
			},
			wantStatus: http.StatusNotImplemented,
			wantCode:   "HTTP501",
		},
		{
			name: "unknown encoding",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "contacts.csv", contactsCSV, map[string]string{"encoding": "klingon"})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.store, nil)
			rec := serve(s, tt.req(t))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t, nil, nil)
	for i := 0; i < 3; i++ {
		if rec := serve(s, uploadRequest(t, "contacts.csv", contactsCSV, nil)); rec.Code != http.StatusOK {
			t.Fatalf("normalize %d status = %d", i, rec.Code)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?limit=2", 2},
		{"?limit=bogus", 3},
	}
	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var runs []core.RunSummary
			if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(runs) != tt.want {
				t.Errorf("runs = %d, want %d", len(runs), tt.want)
			}
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, nil, func(cfg *config.Config) {
		cfg.Security.RequireAPIKey = true
		cfg.Security.APIKeys = []string{"k1", "k2"}
	})

	tests := []struct {
		name       string
		path       string
		key        string
		wantStatus int
	}{
		{"health is open", "/healthz", "", http.StatusOK},
		{"missing key", "/api/formats", "", http.StatusUnauthorized},
		{"wrong key", "/api/formats", "nope", http.StatusForbidden},
		{"second key accepted", "/api/formats", "k2", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			if rec := serve(s, req); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{errNoFile, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errString("read source: bad row"), http.StatusUnprocessableEntity},
		{errString("something odd"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestRespondError_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodPost, "/api/normalize", nil), core.ErrTooManyRuns, 0)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if got := decodeError(t, rec).Code; got != "RUN001" {
		t.Errorf("code = %q, want RUN001", got)
	}
}
