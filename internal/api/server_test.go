package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/pagecraft/internal/config"
	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/fallback"
	"github.com/dgallion1/pagecraft/internal/results"
)

type echoProvider struct{}

func (echoProvider) Name() string  { return "echo" }
func (echoProvider) Model() string { return "echo-1" }
func (echoProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return "<p>generated</p>", nil
}

func newTestServer(t *testing.T, mutate func(*config.Config), collab *fallback.Collaborator) *Server {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.DiscardHandler)
	var gf engine.GenerativeFallback
	if collab != nil {
		gf = collab
	}
	eng := engine.New(gf, log)
	return NewServer(eng, results.NewStore(time.Hour), collab, log, cfg)
}

func postJSON(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func postMultipart(t *testing.T, s *Server, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transform", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" }, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestTransform_JSONTableAndDownload(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := postJSON(t, s, `{"input":"Hello - World - Test","instruction":"convert to table","options":{"prettify":false}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["kind"] != "html" || body["filename"] != "output.html" || body["source"] != "rules" {
		t.Errorf("unexpected response %v", body)
	}
	want := engine.ConvertToTable("Hello - World - Test")
	if body["output"] != want {
		t.Errorf("expected output %q, got %q", want, body["output"])
	}

	id, _ := body["result_id"].(string)
	if body["download_url"] != "/api/results/"+id+"/download" {
		t.Errorf("unexpected download url %v", body["download_url"])
	}

	dl := httptest.NewRecorder()
	s.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, "/api/results/"+id+"/download", nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", dl.Code)
	}
	if cd := dl.Header().Get("Content-Disposition"); cd != `attachment; filename="output.html"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if ct := dl.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if dl.Body.String() != want {
		t.Errorf("expected download body to match output, got %q", dl.Body.String())
	}
}

func TestTransform_DefaultsPrettify(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := postJSON(t, s, `{"input":"a<b","instruction":"wrap in <p> tags"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out := decode(t, rec)["output"]; out != "<p>\n a&lt;b\n</p>\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTransform_BadRequests(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxInstructionChars = 10 }, nil)
	tests := []struct {
		name string
		body string
	}{
		{"empty input", `{"input":"","instruction":"table"}`},
		{"empty instruction", `{"input":"x","instruction":""}`},
		{"instruction too long", `{"input":"x","instruction":"convert this text to a table"}`},
		{"malformed json", `{"input":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if decode(t, rec)["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestTransform_MultipartMarkdownUpload(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := postMultipart(t, s, map[string]string{
		"instruction": "add navigation",
		"prettify":    "false",
		"input":       "ignored when a file is sent",
	}, "lesson.md", []byte("# Intro\n\nHi\n\n## Next\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	out, _ := body["output"].(string)
	if !strings.HasPrefix(out, "<nav") || !strings.Contains(out, `href="#intro"`) {
		t.Errorf("expected navigation over markdown headings, got %q", out)
	}

	id, _ := body["result_id"].(string)
	get := httptest.NewRecorder()
	s.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
	stored := decode(t, get)
	if stored["input_format"] != "markdown" || stored["input_name"] != "lesson.md" {
		t.Errorf("unexpected stored record %v", stored)
	}
}

func TestTransform_MultipartErrors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 64 }, nil)

	rec := postMultipart(t, s, map[string]string{"instruction": "x"}, "photo.png", []byte("\x89PNG\r\n\x1a\n"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported file: expected 400, got %d", rec.Code)
	}

	rec = postMultipart(t, s, map[string]string{"instruction": "x"}, "big.txt", bytes.Repeat([]byte("a"), 100))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize file: expected 413, got %d", rec.Code)
	}

	rec = postMultipart(t, s, map[string]string{"instruction": "x", "input": "y", "prettify": "sometimes"}, "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad option: expected 400, got %d", rec.Code)
	}
}

func TestResults_NotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	for _, path := range []string{"/api/results/nope", "/api/results/nope/download", "/api/results/nope/preview"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestPreview_Sandboxed(t *testing.T) {
	s := newTestServer(t, nil, nil)
	body := decode(t, postJSON(t, s, `{"input":"plain","instruction":"nothing"}`))
	id, _ := body["result_id"].(string)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/"+id+"/preview", nil))
	if rec.Header().Get("Content-Security-Policy") != "sandbox" {
		t.Error("expected sandbox CSP on preview")
	}
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("unexpected Content-Type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "plain" {
		t.Errorf("expected %q, got %q", "plain", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" }, nil)
	body := `{"input":"x","instruction":"y"}`

	for _, header := range []string{"", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid key, got %d", rec.Code)
	}
}

func TestFallbackStats(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/fallback", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a provider, got %d", rec.Code)
	}

	collab := fallback.NewCollaborator(echoProvider{}, nil, time.Second, nil)
	s = newTestServer(t, nil, collab)
	tr := postJSON(t, s, `{"input":"x","instruction":"convert to table","options":{"prettify":false}}`)
	if out := decode(t, tr); out["source"] != "generative" || out["output"] != "<p>generated</p>" {
		t.Errorf("expected generative result, got %v", out)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/fallback", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["provider"] != "echo" || body["model"] != "echo-1" {
		t.Errorf("unexpected stats body %v", body)
	}
	stats, _ := body["stats"].(map[string]any)
	if stats["count"] != float64(1) {
		t.Errorf("expected one recorded call, got %v", stats["count"])
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"lesson.html", "lesson.html"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"", "unnamed"},
		{"a..b.md", "a_b.md"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
