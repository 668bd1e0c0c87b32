package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/bcrypt"

	"github.com/coffersTech/nanosearch/internal/config"
	"github.com/coffersTech/nanosearch/internal/engine"
)

func testConfig() config.Config {
	return config.Config{
		HTTP:  config.HTTPConfig{Listen: ":0", MaxBodyBytes: 1 << 16},
		Query: config.QueryConfig{MaxLength: 256, BatchWorkers: 2, CacheExpiration: time.Minute, CacheCleanup: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, http.Handler) {
	t.Helper()
	qe := engine.NewQueryEngine(engine.Options{
		Capacity:       100,
		DefaultLimit:   10,
		MaxQueryLength: cfg.Query.MaxLength,
	})
	s, err := New(qe, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, s.Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleCompile(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	w := do(h, "POST", "/api/compile", `{"q":"a AND b OR c"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var res CompileResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Expr != "((a AND b) OR c)" {
		t.Errorf("unexpected expr %q", res.Expr)
	}
	if strings.Join(res.RPN, " ") != "a b AND c OR" {
		t.Errorf("unexpected rpn %v", res.RPN)
	}
	if res.AST == nil || res.AST.Type != "OR" || res.AST.Left.Type != "AND" {
		t.Errorf("unexpected ast %+v", res.AST)
	}
}

func TestHandleCompileSyntaxError(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	tests := []struct {
		body   string
		msg    string
		lexeme string
	}{
		{`{"q":"a b"}`, "'b' not expected", "b"},
		{`{"q":"(a AND b"}`, ") was expected", "("},
		{`{"q":"a:\"x\"y"}`, "Unexpected symbol: y", ""},
		{`{"q":"` + strings.Repeat("a", 300) + `"}`, "", ""},
	}
	for _, tt := range tests {
		w := do(h, "POST", "/api/compile", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", tt.body, w.Code)
			continue
		}
		var res CompileResult
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		if res.Error == nil {
			t.Errorf("%s: missing error", tt.body)
			continue
		}
		if tt.msg != "" && res.Error.Error != tt.msg {
			t.Errorf("%s: got message %q, want %q", tt.body, res.Error.Error, tt.msg)
		}
		if res.Error.Lexeme != tt.lexeme {
			t.Errorf("%s: got lexeme %q, want %q", tt.body, res.Error.Lexeme, tt.lexeme)
		}
	}
}

func TestHandleCompileBatch(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	w := do(h, "POST", "/api/compile/batch", `{"queries":["a","a b","NOT c","x XOR y"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var res struct {
		Results []CompileResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(res.Results))
	}
	for i, want := range []string{"a", "a b", "NOT c", "x XOR y"} {
		if res.Results[i].Query != want {
			t.Errorf("result %d is for %q, want %q", i, res.Results[i].Query, want)
		}
	}
	if res.Results[1].Error == nil || res.Results[0].Error != nil {
		t.Errorf("unexpected errors: %+v", res.Results)
	}
}

func TestHandleField(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	w := do(h, "POST", "/api/field", `{"clause":"price:[10,20]"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var res map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["field"] != "price" || res["start"] != "10" || res["end"] != "20" || res["is_range"] != true {
		t.Errorf("unexpected decomposition %v", res)
	}

	w = do(h, "POST", "/api/field", `{"clause":"price:[1,2"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Expected symbol: ']'") {
		t.Errorf("Expected 400 with bracket error, got %d: %s", w.Code, w.Body.String())
	}

	if w := do(h, "GET", "/api/field", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
	if w := do(h, "POST", "/api/field", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad JSON, got %d", w.Code)
	}
}

func TestIngestAndSearch(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	body := `[
		{"timestamp": 1, "level": "error", "service": "order", "message": "payment failed", "attributes": {"region": "eu", "retries": 3}},
		{"timestamp": 2, "level": "info", "service": "order", "msg": "payment ok"}
	]`
	w := do(h, "POST", "/api/ingest", body)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(h, "GET", "/api/search?q=level:error+AND+retries:3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res engine.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Hits) != 1 || res.Hits[0].Attributes["region"] != "eu" {
		t.Errorf("unexpected hits %+v", res.Hits)
	}

	w = do(h, "GET", "/api/search?q=payment&limit=1", "")
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Hits) != 1 || res.Hits[0].Message != "payment ok" {
		t.Errorf("unexpected hits %+v", res.Hits)
	}

	w = do(h, "GET", "/api/search?q=a+b", "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"lexeme":"b"`) {
		t.Errorf("Expected 400 naming b, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIngestZstd(t *testing.T) {
	_, h := newTestServer(t, testConfig())

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	payload := enc.EncodeAll([]byte(`{"message":"compressed"}`), nil)
	enc.Close()

	req := httptest.NewRequest("POST", "/api/ingest", strings.NewReader(string(payload)))
	req.Header.Set("Content-Encoding", "zstd")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(h, "GET", "/api/search?q=compressed", "")
	if !strings.Contains(w.Body.String(), `"compressed"`) {
		t.Errorf("document not found: %s", w.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.MaxBodyBytes = 16
	_, h := newTestServer(t, cfg)

	w := do(h, "POST", "/api/compile", `{"q":"a AND b AND c AND d"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}

func TestHistogramAndStats(t *testing.T) {
	_, h := newTestServer(t, testConfig())
	do(h, "POST", "/api/ingest", `[{"timestamp": 1000000000, "message":"x"}, {"timestamp": 1500000000, "message":"x"}, {"timestamp": 2500000000, "message":"y"}]`)

	w := do(h, "GET", "/api/histogram?q=x&start=0&end=3000&interval=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var points []engine.HistogramPoint
	if err := json.Unmarshal(w.Body.Bytes(), &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Time != 1000000000 || points[0].Count != 2 {
		t.Errorf("unexpected histogram %+v", points)
	}

	if w := do(h, "GET", "/api/histogram?interval=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = do(h, "GET", "/api/stats", "")
	var stats engine.SystemStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocs != 3 {
		t.Errorf("expected 3 docs, got %d", stats.TotalDocs)
	}
}

func TestHandleContext(t *testing.T) {
	_, h := newTestServer(t, testConfig())
	do(h, "POST", "/api/ingest", `[{"timestamp": 10, "service":"a"}, {"timestamp": 20, "service":"a"}, {"timestamp": 30, "service":"a"}]`)

	w := do(h, "GET", "/api/context?ts=20&q=service:a&limit=1", "")
	var res engine.ContextResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Anchor == nil || res.Anchor.Timestamp != 20 || len(res.Pre) != 1 || len(res.Post) != 1 {
		t.Errorf("unexpected context %+v", res)
	}

	if w := do(h, "GET", "/api/context", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without ts, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sk-test"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Auth.APIKeyHashes = []string{string(hash)}
	_, h := newTestServer(t, cfg)

	if w := do(h, "GET", "/api/stats", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer sk-test")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with token, got %d", w.Code)
	}

	if w := do(h, "GET", "/api/stats?token=sk-test", ""); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with query token, got %d", w.Code)
	}
	if w := do(h, "GET", "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz should not need auth, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	_, h := newTestServer(t, testConfig())
	w := do(h, "GET", "/healthz", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
	if w := do(h, "GET", "/metrics", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "nanosearch_") {
		t.Errorf("metrics endpoint: %d", w.Code)
	}
}

func TestRequestMetricRouteLabel(t *testing.T) {
	_, h := newTestServer(t, testConfig())
	do(h, "GET", "/healthz", "")
	for _, p := range []string{"/unrouted-a", "/unrouted-b/c", "/api/compile/extra"} {
		if w := do(h, "GET", p, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", p, w.Code)
		}
	}

	body := do(h, "GET", "/metrics", "").Body.String()
	if !strings.Contains(body, `path="other"`) {
		t.Error("unrouted requests should be counted under path=\"other\"")
	}
	if !strings.Contains(body, `path="/healthz"`) {
		t.Error("missing /healthz route label")
	}
	for _, p := range []string{"/unrouted-a", "/unrouted-b/c", "/api/compile/extra"} {
		if strings.Contains(body, `path="`+p+`"`) {
			t.Errorf("raw path %s leaked into metric labels", p)
		}
	}
}
