package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/vango-dev/lessonvars/internal/lesson"
	"github.com/vango-dev/lessonvars/internal/metrics"
	"github.com/vango-dev/lessonvars/pkg/page"
	"github.com/vango-dev/lessonvars/pkg/value"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts Options) (*Server, *page.Page, *httptest.Server) {
	t.Helper()
	p := page.New(lesson.Registry(), page.Options{Logger: quietLogger()})
	opts.Logger = quietLogger()
	s := New(p, opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().CloseAll()
		ts.Close()
		p.Dispose()
	})
	return s, p, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestHealthz(t *testing.T) {
	_, _, ts := newTestServer(t, Options{})
	resp, body := do(t, ts, "GET", "/healthz", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"status":"ok"`)) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}
}

func TestListVariables(t *testing.T) {
	_, p, ts := newTestServer(t, Options{})
	p.Store().Set("scratch", value.Bool(true))

	resp, body := do(t, ts, "GET", "/api/variables", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Variables []VariableInfo `json:"variables"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Variables) != 2 {
		t.Fatalf("got %d variables: %s", len(out.Variables), body)
	}

	angle := out.Variables[0]
	if angle.Name != lesson.SineAngle || !angle.Declared || angle.Kind != "number" || angle.Unit != "°" {
		t.Errorf("sineAngle = %+v", angle)
	}
	if angle.Value == nil || !angle.Value.Equal(value.Number(45)) {
		t.Errorf("sineAngle value = %v", angle.Value)
	}
	if scratch := out.Variables[1]; scratch.Name != "scratch" || scratch.Declared {
		t.Errorf("undeclared entry = %+v", scratch)
	}
}

func TestGetVariable(t *testing.T) {
	_, p, ts := newTestServer(t, Options{})

	resp, body := do(t, ts, "GET", "/api/variables/sineAngle", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"value":45`)) {
		t.Errorf("declared = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, ts, "GET", "/api/variables/nothing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown name status = %d, want 404", resp.StatusCode)
	}

	p.Store().Set("nothing", value.Text("now set"))
	resp, body = do(t, ts, "GET", "/api/variables/nothing", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"now set"`)) {
		t.Errorf("undeclared but set = %d %s", resp.StatusCode, body)
	}
}

func TestPutVariable(t *testing.T) {
	_, p, ts := newTestServer(t, Options{})

	resp, _ := do(t, ts, "PUT", "/api/variables/sineAngle", "90")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got, _ := p.Store().Get(lesson.SineAngle); !got.Equal(value.Number(90)) {
		t.Errorf("store = %v", got)
	}

	tests := []struct {
		name string
		body string
		code string
	}{
		{"kind mismatch", `"ninety"`, "E301"},
		{"bad json", `{`, "E402"},
		{"null", `null`, "E402"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, "PUT", "/api/variables/sineAngle", tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}
			var e errorBody
			_ = json.Unmarshal(body, &e)
			if e.Code != tt.code {
				t.Errorf("code = %q, want %s (%s)", e.Code, tt.code, body)
			}
		})
	}

	if got, _ := p.Store().Get(lesson.SineAngle); !got.Equal(value.Number(90)) {
		t.Errorf("rejected writes changed the store to %v", got)
	}
}

func TestPutVariableBodyErrors(t *testing.T) {
	s, p, _ := newTestServer(t, Options{})

	tests := []struct {
		name   string
		body   io.Reader
		status int
	}{
		{"oversize", strings.NewReader(strings.Repeat(" ", maxBodyBytes+1) + "90"), http.StatusRequestEntityTooLarge},
		{"broken connection", iotest.ErrReader(io.ErrUnexpectedEOF), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/api/variables/sineAngle", tt.body)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var e errorBody
			_ = json.Unmarshal(rec.Body.Bytes(), &e)
			if e.Code != "E402" {
				t.Errorf("code = %q, want E402 (%s)", e.Code, rec.Body.String())
			}
		})
	}

	if got, _ := p.Store().Get(lesson.SineAngle); !got.Equal(value.Number(45)) {
		t.Errorf("failed reads changed the store to %v", got)
	}
}

func TestGetLesson(t *testing.T) {
	_, p, ts := newTestServer(t, Options{WaveSamples: 16})
	_ = p.Binder().SetVariable(context.Background(), lesson.SineAngle, value.Number(90))

	resp, body := do(t, ts, "GET", "/api/lesson", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out lessonResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Angle != 90 || len(out.Blocks) != 6 || len(out.Wave) != 16 {
		t.Errorf("lesson = angle %v, %d blocks, %d wave points", out.Angle, len(out.Blocks), len(out.Wave))
	}
	if out.Blocks[4].Plot == nil || out.Blocks[4].Plot.Degrees != 90 {
		t.Errorf("plot block = %+v", out.Blocks[4])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, Options{Metrics: metrics.New()})
	resp, body := do(t, ts, "GET", "/metrics", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("lessonvars_ws_connections")) {
		t.Errorf("metrics = %d\n%s", resp.StatusCode, body)
	}

	_, _, plain := newTestServer(t, Options{})
	if resp, _ := do(t, plain, "GET", "/metrics", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("metrics without collector = %d, want 404", resp.StatusCode)
	}
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	h := recoverer(slog.New(slog.NewTextHandler(&logs, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("widget exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(logs.String(), "widget exploded") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest("GET", "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	if originChecker(nil) != nil {
		t.Error("no allowed origins should defer to the same-origin check")
	}
	if !originChecker([]string{"*"})(req("https://evil.example")) {
		t.Error("* should allow any origin")
	}
	check := originChecker([]string{"https://lessons.example"})
	if !check(req("https://lessons.example")) || !check(req("")) {
		t.Error("listed or missing origin rejected")
	}
	if check(req("https://evil.example")) {
		t.Error("unlisted origin allowed")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	p := page.New(lesson.Registry(), page.Options{Logger: quietLogger()})
	defer p.Dispose()
	s := New(p, Options{Logger: quietLogger(), ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	ws := dialURL(t, "ws://"+ln.Addr().String()+"/ws")
	defer ws.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("WebSocket still open after shutdown")
	}
}
