package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	appErr "evalbox/pkg/errors"

	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

type fakeEngine struct {
	lastReq spec.LaunchRequest
	res     result.RunResult
	err     error
}

func (f *fakeEngine) Run(_ context.Context, req spec.LaunchRequest) (result.RunResult, error) {
	f.lastReq = req
	return f.res, f.err
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRunEndpoint(t *testing.T) {
	eng := &fakeEngine{res: result.RunResult{
		Cmd:      []string{"echo", "hello"},
		ExitCode: 0,
		Stdout:   "hello\n",
	}}
	router := NewRouter(eng)

	w := doRequest(router, http.MethodPost, "/api/v1/sandbox/run",
		`{"cmd": ["echo", "hello"], "timeout_seconds": 5, "max_output_size": 1024}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			RunID  string           `json:"run_id"`
			Result result.RunResult `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Code != int(appErr.Success) {
		t.Fatalf("code = %d, want success", resp.Code)
	}
	if resp.Data.RunID == "" {
		t.Fatal("run_id missing")
	}
	if resp.Data.Result.Stdout != "hello\n" {
		t.Fatalf("stdout = %q", resp.Data.Result.Stdout)
	}

	if eng.lastReq.TimeoutSeconds != 5 || eng.lastReq.MaxOutputBytes != 1024 {
		t.Fatalf("engine request = %+v", eng.lastReq)
	}
}

func TestRunEndpointBadPayload(t *testing.T) {
	router := NewRouter(&fakeEngine{})

	w := doRequest(router, http.MethodPost, "/api/v1/sandbox/run", `{"cmd": []}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRunEndpointEngineError(t *testing.T) {
	eng := &fakeEngine{err: appErr.New(appErr.SandboxLaunchFailed)}
	router := NewRouter(eng)

	w := doRequest(router, http.MethodPost, "/api/v1/sandbox/run",
		`{"cmd": ["/missing"], "timeout_seconds": 5}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Code != int(appErr.SandboxLaunchFailed) {
		t.Fatalf("code = %d, want SandboxLaunchFailed", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(&fakeEngine{})
	w := doRequest(router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestTraceHeadersPropagated(t *testing.T) {
	router := NewRouter(&fakeEngine{})
	w := doRequest(router, http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Trace-Id") == "" {
		t.Fatal("X-Trace-Id header missing")
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("X-Request-Id header missing")
	}

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-Id", "trace-abc")
	router.ServeHTTP(w2, req)
	if got := w2.Header().Get("X-Trace-Id"); got != "trace-abc" {
		t.Fatalf("X-Trace-Id = %q, want caller's value kept", got)
	}
}
