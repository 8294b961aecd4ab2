package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"loop-studio/internal/config"
	"loop-studio/internal/generate"
	"loop-studio/internal/loop"
	"loop-studio/internal/notify"
)

func newTestServer(t *testing.T, gen generate.Generator) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{OutputDir: t.TempDir()}
	s := New(cfg, gen, notify.New(notify.Settings{}))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func instantGen() generate.Generator {
	return generate.Func(func(_ context.Context, req generate.Request) (string, error) {
		return filepath.Join(req.OutputDir, "video.mp4"), nil
	})
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getStatus(t *testing.T, url string) Status {
	t.Helper()
	resp, err := http.Get(url + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	return st
}

func waitState(t *testing.T, url string, want State) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := getStatus(t, url)
		if st.State == want {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s", want)
	return Status{}
}

func TestStartRunsToCompletion(t *testing.T) {
	_, ts := newTestServer(t, instantGen())

	resp := postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "a quiet lake", Iterations: 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start returned %d, want 202", resp.StatusCode)
	}

	st := waitState(t, ts.URL, StateDone)
	if len(st.Outputs) != 1 || !strings.HasSuffix(st.Outputs[0], "video.mp4") {
		t.Fatalf("unexpected outputs: %v", st.Outputs)
	}
}

func TestStartRejectsBlankPrompt(t *testing.T) {
	_, ts := newTestServer(t, instantGen())

	resp := postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "   ", Iterations: 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("start returned %d, want 400", resp.StatusCode)
	}
}

func TestStartConflictsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	gen := generate.Func(func(ctx context.Context, req generate.Request) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-release:
		}
		return filepath.Join(req.OutputDir, "video.mp4"), nil
	})
	_, ts := newTestServer(t, gen)

	resp := postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "p", Iterations: 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start returned %d, want 202", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "p", Iterations: 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second start returned %d, want 409", resp.StatusCode)
	}

	close(release)
	waitState(t, ts.URL, StateDone)
}

func TestPauseAndResumeWithoutRunConflict(t *testing.T) {
	_, ts := newTestServer(t, instantGen())

	for _, path := range []string{"/api/pause", "/api/resume"} {
		resp := postJSON(t, ts.URL+path, map[string]string{})
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("%s returned %d, want 409", path, resp.StatusCode)
		}
	}
}

func TestFailedRunReportsError(t *testing.T) {
	gen := generate.Func(func(context.Context, generate.Request) (string, error) {
		return "", fmt.Errorf("model not loaded")
	})
	_, ts := newTestServer(t, gen)

	resp := postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "p", Iterations: 1})
	resp.Body.Close()

	st := waitState(t, ts.URL, StateFailed)
	if !strings.Contains(st.Error, "model not loaded") {
		t.Fatalf("status error = %q", st.Error)
	}
}

func TestWebSocketStreamsProgressEvents(t *testing.T) {
	_, ts := newTestServer(t, instantGen())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	r := postJSON(t, ts.URL+"/api/start", config.RunSettings{Prompt: "p", Iterations: 1})
	r.Body.Close()

	kinds := map[loop.EventKind]bool{}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !kinds[loop.EventDone] {
		var ev loop.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v (got %v)", err, kinds)
		}
		kinds[ev.Kind] = true
	}
	if !kinds[loop.EventIterationStart] || !kinds[loop.EventIterationDone] {
		t.Fatalf("missing iteration events: %v", kinds)
	}
}
