// Package server exposes the looped generation driver over HTTP: start,
// pause and resume runs and watch progress events over a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"loop-studio/internal/config"
	"loop-studio/internal/generate"
	"loop-studio/internal/loop"
	"loop-studio/internal/notify"
)

// State describes what the driver is currently doing.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Status is the JSON body of GET /api/status.
type Status struct {
	State     State    `json:"state"`
	Iteration int      `json:"iteration"`
	Total     int      `json:"total"`
	Outputs   []string `json:"outputs,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Server drives at most one run at a time.
type Server struct {
	cfg      *config.Config
	gen      generate.Generator
	notifier *notify.Notifier
	hub      *hub

	mu        sync.Mutex
	running   bool
	ctrl      *loop.Controller
	cancel    context.CancelFunc
	iteration int
	total     int
	outputs   []string
	lastErr   string
	state     State
}

func New(cfg *config.Config, gen generate.Generator, notifier *notify.Notifier) *Server {
	return &Server{
		cfg:      cfg,
		gen:      gen,
		notifier: notifier,
		hub:      newHub(),
		state:    StateIdle,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/pause", s.handlePause)
	mux.HandleFunc("POST /api/resume", s.handleResume)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var rs config.RunSettings
	if err := json.NewDecoder(r.Body).Decode(&rs); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("decode run settings: %w", err))
		return
	}
	rs.ApplyDefaults()
	if strings.TrimSpace(rs.Prompt) == "" {
		httpError(w, http.StatusBadRequest, fmt.Errorf("prompt is required"))
		return
	}
	outputDir := rs.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.OutputDir
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		httpError(w, http.StatusConflict, fmt.Errorf("a run is already in progress"))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := loop.NewController()
	s.running = true
	s.ctrl = ctrl
	s.cancel = cancel
	s.state = StateRunning
	s.iteration = 0
	s.total = rs.Iterations
	s.outputs = nil
	s.lastErr = ""
	s.mu.Unlock()

	opts := loop.Options{
		Prompt:           rs.Prompt,
		Seed:             rs.Seed,
		OutputDir:        outputDir,
		Iterations:       rs.Iterations,
		Height:           rs.Height,
		Width:            rs.Width,
		NumFrames:        rs.NumFrames,
		InitialImage:     rs.InputImage,
		Delay:            time.Duration(rs.DelaySeconds * float64(time.Second)),
		Stitch:           rs.Stitch,
		StitchedFilename: rs.StitchedFilename,
		ErrorOnEmpty:     rs.ErrorOnEmpty,
		Controller:       ctrl,
		Progress:         s.onEvent,
	}

	go s.run(ctx, opts)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

func (s *Server) run(ctx context.Context, opts loop.Options) {
	started := time.Now()
	res, err := loop.Run(ctx, s.gen, opts)

	s.mu.Lock()
	s.running = false
	s.ctrl = nil
	s.cancel = nil
	s.outputs = res.Final()
	if err != nil {
		s.state = StateFailed
		s.lastErr = err.Error()
	} else {
		s.state = StateDone
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("run failed: %v", err)
	}
	s.notifier.RunFinished(notify.RunSummary{
		Prompt:     opts.Prompt,
		Iterations: opts.Iterations,
		OutputDir:  opts.OutputDir,
		Output:     firstOrEmpty(res.Final()),
		Duration:   time.Since(started),
		Err:        err,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		httpError(w, http.StatusConflict, fmt.Errorf("no run in progress"))
		return
	}
	ctrl.Pause()
	writeJSON(w, map[string]string{"status": "pausing at next iteration"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
		Image  string `json:"image"`
	}
	if r.Body != nil {
		// An empty body means "resume unchanged".
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		httpError(w, http.StatusConflict, fmt.Errorf("no run in progress"))
		return
	}
	ctrl.Resume(body.Prompt, body.Image)
	writeJSON(w, map[string]string{"status": "resuming"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := Status{
		State:     s.state,
		Iteration: s.iteration,
		Total:     s.total,
		Outputs:   s.outputs,
		Error:     s.lastErr,
	}
	if s.state == StateRunning && s.ctrl != nil && s.ctrl.Paused() {
		st.State = StatePaused
	}
	s.mu.Unlock()
	writeJSON(w, st)
}

// onEvent tracks progress for /api/status and forwards the event to the
// WebSocket clients.
func (s *Server) onEvent(ev loop.Event) {
	s.mu.Lock()
	switch ev.Kind {
	case loop.EventIterationStart, loop.EventIterationDone:
		s.iteration = ev.Iteration
	}
	s.mu.Unlock()
	s.hub.broadcast(ev)
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func firstOrEmpty(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
