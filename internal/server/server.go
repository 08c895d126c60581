package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/synth"
)

// Controller is the engine surface the remote control drives.
type Controller interface {
	Start(vibe synth.Vibe)
	Stop()
	SetVolume(v float64)
	Volume() float64
	IsPlaying() bool
	CurrentVibe() (synth.Vibe, bool)
	Seed() uint64
	Level() float64
}

// FocusStatus reports the focus timer, if there is one.
type FocusStatus interface {
	Active() bool
	Remaining(now time.Time) time.Duration
	Completed() int
}

// Status is the JSON body returned by every endpoint except /vibes.
type Status struct {
	Playing        bool    `json:"playing"`
	Vibe           string  `json:"vibe,omitempty"`
	Volume         float64 `json:"volume"`
	Seed           uint64  `json:"seed,omitempty"`
	Level          float64 `json:"level"`
	FocusActive    bool    `json:"focus_active"`
	FocusRemaining int     `json:"focus_remaining_sec,omitempty"`
	FocusCompleted int     `json:"focus_completed"`
}

// VibeInfo describes one vibe in the /vibes listing.
type VibeInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Server is a localhost HTTP remote control for the engine.
type Server struct {
	Port        int
	DefaultVibe synth.Vibe
	Focus       FocusStatus
	Logger      *log.Logger

	ctrl          Controller
	srv           *http.Server
	addr          string
	healthTimeout time.Duration
	mu            sync.Mutex
}

// New creates a stopped Server for ctrl listening on cfg.Port.
func New(cfg *config.ServerConfig, ctrl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		Port:        cfg.Port,
		DefaultVibe: synth.Rain,
		Logger:      logger,
		ctrl:        ctrl,

		healthTimeout: 2 * time.Second,
	}
}

// Handler returns the remote-control routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /vibes", s.handleVibes)
	mux.HandleFunc("POST /play", s.handlePlay)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("POST /volume", s.handleVolume)
	return mux
}

func (s *Server) status() Status {
	st := Status{
		Playing: s.ctrl.IsPlaying(),
		Volume:  s.ctrl.Volume(),
		Seed:    s.ctrl.Seed(),
		Level:   s.ctrl.Level(),
	}
	if v, ok := s.ctrl.CurrentVibe(); ok {
		st.Vibe = v.String()
	}
	if s.Focus == nil {
		return st
	}
	st.FocusCompleted = s.Focus.Completed()
	if s.Focus.Active() {
		st.FocusActive = true
		st.FocusRemaining = int(s.Focus.Remaining(time.Now()).Round(time.Second).Seconds())
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleVibes(w http.ResponseWriter, r *http.Request) {
	var list []VibeInfo
	for _, v := range synth.Vibes() {
		list = append(list, VibeInfo{Key: v.String(), Name: v.DisplayName(), Icon: v.Icon()})
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	vibe := s.DefaultVibe
	if name := r.URL.Query().Get("vibe"); name != "" {
		v, err := synth.ParseVibe(name)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		vibe = v
	}

	s.Logger.Printf("server: play vibe=%s from %s", vibe, r.RemoteAddr)
	s.ctrl.Start(vibe)
	if !s.ctrl.IsPlaying() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "audio output unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Logger.Printf("server: stop from %s", r.RemoteAddr)
	s.ctrl.Stop()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid volume %q", raw)})
		return
	}
	s.ctrl.SetVolume(v)
	writeJSON(w, http.StatusOK, s.status())
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Start listens on localhost and serves until Stop is called or ctx is
// cancelled. It returns once the server answers its own status endpoint.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.srv != nil {
		addr := s.addr
		s.mu.Unlock()
		return fmt.Errorf("server already running on %s", addr)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.Port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          s.Logger,
	}
	s.srv = srv
	s.addr = ln.Addr().String()
	addr := s.addr
	s.mu.Unlock()
	s.Logger.Printf("server: listening on %s", addr)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Printf("server: serve error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.stopServer(srv)
	}()

	// Wait for server to become healthy
	healthURL := "http://" + addr + "/status"
	deadline := time.Now().Add(s.healthTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(healthURL) //nolint:gosec // URL from our own listener
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			_ = s.stopServer(srv)
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	_ = s.stopServer(srv)
	return fmt.Errorf("server did not become healthy on %s", addr)
}

// Stop shuts the server down, waiting up to 5 seconds for open requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return s.stopServer(srv)
}

func (s *Server) stopServer(srv *http.Server) error {
	s.mu.Lock()
	if s.srv != srv {
		s.mu.Unlock()
		return nil
	}
	s.srv = nil
	addr := s.addr
	s.mu.Unlock()

	s.Logger.Printf("server: stopping %s", addr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Running returns true while the server is accepting requests.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}

// Addr returns the address the server is listening on, or "" if stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return ""
	}
	return s.addr
}
