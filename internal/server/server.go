// Package server exposes a running simulation over HTTP and streams
// snapshots to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
)

// Server owns a simulation and is the only goroutine that ticks it. Every
// handler takes the same lock.
type Server struct {
	mu        sync.Mutex
	sim       *sim.Simulation
	statePath string
	lastErr   string
	log       hclog.Logger

	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex
}

func New(s *sim.Simulation, statePath string, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		sim:       s,
		statePath: statePath,
		log:       logger.Named("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /blackhole", s.handleCreateBlackHole)
	mux.HandleFunc("DELETE /blackhole", s.handleResetBlackHole)
	mux.HandleFunc("POST /speed", s.handleSpeed)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("POST /load", s.handleLoad)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Step advances the simulation one tick and pushes the new snapshot to every
// websocket client.
func (s *Server) Step(ctx context.Context) error {
	s.mu.Lock()
	report, err := s.sim.Tick(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if e := report.Err(); e != nil {
		s.lastErr = e.Error()
	}
	snap := s.sim.Snapshot()
	s.mu.Unlock()

	s.broadcast(snap)
	return nil
}

// Loop ticks at fps until ctx is done.
func (s *Server) Loop(ctx context.Context, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Tick    int64  `json:"tick"`
	Clients int    `json:"clients"`
	LastErr string `json:"last_error,omitempty"`
}

type blackHoleRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size *int    `json:"size,omitempty"`
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := healthResponse{Status: "ok", Tick: s.sim.TickCount(), LastErr: s.lastErr}
	s.mu.Unlock()
	s.clientsMu.RLock()
	resp.Clients = len(s.clients)
	s.clientsMu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleCreateBlackHole(w http.ResponseWriter, r *http.Request) {
	var req blackHoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim.Config().InControlStrip(req.Y) {
		writeError(w, http.StatusBadRequest, errors.New("position is inside the control strip"))
		return
	}
	if req.Size != nil {
		s.sim.ChangeBlackHoleSize(*req.Size - s.sim.SpawnSize())
	}
	if err := s.sim.CreateBlackHole(req.X, req.Y); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.log.Info("black hole created", "x", req.X, "y", req.Y, "size", s.sim.SpawnSize())
	writeJSON(w, http.StatusCreated, s.sim.Snapshot().BlackHole)
}

func (s *Server) handleResetBlackHole(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sim.ResetBlackHole()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	err := s.sim.SetSpeed(req.Speed)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sim.Reset()
	s.lastErr = ""
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := storage.SaveState(s.statePath, s.snapshot()); err != nil {
		s.log.Error("save state failed", "path", s.statePath, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	st, err := storage.LoadState(s.statePath)
	if err != nil {
		s.log.Error("load state failed", "path", s.statePath, "error", err)
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.mu.Lock()
	err = s.sim.Restore(st.Snapshot())
	s.mu.Unlock()
	if err != nil {
		s.log.Error("load state failed", "path", s.statePath, "error", err)
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer s.removeClient(conn)

	snap := s.snapshot()
	connMu.Lock()
	err = conn.WriteJSON(snap)
	connMu.Unlock()
	if err != nil {
		return
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(snap sim.Snapshot) {
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(snap)
		mu.Unlock()
		if err != nil {
			s.log.Debug("websocket write failed", "error", err)
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	for _, conn := range failed {
		conn.Close()
		s.removeClient(conn)
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Server) snapshot() sim.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
