// Package api exposes the admin HTTP API: a thin JSON layer over the
// router and supervisor with no business logic of its own.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mwiklund/pagerd/internal/config"
	"github.com/mwiklund/pagerd/internal/filter"
	"github.com/mwiklund/pagerd/internal/router"
	"github.com/mwiklund/pagerd/internal/supervisor"
)

// Server handles the admin API endpoints.
type Server struct {
	router     *router.Router
	sup        *supervisor.Supervisor
	configPath string
	log        *slog.Logger

	mu  sync.Mutex // guards cfg mutation and save
	cfg *config.Config
}

// New creates an API server. configPath is where operator edits are
// persisted; empty keeps the default location. A nil logger selects
// slog.Default.
func New(r *router.Router, sup *supervisor.Supervisor, cfg *config.Config, configPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{router: r, sup: sup, cfg: cfg, configPath: configPath, log: logger}
}

// Handler returns the API route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/messages", s.handleMessages)
	mux.HandleFunc("GET /api/messages/filtered", s.handleFilteredMessages)
	mux.HandleFunc("POST /api/logs/clear", s.handleClear)
	mux.HandleFunc("PUT /api/blacklist", s.handleBlacklist)
	mux.HandleFunc("PUT /api/filters", s.handleFilters)
	mux.HandleFunc("PUT /api/frequency", s.handleFrequency)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     s.sup.State().String(),
		"frequency": s.sup.Frequency(),
		"messages":  s.router.Count(),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": s.router.Messages()})
}

func (s *Server) handleFilteredMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": s.router.FilteredMessages()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.router.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Addresses     []string `json:"addresses"`
		Words         []string `json:"words"`
		CaseSensitive bool     `json:"case_sensitive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.sup.UpdateBlacklist(filter.NewBlacklist(body.Addresses, body.Words, body.CaseSensitive))

	s.mu.Lock()
	s.cfg.Blacklist = config.BlacklistConfig{
		Addresses:     body.Addresses,
		Words:         body.Words,
		CaseSensitive: body.CaseSensitive,
	}
	s.saveLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Addresses []string `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.sup.UpdateFilterAddresses(filter.NewAddressSet(body.Addresses))

	s.mu.Lock()
	s.cfg.Filter.Addresses = body.Addresses
	s.saveLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Frequency == "" {
		writeError(w, http.StatusBadRequest, "frequency is required")
		return
	}

	if err := s.sup.Start(body.Frequency); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.cfg.Decoder.Frequency = body.Frequency
	s.saveLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"frequency": body.Frequency})
}

func (s *Server) saveLocked() {
	if err := config.Save(s.cfg, s.configPath); err != nil {
		s.log.Error("failed to persist configuration", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
