// Package api exposes the pipeline over HTTP: run status, summaries,
// negative keywords, and a live event feed over SSE and websocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/observer"
	"github.com/merchpilot/merchpilot/internal/pipeline"
)

// Store is the slice of pipeline memory the API reads and writes
type Store interface {
	RecentSummaries(limit int) ([]*domain.RunSummary, error)
	DeriveNegativeKeywords() (map[string]struct{}, error)
	AddNegativeKeywords(executionID string, keywords []string) error
}

// RunTrigger starts a pipeline run on demand
type RunTrigger func(ctx context.Context) (*domain.RunSummary, error)

// Server is the HTTP API server
type Server struct {
	store   Store
	obs     *observer.Observer
	trigger RunTrigger
	addr    string
	mux     *http.ServeMux
	sseHub  *SSEHub
	wsHub   *WSHub
	log     *zap.SugaredLogger

	runMu     sync.Mutex
	runActive bool
}

// NewServer creates a new API server
func NewServer(store Store, obs *observer.Observer, trigger RunTrigger, addr string, log *zap.SugaredLogger) *Server {
	s := &Server{
		store:   store,
		obs:     obs,
		trigger: trigger,
		addr:    addr,
		mux:     http.NewServeMux(),
		sseHub:  NewSSEHub(),
		wsHub:   NewWSHub(log),
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/summaries", s.listSummariesHandler())
	s.mux.HandleFunc("/api/summaries/", s.getSummaryHandler())
	s.mux.HandleFunc("/api/keywords", s.keywordsHandler())
	s.mux.HandleFunc("/api/run", s.triggerRunHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
	s.mux.HandleFunc("/api/ws", s.wsHub.Handler())
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	s.log.Infow("api server listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// Emit forwards a pipeline event to every connected client. Satisfies
// pipeline.EventSink so the server can be wired as a sink directly.
func (s *Server) Emit(e pipeline.Event) {
	s.sseHub.Broadcast(SSEEvent{Type: string(e.Type), Data: e})
	s.wsHub.Broadcast(e)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
