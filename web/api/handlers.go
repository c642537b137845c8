package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StatusResponse is the API response for overall pipeline status
type StatusResponse struct {
	RunsCompleted   int      `json:"runs_completed"`
	RunsFailed      int      `json:"runs_failed"`
	TotalCandidates int      `json:"total_candidates"`
	TotalApproved   int      `json:"total_approved"`
	AvgRunDuration  string   `json:"avg_run_duration"`
	StuckRuns       []string `json:"stuck_runs,omitempty"`
	RunActive       bool     `json:"run_active"`
}

// KeywordsResponse is the API response for the negative keyword set
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// KeywordsRequest adds keywords to the negative set
type KeywordsRequest struct {
	Keywords []string `json:"keywords"`
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var status StatusResponse
		if s.obs != nil {
			m := s.obs.GetMetrics()
			status.RunsCompleted = m.TotalRuns
			status.RunsFailed = m.TotalFailed
			status.TotalCandidates = m.TotalCandidates
			status.TotalApproved = m.TotalApproved
			status.AvgRunDuration = m.AvgDuration.Round(time.Second).String()
			status.StuckRuns = s.obs.Stuck()
		}

		s.runMu.Lock()
		status.RunActive = s.runActive
		s.runMu.Unlock()

		writeJSON(w, status)
	}
}

func (s *Server) listSummariesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		sums, err := s.store.RecentSummaries(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, sums)
	}
}

func (s *Server) getSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// Path: /api/summaries/{executionID}
		id := strings.TrimPrefix(r.URL.Path, "/api/summaries/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "execution ID required")
			return
		}

		sums, err := s.store.RecentSummaries(200)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, sum := range sums {
			if sum.ExecutionID == id {
				writeJSON(w, sum)
				return
			}
		}
		writeError(w, http.StatusNotFound, "summary not found")
	}
}

func (s *Server) keywordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			set, err := s.store.DeriveNegativeKeywords()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			keywords := make([]string, 0, len(set))
			for kw := range set {
				keywords = append(keywords, kw)
			}
			sort.Strings(keywords)
			writeJSON(w, KeywordsResponse{Keywords: keywords})

		case http.MethodPost:
			var req KeywordsRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(req.Keywords) == 0 {
				writeError(w, http.StatusBadRequest, "keywords required")
				return
			}
			if err := s.store.AddNegativeKeywords("api", req.Keywords); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]int{"added": len(req.Keywords)})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) triggerRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if s.trigger == nil {
			writeError(w, http.StatusServiceUnavailable, "manual runs not available")
			return
		}

		s.runMu.Lock()
		if s.runActive {
			s.runMu.Unlock()
			writeError(w, http.StatusConflict, "a run is already in flight")
			return
		}
		s.runActive = true
		s.runMu.Unlock()

		go func() {
			defer func() {
				s.runMu.Lock()
				s.runActive = false
				s.runMu.Unlock()
			}()
			if _, err := s.trigger(context.Background()); err != nil {
				s.log.Errorw("triggered run failed", "error", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}
