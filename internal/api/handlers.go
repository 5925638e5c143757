package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rpienaar/vaultkeeper/internal/history"
)

// RunInfo represents one run-history row in API responses.
type RunInfo struct {
	Archive      string `json:"archive"`
	Rule         string `json:"rule"`
	SetIndex     int    `json:"set_index"`
	Status       string `json:"status"`
	TargetsTotal int    `json:"targets_total"`
	TargetsOK    int    `json:"targets_ok"`
	BytesWritten int64  `json:"bytes_written"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at"`
}

func toRunInfo(r history.Run) RunInfo {
	return RunInfo{
		Archive:      r.Archive,
		Rule:         string(r.Rule),
		SetIndex:     r.SetIndex,
		Status:       string(r.Status),
		TargetsTotal: r.TargetsTotal,
		TargetsOK:    r.TargetsOK,
		BytesWritten: r.BytesWritten,
		StartedAt:    r.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		CompletedAt:  r.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	runs, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"listing recent runs"}`, http.StatusInternalServerError)
		return
	}

	out := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunInfo(run))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleRunsForArchive(w http.ResponseWriter, r *http.Request) {
	archive := r.PathValue("archive")

	runs, err := s.store.ListForArchive(r.Context(), archive)
	if err != nil {
		http.Error(w, `{"error":"listing runs for archive"}`, http.StatusInternalServerError)
		return
	}
	if len(runs) == 0 {
		http.Error(w, `{"error":"archive not found"}`, http.StatusNotFound)
		return
	}

	out := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunInfo(run))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
