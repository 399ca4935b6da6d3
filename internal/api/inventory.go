package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/simplextech/udi-poly-inventory/internal/inventory"
)

// defaultCycleLimit is the page size when ?limit is absent.
const defaultCycleLimit = 20

// cycleResponse is the JSON form of a discovery cycle.
type cycleResponse struct {
	ID         string            `json:"id"`
	Host       string            `json:"host"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMS int64             `json:"duration_ms"`
	Counts     map[string]int    `json:"counts"`
	Partial    bool              `json:"partial"`
	Failures   map[string]string `json:"failures,omitempty"`
}

func newCycleResponse(rec inventory.CycleRecord) cycleResponse {
	return cycleResponse{
		ID:         rec.ID,
		Host:       rec.Host,
		StartedAt:  rec.StartedAt.UTC(),
		DurationMS: rec.Duration.Milliseconds(),
		Counts:     rec.Counts.Fields(),
		Partial:    len(rec.Failures) > 0,
		Failures:   rec.Failures,
	}
}

// handleLatestInventory returns the most recent cycle seen by this process.
func (s *Server) handleLatestInventory(w http.ResponseWriter, _ *http.Request) {
	latest := s.Latest()
	if latest == nil {
		writeNotFound(w, "no discovery cycle has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, newCycleResponse(*latest))
}

// handleListCycles returns stored cycles, newest first.
func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "cycle history is disabled")
		return
	}

	limit := defaultCycleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing cycles failed", "error", err)
		writeInternalError(w, "failed to list cycles")
		return
	}

	cycles := make([]cycleResponse, 0, len(records))
	for _, rec := range records {
		cycles = append(cycles, newCycleResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycles": cycles,
		"count":  len(cycles),
	})
}

// handleGetCycle returns one stored cycle.
func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "cycle history is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.history.Get(r.Context(), id)
	if errors.Is(err, inventory.ErrNotFound) {
		writeNotFound(w, "cycle not found")
		return
	}
	if err != nil {
		s.logger.Error("getting cycle failed", "cycle_id", id, "error", err)
		writeInternalError(w, "failed to get cycle")
		return
	}
	writeJSON(w, http.StatusOK, newCycleResponse(*rec))
}
