package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/store"
)

// CreateSessionRequest opens a new stepping session.
type CreateSessionRequest struct {
	Sequence1 string `json:"sequence1"`
	Sequence2 string `json:"sequence2"`
	ScoringRequest
}

// CreateSessionResponse identifies the new session.
type CreateSessionResponse struct {
	ID    string `json:"id"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	State string `json:"state"`
}

// StepResponse describes one filled cell.
type StepResponse struct {
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	Score       float64  `json:"score"`
	Decision    []string `json:"decision"`
	Explanation string   `json:"explanation"`
	IsComplete  bool     `json:"is_complete"`
	Advanced    bool     `json:"advanced"`
}

// FinishResponse carries the final score.
type FinishResponse struct {
	Score float64 `json:"score"`
}

// UndoResponse describes the restored cell.
type UndoResponse struct {
	Row           int      `json:"row"`
	Col           int      `json:"col"`
	RestoredScore *float64 `json:"restored_score"`
}

// AlignmentResponse is one optimal alignment.
type AlignmentResponse struct {
	AlignedSeq1 string  `json:"aligned_seq1"`
	AlignedSeq2 string  `json:"aligned_seq2"`
	Identity    float64 `json:"identity"`
	CIGAR       string  `json:"cigar"`
	Matches     int     `json:"matches"`
	Mismatches  int     `json:"mismatches"`
	Gaps        int     `json:"gaps"`
	GapOpenings int     `json:"gap_openings"`
	PathCost    float64 `json:"path_cost"`
}

// AlignmentsResponse lists optimal alignments sharing one score.
type AlignmentsResponse struct {
	Score      float64             `json:"score"`
	Count      int                 `json:"count"`
	Limit      int                 `json:"limit"`
	Alignments []AlignmentResponse `json:"alignments"`
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	costs, err := h.costModel(req.ScoringRequest)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s1, s2, err := h.sequences(req.Sequence1, req.Sequence2)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.store.Create(s1, s2, costs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	view := entry.View()
	w.Header().Set("Location", "/api/sessions/"+entry.ID)
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:    entry.ID,
		Rows:  view.Rows,
		Cols:  view.Cols,
		State: view.State,
	})
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry.View())
}

// DeleteSession handles DELETE /sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepSession handles POST /sessions/{id}/step. With ?strict=true a step
// on a complete matrix is a conflict instead of a no-op.
func (h *Handler) StepSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	out, err := entry.Step()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !out.Advanced && r.URL.Query().Get("strict") == "true" {
		h.writeError(w, r, alignment.ErrAlreadyComplete)
		return
	}

	h.logger.Debug("step",
		slog.String("id", entry.ID),
		slog.Int("row", out.Row),
		slog.Int("col", out.Col),
		slog.Float64("score", out.Score))

	writeJSON(w, http.StatusOK, toStepResponse(out))
}

// FinishSession handles POST /sessions/{id}/finish.
func (h *Handler) FinishSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	out, err := entry.Finish(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FinishResponse{Score: out.Score})
}

// UndoSession handles POST /sessions/{id}/undo.
func (h *Handler) UndoSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	out, err := entry.Undo()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := UndoResponse{Row: out.Row, Col: out.Col}
	if out.RestoredSet {
		score := out.RestoredScore
		resp.RestoredScore = &score
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAlignments handles GET /sessions/{id}/alignments?limit=N.
func (h *Handler) ListAlignments(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}

	limit, err := h.limit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	alignments, err := entry.Alignments(limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := toAlignmentsResponse(limit, alignments, entry.Costs())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) entry(w http.ResponseWriter, r *http.Request) (*store.Entry, bool) {
	entry, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return entry, true
}

// limit reads ?limit, clamped to the configured maximum.
func (h *Handler) limit(r *http.Request) (int, error) {
	limit := h.limits.MaxAlignments
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, &requestError{err: fmt.Errorf("limit: must be a positive integer, got %q", raw)}
		}
		if limit <= 0 || n < limit {
			limit = n
		}
	}
	return limit, nil
}

func toStepResponse(out alignment.StepOutcome) StepResponse {
	dirs := out.Decision.Directions()
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.String()
	}
	return StepResponse{
		Row:         out.Row,
		Col:         out.Col,
		Score:       out.Score,
		Decision:    names,
		Explanation: out.Explanation,
		IsComplete:  out.IsComplete,
		Advanced:    out.Advanced,
	}
}

// toAlignmentsResponse re-derives every alignment's path cost. A failure
// means the matrix and cost model disagree, which is a server fault.
func toAlignmentsResponse(limit int, alignments []*alignment.Alignment,
	costs *alignment.CostModel) (AlignmentsResponse, error) {
	resp := AlignmentsResponse{
		Count:      len(alignments),
		Limit:      limit,
		Alignments: make([]AlignmentResponse, 0, len(alignments)),
	}
	if len(alignments) > 0 {
		resp.Score = alignments[0].Score
	}
	for i, a := range alignments {
		cost, err := a.PathCost(costs)
		if err != nil {
			return AlignmentsResponse{}, fmt.Errorf("%w: alignment %d: %v",
				alignment.ErrInconsistentMatrix, i, err)
		}
		resp.Alignments = append(resp.Alignments, AlignmentResponse{
			AlignedSeq1: a.AlignedSeq1,
			AlignedSeq2: a.AlignedSeq2,
			Identity:    a.Identity,
			CIGAR:       a.ToCIGAR(),
			Matches:     a.MatchCount(),
			Mismatches:  a.MismatchCount(),
			Gaps:        a.TotalGaps(),
			GapOpenings: a.GapOpenings(),
			PathCost:    cost,
		})
	}
	return resp, nil
}
