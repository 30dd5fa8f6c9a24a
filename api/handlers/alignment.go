package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aria-lang/stepalign-go/internal/alignment"
)

// AlignRequest represents a one-shot alignment request.
type AlignRequest struct {
	Sequence1 string `json:"sequence1"`
	Sequence2 string `json:"sequence2"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	ScoringRequest
}

// Align handles POST /align: it fills the whole matrix and returns every
// optimal alignment up to the limit without keeping a session.
func (h *Handler) Align(w http.ResponseWriter, r *http.Request) {
	var req AlignRequest
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

	session, err := alignment.NewSession(s1, s2, costs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := session.FinishContext(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	limit := h.limits.MaxAlignments
	if req.Limit > 0 && (limit <= 0 || req.Limit < limit) {
		limit = req.Limit
	}
	alignments, err := session.Alignments(limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("aligned",
		slog.Int("len1", s1.Len()),
		slog.Int("len2", s2.Len()),
		slog.Int("alignments", len(alignments)))

	resp, err := toAlignmentsResponse(limit, alignments, costs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
