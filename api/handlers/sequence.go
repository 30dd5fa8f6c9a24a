package handlers

import (
	"errors"
	"net/http"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// SequenceRequest represents a request with a sequence.
type SequenceRequest struct {
	Sequence string `json:"sequence"`
	Alphabet string `json:"alphabet,omitempty" validate:"omitempty,printascii"`
}

// ValidateResponse represents validation result.
type ValidateResponse struct {
	Valid    bool   `json:"valid"`
	Length   int    `json:"length"`
	Position *int   `json:"position,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidateSequence handles POST /sequence/validate. It checks a sequence
// against the requested alphabet, or the server's default cost model.
func (h *Handler) ValidateSequence(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	alphabet := h.costs.Alphabet()
	if req.Alphabet != "" {
		a, err := alignment.NormalizeAlphabet(req.Alphabet)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		alphabet = a
	}

	seq := sequence.New(req.Sequence)
	resp := ValidateResponse{Valid: true, Length: seq.Len()}

	err := seq.Validate(alphabet)
	if err == nil {
		err = sequence.CheckLength(seq, h.limits.MaxSequenceLength)
	}
	if err != nil {
		resp.Valid = false
		resp.Message = err.Error()
		var baseErr *sequence.InvalidBaseError
		if errors.As(err, &baseErr) {
			pos := baseErr.Position
			resp.Position = &pos
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
