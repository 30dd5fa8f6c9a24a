// Package handlers provides HTTP handlers for the stepalign API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/config"
	"github.com/aria-lang/stepalign-go/internal/sequence"
	"github.com/aria-lang/stepalign-go/internal/store"
)

// Handler serves the session and alignment endpoints.
type Handler struct {
	store    *store.Store
	costs    *alignment.CostModel
	limits   config.LimitsConfig
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Handler. costs is the model used when a request does not
// supply its own scoring.
func New(st *store.Store, costs *alignment.CostModel, limits config.LimitsConfig, logger *slog.Logger) *Handler {
	if costs == nil {
		costs = alignment.DefaultNucleotide(alignment.DefaultGapCost)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    st,
		costs:    costs,
		limits:   limits,
		logger:   logger,
		validate: validator.New(),
	}
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/step", h.StepSession)
			r.Post("/finish", h.FinishSession)
			r.Post("/undo", h.UndoSession)
			r.Get("/alignments", h.ListAlignments)
		})
	})
	r.Post("/align", h.Align)
	r.Post("/sequence/validate", h.ValidateSequence)
}

// ScoringRequest carries optional per-request scoring.
type ScoringRequest struct {
	GapCost      *float64 `json:"gap_cost,omitempty"`
	Alphabet     string   `json:"alphabet,omitempty" validate:"omitempty,printascii"`
	Substitution string   `json:"substitution,omitempty" validate:"required_with=Alphabet"`
}

// costModel builds the cost model a request asks for, falling back to the
// server default for anything omitted.
func (h *Handler) costModel(req ScoringRequest) (*alignment.CostModel, error) {
	if req.GapCost == nil && req.Alphabet == "" && req.Substitution == "" {
		return h.costs, nil
	}

	gap := h.costs.GapCost()
	if req.GapCost != nil {
		gap = *req.GapCost
	}
	alphabet := h.costs.Alphabet()
	if req.Alphabet != "" {
		alphabet = req.Alphabet
	}
	matrix := h.costs.Substitution()
	if req.Substitution != "" {
		m, err := alignment.ParseSubstitutionMatrix(req.Substitution)
		if err != nil {
			return nil, err
		}
		matrix = m
	}
	return alignment.NewCostModel(alphabet, gap, matrix)
}

// sequences normalizes the two inputs and checks them against the length
// and matrix size limits.
func (h *Handler) sequences(raw1, raw2 string) (*sequence.Sequence, *sequence.Sequence, error) {
	s1, s2 := sequence.New(raw1), sequence.New(raw2)
	for _, s := range []*sequence.Sequence{s1, s2} {
		if err := sequence.CheckLength(s, h.limits.MaxSequenceLength); err != nil {
			return nil, nil, err
		}
	}
	if err := alignment.CheckCells(s1.Len(), s2.Len(), h.limits.MaxCells); err != nil {
		return nil, nil, err
	}
	return s1, s2, nil
}

// decode reads a JSON body into v and validates its tags.
func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	if err := h.validate.Struct(v); err != nil {
		return &requestError{err: err}
	}
	return nil
}

var errInvalidBody = errors.New("invalid request body")

type requestError struct {
	err error
}

func (e *requestError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field() + ": failed " + verrs[0].Tag()
	}
	return e.err.Error()
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and writes it.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var (
		lengthErr *sequence.InvalidLengthError
		reqErr    *requestError
	)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidBody),
		errors.As(err, &reqErr),
		errors.As(err, &lengthErr),
		errors.Is(err, alignment.ErrInvalidAlphabet),
		errors.Is(err, alignment.ErrMalformedMatrix):
		return http.StatusBadRequest
	case errors.Is(err, alignment.ErrMatrixTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, alignment.ErrNoHistory),
		errors.Is(err, alignment.ErrIncompleteMatrix),
		errors.Is(err, alignment.ErrAlreadyComplete):
		return http.StatusConflict
	case errors.Is(err, store.ErrStoreFull),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
