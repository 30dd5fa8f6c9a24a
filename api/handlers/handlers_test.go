package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/config"
	"github.com/aria-lang/stepalign-go/internal/logging"
	"github.com/aria-lang/stepalign-go/internal/store"
)

func newTestRouter(t *testing.T, limits config.LimitsConfig) http.Handler {
	t.Helper()
	logger := logging.Discard()
	sessions := store.New(store.Limits{
		MaxSessions:   limits.MaxSessions,
		MaxTotalCells: limits.MaxTotalCells,
	}, logger)
	h := New(sessions, nil, limits, logger)

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func defaultLimits() config.LimitsConfig {
	return config.Default().Limits
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, router http.Handler, body any) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[CreateSessionResponse](t, rec).ID
}

func TestCreateSession(t *testing.T) {
	router := newTestRouter(t, defaultLimits())

	rec := do(t, router, http.MethodPost, "/api/sessions", map[string]any{
		"sequence1": "aataat",
		"sequence2": "AAGG",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[CreateSessionResponse](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 7, resp.Rows)
	assert.Equal(t, 5, resp.Cols)
	assert.Equal(t, "initialized", resp.State)
	assert.Equal(t, "/api/sessions/"+resp.ID, rec.Header().Get("Location"))
}

func TestCreateSessionErrors(t *testing.T) {
	limits := defaultLimits()
	limits.MaxSequenceLength = 8
	router := newTestRouter(t, limits)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"invalid body", "not an object", http.StatusBadRequest},
		{"invalid symbol", map[string]any{"sequence1": "ACGU", "sequence2": "A"}, http.StatusBadRequest},
		{"too long", map[string]any{"sequence1": "ACGTACGTA", "sequence2": "A"}, http.StatusBadRequest},
		{"ragged matrix", map[string]any{
			"sequence1": "AB", "sequence2": "BA", "alphabet": "AB", "substitution": "1 2; 3",
		}, http.StatusBadRequest},
		{"alphabet without matrix", map[string]any{
			"sequence1": "AB", "sequence2": "BA", "alphabet": "AB",
		}, http.StatusBadRequest},
		{"gap marker in alphabet", map[string]any{
			"sequence1": "A", "sequence2": "A", "alphabet": "A-", "substitution": "1 0; 0 1",
		}, http.StatusBadRequest},
		{"space in alphabet", map[string]any{
			"sequence1": "A", "sequence2": "A", "alphabet": "A C", "substitution": "1 0 0; 0 1 0; 0 0 1",
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t, defaultLimits())
	id := createSession(t, router, map[string]any{"sequence1": "AA", "sequence2": "A"})
	base := "/api/sessions/" + id

	rec := do(t, router, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/alignments", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, base+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	step := decodeBody[StepResponse](t, rec)
	assert.Equal(t, 1, step.Row)
	assert.Equal(t, 1, step.Col)
	assert.Equal(t, 10.0, step.Score)
	assert.Equal(t, []string{"diagonal"}, step.Decision)
	assert.Equal(t, "Match/mismatch between A and A. Cost: 10.", step.Explanation)

	rec = do(t, router, http.MethodPost, base+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	step = decodeBody[StepResponse](t, rec)
	assert.Equal(t, []string{"diagonal", "up"}, step.Decision)
	assert.True(t, step.IsComplete)

	rec = do(t, router, http.MethodPost, base+"/step?strict=true", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, base+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[StepResponse](t, rec).Advanced)

	rec = do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[store.View](t, rec)
	assert.Equal(t, "complete", view.State)
	require.NotNil(t, view.FinalScore)
	assert.Equal(t, 5.0, *view.FinalScore)

	rec = do(t, router, http.MethodGet, base+"/alignments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[AlignmentsResponse](t, rec)
	assert.Equal(t, 5.0, list.Score)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "-A", list.Alignments[0].AlignedSeq2)
	assert.Equal(t, "A-", list.Alignments[1].AlignedSeq2)
	for _, a := range list.Alignments {
		assert.Equal(t, 5.0, a.PathCost)
		assert.Equal(t, 1, a.Gaps)
		assert.Equal(t, 1, a.GapOpenings)
	}

	rec = do(t, router, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	undo := decodeBody[UndoResponse](t, rec)
	assert.Equal(t, 2, undo.Row)
	assert.Equal(t, 1, undo.Col)
	assert.Nil(t, undo.RestoredScore)

	rec = do(t, router, http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, decodeBody[FinishResponse](t, rec).Score)

	rec = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlignmentsResponsePathCost(t *testing.T) {
	costs := alignment.DefaultNucleotide(-5)

	tests := []struct {
		name  string
		rows  [2]string
		score float64
	}{
		{"gap against gap", [2]string{"A-", "A-"}, 10},
		{"symbol outside alphabet", [2]string{"AX", "AA"}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := alignment.NewAlignment(tt.rows[0], tt.rows[1], tt.score)
			require.NoError(t, err)

			_, err = toAlignmentsResponse(0, []*alignment.Alignment{a}, costs)
			require.Error(t, err)
			assert.ErrorIs(t, err, alignment.ErrInconsistentMatrix)
			assert.Equal(t, http.StatusInternalServerError, statusFor(err))
		})
	}

	a, err := alignment.NewAlignment("AC--GT", "A-TTGT", 0)
	require.NoError(t, err)
	resp, err := toAlignmentsResponse(0, []*alignment.Alignment{a}, costs)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Alignments[0].Gaps)
	assert.Equal(t, 2, resp.Alignments[0].GapOpenings)
}

func TestAlignmentsLimit(t *testing.T) {
	router := newTestRouter(t, defaultLimits())
	id := createSession(t, router, map[string]any{"sequence1": "AAAA", "sequence2": "AA"})
	base := "/api/sessions/" + id

	rec := do(t, router, http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/alignments?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[AlignmentsResponse](t, rec)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 2, list.Limit)

	rec = do(t, router, http.MethodGet, base+"/alignments?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomScoring(t *testing.T) {
	router := newTestRouter(t, defaultLimits())

	rec := do(t, router, http.MethodPost, "/api/align", map[string]any{
		"sequence1": "AT",
		"sequence2": "TA",
		"gap_cost":  -4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decodeBody[AlignmentsResponse](t, rec)
	assert.Equal(t, 4.0, list.Score)
	require.Len(t, list.Alignments, 1)
	assert.Equal(t, "TA", list.Alignments[0].AlignedSeq2)

	rec = do(t, router, http.MethodPost, "/api/align", map[string]any{
		"sequence1":    "XYX",
		"sequence2":    "XX",
		"alphabet":     "XY",
		"substitution": "3 -1; -1 3",
		"gap_cost":     -1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list = decodeBody[AlignmentsResponse](t, rec)
	assert.Equal(t, 5.0, list.Score)
	assert.Equal(t, "X-X", list.Alignments[0].AlignedSeq2)
}

func TestAlignEmpty(t *testing.T) {
	router := newTestRouter(t, defaultLimits())

	rec := do(t, router, http.MethodPost, "/api/align", map[string]any{"sequence1": "AC", "sequence2": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[AlignmentsResponse](t, rec)
	assert.Equal(t, -10.0, list.Score)
	assert.Equal(t, "--", list.Alignments[0].AlignedSeq2)
}

func TestMatrixSizeLimit(t *testing.T) {
	limits := defaultLimits()
	limits.MaxCells = 20
	router := newTestRouter(t, limits)

	big := map[string]any{"sequence1": "AATAAT", "sequence2": "AAGG"} // 24 cells
	for _, path := range []string{"/api/sessions", "/api/align"} {
		rec := do(t, router, http.MethodPost, path, big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, path)
		assert.Contains(t, decodeBody[ErrorResponse](t, rec).Error, "too large")
	}

	rec := do(t, router, http.MethodPost, "/api/align", map[string]any{"sequence1": "AAAA", "sequence2": "AA"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStoreCellBudget(t *testing.T) {
	limits := defaultLimits()
	limits.MaxCells = 24
	limits.MaxTotalCells = 40
	router := newTestRouter(t, limits)

	body := map[string]any{"sequence1": "AATAAT", "sequence2": "AAGG"} // 7x5 matrix
	createSession(t, router, body)
	rec := do(t, router, http.MethodPost, "/api/sessions", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStoreFull(t *testing.T) {
	limits := defaultLimits()
	limits.MaxSessions = 1
	router := newTestRouter(t, limits)

	createSession(t, router, map[string]any{"sequence1": "A", "sequence2": "A"})
	rec := do(t, router, http.MethodPost, "/api/sessions", map[string]any{"sequence1": "A", "sequence2": "A"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidateSequence(t *testing.T) {
	router := newTestRouter(t, defaultLimits())

	rec := do(t, router, http.MethodPost, "/api/sequence/validate", map[string]any{"sequence": "acgt"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidateResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, 4, resp.Length)

	rec = do(t, router, http.MethodPost, "/api/sequence/validate", map[string]any{"sequence": "ACNT"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[ValidateResponse](t, rec)
	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Position)
	assert.Equal(t, 2, *resp.Position)

	rec = do(t, router, http.MethodPost, "/api/sequence/validate", map[string]any{"sequence": "XYZ", "alphabet": "XYZ"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ValidateResponse](t, rec).Valid)

	rec = do(t, router, http.MethodPost, "/api/sequence/validate", map[string]any{"sequence": "xyz", "alphabet": "xyz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ValidateResponse](t, rec).Valid)

	rec = do(t, router, http.MethodPost, "/api/sequence/validate", map[string]any{"sequence": "X-", "alphabet": "X-"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
