package alignment

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the alignment engine.
var (
	// ErrInvalidAlphabet is returned when a sequence holds a symbol the cost
	// model does not know, or the alphabet itself is unusable.
	ErrInvalidAlphabet = errors.New("invalid alphabet")

	// ErrMalformedMatrix is returned when the substitution matrix does not
	// match the alphabet size or contains unusable values.
	ErrMalformedMatrix = errors.New("malformed substitution matrix")

	// ErrNoHistory is returned by Undo when there is nothing to undo.
	ErrNoHistory = errors.New("no history to undo")

	// ErrIncompleteMatrix is returned when backtracking is requested before
	// every interior cell has been filled.
	ErrIncompleteMatrix = errors.New("alignment matrix is incomplete")

	// ErrAlreadyComplete marks a step request on a completed matrix. Step
	// itself reports this as a status; hosts that require progress may
	// surface it.
	ErrAlreadyComplete = errors.New("alignment matrix is already complete")

	// ErrMatrixTooLarge is returned when two sequences would need more
	// interior cells than a configured cap allows.
	ErrMatrixTooLarge = errors.New("alignment matrix is too large")

	// ErrInconsistentMatrix is returned when a filled cell has no
	// predecessor that reproduces its score.
	ErrInconsistentMatrix = errors.New("alignment matrix is inconsistent")
)

// InvalidSymbolError reports a symbol missing from the cost model's alphabet.
type InvalidSymbolError struct {
	Sequence string
	Position int
	Found    byte
}

func (e *InvalidSymbolError) Error() string {
	if e.Sequence == "" {
		return fmt.Sprintf("invalid symbol '%c'", e.Found)
	}
	return fmt.Sprintf("%s: invalid symbol '%c' at position %d", e.Sequence, e.Found, e.Position)
}

func (e *InvalidSymbolError) Unwrap() error { return ErrInvalidAlphabet }

// MatrixShapeError reports a substitution row of the wrong width.
// Row is -1 when the number of rows is wrong.
type MatrixShapeError struct {
	Row  int
	Want int
	Got  int
}

func (e *MatrixShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("expected %d rows, got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("row %d: expected %d columns, got %d", e.Row, e.Want, e.Got)
}

func (e *MatrixShapeError) Unwrap() error { return ErrMalformedMatrix }
