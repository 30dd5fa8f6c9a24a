package alignment

import (
	"context"
	"fmt"

	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// State is the lifecycle position of a Session.
type State int

const (
	// Initialized means boundaries are set and no interior cell is filled
	Initialized State = iota
	// Stepping means some but not all interior cells are filled
	Stepping
	// Complete means every interior cell is filled
	Complete
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Stepping:
		return "stepping"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session composes a cost model, two sequences, a step engine and
// backtracking into the lifecycle a caller drives:
// configure, step or finish, then query results.
//
// A Session is not safe for concurrent use. Independent sessions share
// nothing but their immutable CostModel.
type Session struct {
	costs  *CostModel
	seq1   *sequence.Sequence
	seq2   *sequence.Sequence
	engine *Engine
}

// NewSession validates both sequences against costs and initializes the
// matrix boundaries. A nil costs uses DefaultNucleotide(DefaultGapCost).
func NewSession(seq1, seq2 *sequence.Sequence, costs *CostModel) (*Session, error) {
	if costs == nil {
		costs = DefaultNucleotide(DefaultGapCost)
	}
	if seq1 == nil {
		seq1 = sequence.New("")
	}
	if seq2 == nil {
		seq2 = sequence.New("")
	}

	if err := CheckCells(seq1.Len(), seq2.Len(), 0); err != nil {
		return nil, err
	}
	enc1, err := costs.Encode("sequence1", seq1)
	if err != nil {
		return nil, err
	}
	enc2, err := costs.Encode("sequence2", seq2)
	if err != nil {
		return nil, err
	}

	return &Session{
		costs:  costs,
		seq1:   seq1,
		seq2:   seq2,
		engine: newEngine(costs, seq1.Bases, seq2.Bases, enc1, enc2),
	}, nil
}

// Reset discards all matrix, history and cursor state and starts over with
// new inputs. On error the session is left untouched.
func (s *Session) Reset(seq1, seq2 *sequence.Sequence, costs *CostModel) error {
	fresh, err := NewSession(seq1, seq2, costs)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Restart clears every filled cell and the history, keeping the inputs.
func (s *Session) Restart() {
	s.engine = newEngine(s.costs, s.engine.seq1, s.engine.seq2, s.engine.enc1, s.engine.enc2)
}

// Costs returns the session's cost model.
func (s *Session) Costs() *CostModel {
	return s.costs
}

// Sequences returns the two input sequences.
func (s *Session) Sequences() (*sequence.Sequence, *sequence.Sequence) {
	return s.seq1, s.seq2
}

// Matrix exposes the score table for read-only inspection.
func (s *Session) Matrix() *Matrix {
	return s.engine.Matrix()
}

// Cursor returns the next cell Step will fill.
func (s *Session) Cursor() Cursor {
	return s.engine.Cursor()
}

// HistoryLen returns the number of undoable steps.
func (s *Session) HistoryLen() int {
	return s.engine.HistoryLen()
}

// State reports the lifecycle position.
func (s *Session) State() State {
	switch {
	case s.engine.Done():
		return Complete
	case s.engine.Matrix().Filled() == 0:
		return Initialized
	default:
		return Stepping
	}
}

// Step fills one cell. On a complete matrix it is a no-op whose outcome
// has Advanced false and IsComplete true.
func (s *Session) Step() (StepOutcome, error) {
	return s.engine.Step(), nil
}

// Finish fills every remaining cell. Calling it on a complete matrix
// changes nothing and returns the final score again.
func (s *Session) Finish() (FinalOutcome, error) {
	return s.engine.FinishContext(context.Background())
}

// FinishContext is Finish bounded by ctx.
func (s *Session) FinishContext(ctx context.Context) (FinalOutcome, error) {
	return s.engine.FinishContext(ctx)
}

// Undo reverts the most recent step.
func (s *Session) Undo() (UndoOutcome, error) {
	return s.engine.Undo()
}

// FinalScore returns the bottom-right score once the matrix is complete.
func (s *Session) FinalScore() (float64, bool) {
	if s.State() != Complete {
		return 0, false
	}
	m := s.engine.Matrix()
	return m.Score(m.Rows()-1, m.Cols()-1)
}

// EnumerateOptimalAlignments returns every alignment attaining the final
// score, or at most limit of them when limit > 0.
func (s *Session) EnumerateOptimalAlignments(limit int) ([]AlignmentPair, error) {
	return NewBacktracker(s.engine).Enumerate(limit)
}

// Alignments is EnumerateOptimalAlignments wrapped as scored Alignments.
func (s *Session) Alignments(limit int) ([]*Alignment, error) {
	pairs, err := s.EnumerateOptimalAlignments(limit)
	if err != nil {
		return nil, err
	}
	score, ok := s.FinalScore()
	if !ok {
		return nil, fmt.Errorf("%w: no final score", ErrIncompleteMatrix)
	}
	return FromPairs(pairs, score), nil
}
