package alignment

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Explanation texts for the three transitions and the boundary.
const (
	deletionText  = "Deletion. Using gap cost."
	insertionText = "Insertion. Using gap cost."
	boundaryText  = "Starting row/column, using gap costs."
	completeText  = "Alignment complete."
)

// Cursor points at the next interior cell the engine will fill.
type Cursor struct {
	Row int
	Col int
}

// historyEntry records a cell's state immediately before it was computed.
// Coordinates are int32 to keep one entry per filled cell small.
type historyEntry struct {
	row, col int32
	previous cell
}

// StepOutcome describes the cell filled by one Step.
//
// Advanced is false when the matrix was already complete; the call was a
// no-op and IsComplete is true.
type StepOutcome struct {
	Row         int
	Col         int
	Score       float64
	Decision    Decision
	Explanation string
	IsComplete  bool
	Advanced    bool
}

// FinalOutcome is the result of completing the matrix.
type FinalOutcome struct {
	Score float64
}

// UndoOutcome describes the cell restored by Undo.
type UndoOutcome struct {
	Row           int
	Col           int
	RestoredScore float64
	RestoredSet   bool
}

// Engine fills a Matrix one interior cell at a time in row-major order and
// keeps enough history to reverse every step.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	costs   *CostModel
	seq1    string
	seq2    string
	enc1    []int
	enc2    []int
	matrix  *Matrix
	cursor  Cursor
	history []historyEntry
}

// newEngine builds an engine over pre-encoded sequences.
func newEngine(costs *CostModel, seq1, seq2 string, enc1, enc2 []int) *Engine {
	e := &Engine{
		costs:  costs,
		seq1:   seq1,
		seq2:   seq2,
		enc1:   enc1,
		enc2:   enc2,
		matrix: newMatrix(len(seq1), len(seq2), costs.GapCost()),
	}
	if len(seq1) == 0 || len(seq2) == 0 {
		// No interior cells: start terminal.
		e.cursor = Cursor{Row: len(seq1) + 1, Col: 1}
	} else {
		e.cursor = Cursor{Row: 1, Col: 1}
	}
	return e
}

// Matrix returns the matrix being filled. Callers must not retain it across
// a session reset.
func (e *Engine) Matrix() *Matrix {
	return e.matrix
}

// Cursor returns the next cell to fill.
func (e *Engine) Cursor() Cursor {
	return e.cursor
}

// HistoryLen returns the number of undoable steps.
func (e *Engine) HistoryLen() int {
	return len(e.history)
}

// Done reports whether the cursor has passed the last cell.
func (e *Engine) Done() bool {
	return e.cursor.Row > len(e.seq1)
}

// Step fills the cell under the cursor, explains the choice and advances.
// Stepping a completed matrix is a no-op reported through the outcome.
func (e *Engine) Step() StepOutcome {
	if e.Done() {
		return e.completedOutcome()
	}
	return e.step(true)
}

// Finish fills every remaining cell without explanations.
func (e *Engine) Finish() FinalOutcome {
	out, _ := e.FinishContext(context.Background())
	return out
}

// FinishContext is Finish with cancellation checked once per row.
// On cancellation the cells filled so far stay filled and undoable.
func (e *Engine) FinishContext(ctx context.Context) (FinalOutcome, error) {
	e.history = slices.Grow(e.history, e.remaining())
	for !e.Done() {
		if e.cursor.Col == 1 {
			if err := ctx.Err(); err != nil {
				return FinalOutcome{}, err
			}
		}
		e.step(false)
	}
	score, _ := e.matrix.Score(len(e.seq1), len(e.seq2))
	return FinalOutcome{Score: score}, nil
}

// Undo restores the most recently computed cell and moves the cursor back
// onto it.
func (e *Engine) Undo() (UndoOutcome, error) {
	if len(e.history) == 0 {
		return UndoOutcome{}, ErrNoHistory
	}

	last := len(e.history) - 1
	entry := e.history[last]
	e.history = e.history[:last]

	row, col := int(entry.row), int(entry.col)
	e.matrix.put(row, col, entry.previous)
	e.cursor = Cursor{Row: row, Col: col}

	return UndoOutcome{
		Row:           row,
		Col:           col,
		RestoredScore: entry.previous.score,
		RestoredSet:   entry.previous.set,
	}, nil
}

func (e *Engine) step(explain bool) StepOutcome {
	i, j := e.cursor.Row, e.cursor.Col

	e.history = append(e.history, historyEntry{row: int32(i), col: int32(j), previous: e.matrix.cellAt(i, j)})

	ev := e.matrix.evaluate(i, j, e.costs, e.enc1, e.enc2)
	e.matrix.put(i, j, cell{score: ev.score, set: true, decision: ev.decision})

	out := StepOutcome{
		Row:      i,
		Col:      j,
		Score:    ev.score,
		Decision: ev.decision,
		Advanced: true,
	}
	if explain {
		out.Explanation = e.explain(i, j, ev)
	}

	e.advance()
	out.IsComplete = e.Done()
	return out
}

// remaining returns the number of interior cells not yet filled.
func (e *Engine) remaining() int {
	if e.Done() {
		return 0
	}
	n := len(e.seq2)
	return (len(e.seq1)-e.cursor.Row)*n + n - e.cursor.Col + 1
}

// advance moves the cursor one cell in row-major order, wrapping to
// column 1 of the next row.
func (e *Engine) advance() {
	e.cursor.Col++
	if e.cursor.Col > len(e.seq2) {
		e.cursor.Col = 1
		e.cursor.Row++
	}
}

func (e *Engine) completedOutcome() StepOutcome {
	m, n := len(e.seq1), len(e.seq2)
	score, _ := e.matrix.Score(m, n)
	explanation := completeText
	if m == 0 || n == 0 {
		explanation = boundaryText
	}
	return StepOutcome{
		Row:         m,
		Col:         n,
		Score:       score,
		Decision:    e.matrix.Decision(m, n),
		Explanation: explanation,
		IsComplete:  true,
	}
}

// explain names every winning operation at (i, j).
func (e *Engine) explain(i, j int, ev evaluation) string {
	parts := make([]string, 0, 3)
	for _, dir := range ev.decision.Directions() {
		switch dir {
		case Diagonal:
			parts = append(parts, fmt.Sprintf("Match/mismatch between %c and %c. Cost: %s.",
				e.seq1[i-1], e.seq2[j-1], formatCost(ev.subCost)))
		case Up:
			parts = append(parts, deletionText)
		case Left:
			parts = append(parts, insertionText)
		}
	}
	return strings.Join(parts, " | ")
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseCost(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cost %q", s)
	}
	return v, nil
}
