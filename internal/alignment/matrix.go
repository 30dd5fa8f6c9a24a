package alignment

import (
	"fmt"
	"math"
	"strings"
)

// Direction is one of the three transitions into a cell.
type Direction uint8

const (
	// Diagonal represents a match or substitution
	Diagonal Direction = 1 << iota
	// Up represents a gap in sequence 2 (consumes sequence 1)
	Up
	// Left represents a gap in sequence 1 (consumes sequence 2)
	Left
)

var directionOrder = [...]Direction{Diagonal, Up, Left}

func (d Direction) String() string {
	switch d {
	case Diagonal:
		return "diagonal"
	case Up:
		return "up"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Decision is the set of directions that attain a cell's score.
// Ties are kept, so a Decision may hold several directions.
type Decision uint8

// Has reports whether d contains dir.
func (d Decision) Has(dir Direction) bool {
	return d&Decision(dir) != 0
}

// Directions lists the members of d in diagonal, up, left order.
func (d Decision) Directions() []Direction {
	dirs := make([]Direction, 0, 3)
	for _, dir := range directionOrder {
		if d.Has(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// IsEmpty reports whether no direction is recorded.
func (d Decision) IsEmpty() bool {
	return d == 0
}

func (d Decision) String() string {
	if d == 0 {
		return "none"
	}
	dirs := d.Directions()
	names := make([]string, len(dirs))
	for i, dir := range dirs {
		names[i] = dir.String()
	}
	return strings.Join(names, "|")
}

// Matrix is the (m+1) x (n+1) score table with per-cell decisions.
//
// Row 0 and column 0 are boundary cells filled at construction; interior
// cells start unset. Cells are stored row-major.
type Matrix struct {
	rows, cols int
	scores     []float64
	set        []bool
	decisions  []Decision
	filled     int // interior cells currently set
}

// CheckCells reports whether sequences of length m and n fit within
// maxCells interior cells. maxCells <= 0 means no cap. Lengths beyond the
// engine's int32 coordinates are always rejected.
func CheckCells(m, n, maxCells int) error {
	if m > math.MaxInt32 || n > math.MaxInt32 {
		return fmt.Errorf("%w: sequence length exceeds %d", ErrMatrixTooLarge, math.MaxInt32)
	}
	if maxCells <= 0 || m == 0 || n == 0 {
		return nil
	}
	if m > maxCells/n {
		return fmt.Errorf("%w: %dx%d needs more than %d cells", ErrMatrixTooLarge, m, n, maxCells)
	}
	return nil
}

// newMatrix allocates a matrix for sequences of length m and n and fills
// the boundary. Boundary scores are accumulated one gap at a time so that
// every boundary cell equals its predecessor plus the gap cost exactly.
func newMatrix(m, n int, gapCost float64) *Matrix {
	rows, cols := m+1, n+1
	mat := &Matrix{
		rows:      rows,
		cols:      cols,
		scores:    make([]float64, rows*cols),
		set:       make([]bool, rows*cols),
		decisions: make([]Decision, rows*cols),
	}

	mat.set[0] = true
	for i := 1; i < rows; i++ {
		k := mat.at(i, 0)
		mat.scores[k] = mat.scores[mat.at(i-1, 0)] + gapCost
		mat.set[k] = true
		mat.decisions[k] = Decision(Up)
	}
	for j := 1; j < cols; j++ {
		k := mat.at(0, j)
		mat.scores[k] = mat.scores[mat.at(0, j-1)] + gapCost
		mat.set[k] = true
		mat.decisions[k] = Decision(Left)
	}

	return mat
}

func (m *Matrix) at(i, j int) int {
	return i*m.cols + j
}

func (m *Matrix) inBounds(i, j int) bool {
	return i >= 0 && j >= 0 && i < m.rows && j < m.cols
}

// Rows returns len(seq1)+1.
func (m *Matrix) Rows() int {
	return m.rows
}

// Cols returns len(seq2)+1.
func (m *Matrix) Cols() int {
	return m.cols
}

// Score returns the score at (i, j) and whether it is set.
// Out-of-range coordinates report unset.
func (m *Matrix) Score(i, j int) (float64, bool) {
	if !m.inBounds(i, j) {
		return 0, false
	}
	k := m.at(i, j)
	return m.scores[k], m.set[k]
}

// Decision returns the recorded decision at (i, j).
func (m *Matrix) Decision(i, j int) Decision {
	if !m.inBounds(i, j) {
		return 0
	}
	return m.decisions[m.at(i, j)]
}

// InteriorCells returns the number of cells the engine has to fill.
func (m *Matrix) InteriorCells() int {
	return (m.rows - 1) * (m.cols - 1)
}

// Filled returns the number of interior cells currently set.
func (m *Matrix) Filled() int {
	return m.filled
}

// Complete reports whether every interior cell is set.
func (m *Matrix) Complete() bool {
	return m.filled == m.InteriorCells()
}

// Snapshot copies the scores into a grid. Unset cells are nil.
func (m *Matrix) Snapshot() [][]*float64 {
	grid := make([][]*float64, m.rows)
	for i := range grid {
		grid[i] = make([]*float64, m.cols)
		for j := range grid[i] {
			k := m.at(i, j)
			if m.set[k] {
				v := m.scores[k]
				grid[i][j] = &v
			}
		}
	}
	return grid
}

// cell is the full state of one matrix cell, used for history.
type cell struct {
	score    float64
	set      bool
	decision Decision
}

func (m *Matrix) cellAt(i, j int) cell {
	k := m.at(i, j)
	return cell{score: m.scores[k], set: m.set[k], decision: m.decisions[k]}
}

// put overwrites an interior cell and keeps the filled count current.
func (m *Matrix) put(i, j int, c cell) {
	k := m.at(i, j)
	if c.set && c.decision.IsEmpty() {
		panic("alignment: set cell without decision")
	}
	if m.set[k] && !c.set {
		m.filled--
	} else if !m.set[k] && c.set {
		m.filled++
	}
	if !c.set {
		c.score, c.decision = 0, 0
	}
	m.scores[k] = c.score
	m.set[k] = c.set
	m.decisions[k] = c.decision
}

// candidate is one of the three competing transitions into a cell.
type candidate struct {
	dir   Direction
	value float64
}

// evaluation is the outcome of the recurrence at one cell.
type evaluation struct {
	score    float64
	decision Decision
	subCost  float64
}

// evaluate applies the recurrence at interior cell (i, j). s1 and s2 are
// the alphabet-encoded sequences. Only candidates whose source cell lies
// inside the matrix take part; every source must already be set.
func (m *Matrix) evaluate(i, j int, costs *CostModel, s1, s2 []int) evaluation {
	var (
		cands [3]candidate
		n     int
		ev    evaluation
	)

	if m.inBounds(i-1, j-1) {
		ev.subCost = costs.costAt(s1[i-1], s2[j-1])
		cands[n] = candidate{Diagonal, m.source(i-1, j-1) + ev.subCost}
		n++
	}
	if m.inBounds(i-1, j) {
		cands[n] = candidate{Up, m.source(i-1, j) + costs.GapCost()}
		n++
	}
	if m.inBounds(i, j-1) {
		cands[n] = candidate{Left, m.source(i, j-1) + costs.GapCost()}
		n++
	}
	if n == 0 {
		panic("alignment: evaluate called on the origin")
	}

	ev.score = cands[0].value
	for _, c := range cands[1:n] {
		if c.value > ev.score {
			ev.score = c.value
		}
	}
	// Exact equality: every tying direction is kept for backtracking.
	for _, c := range cands[:n] {
		if c.value == ev.score {
			ev.decision |= Decision(c.dir)
		}
	}
	return ev
}

func (m *Matrix) source(i, j int) float64 {
	k := m.at(i, j)
	if !m.set[k] {
		panic("alignment: recurrence read an unset cell")
	}
	return m.scores[k]
}
