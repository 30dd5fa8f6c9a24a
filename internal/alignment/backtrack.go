package alignment

import "fmt"

// GapChar marks a gap in an aligned sequence.
const GapChar = '-'

// AlignmentPair is one optimal alignment as two equal-length rows.
type AlignmentPair struct {
	Seq1 string
	Seq2 string
}

// Backtracker enumerates every maximum-score path through a completed
// Matrix. It never mutates the matrix, so concurrent Enumerate calls are
// safe as long as nothing steps or undoes meanwhile.
type Backtracker struct {
	matrix *Matrix
	costs  *CostModel
	seq1   string
	seq2   string
	enc1   []int
	enc2   []int
}

// NewBacktracker returns a Backtracker over the engine's current matrix.
func NewBacktracker(e *Engine) *Backtracker {
	return &Backtracker{
		matrix: e.matrix,
		costs:  e.costs,
		seq1:   e.seq1,
		seq2:   e.seq2,
		enc1:   e.enc1,
		enc2:   e.enc2,
	}
}

// column is one aligned column while building.
type column struct {
	a, b       byte
	gapA, gapB bool
}

// frame is a pending DFS visit: reach (i, j) having emitted depth columns,
// the last of which is col.
type frame struct {
	i, j  int
	depth int
	col   column
}

// Enumerate returns every optimal alignment, diagonal moves explored before
// up, and up before left. A limit greater than zero stops after that many
// alignments.
//
// Each move is re-verified against the scores: a recorded direction whose
// predecessor does not reproduce the cell's score is ignored, and a cell
// left without any consistent predecessor fails with ErrInconsistentMatrix.
func (b *Backtracker) Enumerate(limit int) ([]AlignmentPair, error) {
	if !b.matrix.Complete() {
		return nil, fmt.Errorf("%w: %d of %d cells filled",
			ErrIncompleteMatrix, b.matrix.Filled(), b.matrix.InteriorCells())
	}

	m, n := len(b.seq1), len(b.seq2)
	path := make([]column, m+n)
	results := make([]AlignmentPair, 0, 1)

	stack := []frame{{i: m, j: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > 0 {
			path[f.depth-1] = f.col
		}
		if f.i == 0 && f.j == 0 {
			results = append(results, render(path[:f.depth]))
			if limit > 0 && len(results) >= limit {
				break
			}
			continue
		}

		next, err := b.predecessors(f)
		if err != nil {
			return nil, err
		}
		// Push in reverse so diagonal is popped first.
		for k := len(next) - 1; k >= 0; k-- {
			stack = append(stack, next[k])
		}
	}

	return results, nil
}

// predecessors returns the verified moves out of f's cell.
func (b *Backtracker) predecessors(f frame) ([]frame, error) {
	i, j := f.i, f.j
	score, set := b.matrix.Score(i, j)
	if !set {
		return nil, fmt.Errorf("%w: cell (%d,%d) is unset", ErrIncompleteMatrix, i, j)
	}

	decision := b.matrix.Decision(i, j)
	next := make([]frame, 0, 3)
	for _, dir := range decision.Directions() {
		var (
			pi, pj int
			cost   float64
			col    column
		)
		switch dir {
		case Diagonal:
			pi, pj = i-1, j-1
			if pi < 0 || pj < 0 {
				continue
			}
			cost = b.costs.costAt(b.enc1[i-1], b.enc2[j-1])
			col = column{a: b.seq1[i-1], b: b.seq2[j-1]}
		case Up:
			pi, pj = i-1, j
			if pi < 0 {
				continue
			}
			cost = b.costs.GapCost()
			col = column{a: b.seq1[i-1], gapB: true}
		case Left:
			pi, pj = i, j-1
			if pj < 0 {
				continue
			}
			cost = b.costs.GapCost()
			col = column{gapA: true, b: b.seq2[j-1]}
		}

		prev, ok := b.matrix.Score(pi, pj)
		if !ok || prev+cost != score {
			continue
		}
		next = append(next, frame{i: pi, j: pj, depth: f.depth + 1, col: col})
	}

	if len(next) == 0 {
		return nil, fmt.Errorf("%w: no predecessor reproduces cell (%d,%d)", ErrInconsistentMatrix, i, j)
	}
	return next, nil
}

// render turns a path collected from the end back into two rows.
func render(path []column) AlignmentPair {
	a := make([]byte, len(path))
	b := make([]byte, len(path))
	for k, col := range path {
		at := len(path) - 1 - k
		a[at], b[at] = col.a, col.b
		if col.gapA {
			a[at] = GapChar
		}
		if col.gapB {
			b[at] = GapChar
		}
	}
	return AlignmentPair{Seq1: string(a), Seq2: string(b)}
}

// Dedup removes repeated pairs, keeping first occurrences in order.
func Dedup(pairs []AlignmentPair) []AlignmentPair {
	seen := make(map[AlignmentPair]struct{}, len(pairs))
	out := make([]AlignmentPair, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
