package alignment

import (
	"fmt"

	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// NeedlemanWunsch performs global alignment and returns the first optimal
// alignment in diagonal-up-left order.
//
// Aligns the entire length of both sequences. Either may be empty.
func NeedlemanWunsch(seq1, seq2 *sequence.Sequence, costs *CostModel) (*Alignment, error) {
	session, err := NewSession(seq1, seq2, costs)
	if err != nil {
		return nil, err
	}
	if _, err := session.Finish(); err != nil {
		return nil, err
	}

	alignments, err := session.Alignments(1)
	if err != nil {
		return nil, err
	}
	return alignments[0], nil
}

// AlignAll performs global alignment and returns every optimal alignment,
// capped at limit when limit > 0.
func AlignAll(seq1, seq2 *sequence.Sequence, costs *CostModel, limit int) ([]*Alignment, error) {
	session, err := NewSession(seq1, seq2, costs)
	if err != nil {
		return nil, err
	}
	if _, err := session.Finish(); err != nil {
		return nil, err
	}
	return session.Alignments(limit)
}

// IndexedAlignment pairs an alignment with its index.
type IndexedAlignment struct {
	Index     int
	Alignment *Alignment
}

// AlignAgainstMultiple globally aligns a query against multiple targets.
func AlignAgainstMultiple(query *sequence.Sequence, targets []*sequence.Sequence,
	costs *CostModel) ([]IndexedAlignment, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("target list cannot be empty")
	}

	results := make([]IndexedAlignment, len(targets))
	for i, target := range targets {
		alignment, err := NeedlemanWunsch(query, target, costs)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		results[i] = IndexedAlignment{Index: i, Alignment: alignment}
	}

	return results, nil
}

// FindBestAlignment finds the highest scoring target.
func FindBestAlignment(query *sequence.Sequence, targets []*sequence.Sequence,
	costs *CostModel) (*IndexedAlignment, error) {
	alignments, err := AlignAgainstMultiple(query, targets, costs)
	if err != nil {
		return nil, err
	}
	return BestOf(alignments), nil
}

// BestOf returns the highest scoring result, the earliest on ties, or nil
// for an empty slice.
func BestOf(results []IndexedAlignment) *IndexedAlignment {
	if len(results) == 0 {
		return nil
	}
	best := results[0]
	for _, a := range results[1:] {
		if a.Alignment.Score > best.Alignment.Score {
			best = a
		}
	}
	return &best
}

// GlobalScoreOnly calculates the global alignment score without traceback.
//
// Uses O(n) space instead of O(m*n) by only keeping two rows. The result
// equals the final score of a Session over the same inputs.
func GlobalScoreOnly(seq1, seq2 *sequence.Sequence, costs *CostModel) (float64, error) {
	if costs == nil {
		costs = DefaultNucleotide(DefaultGapCost)
	}

	s1, err := costs.Encode("sequence1", seq1)
	if err != nil {
		return 0, err
	}
	s2, err := costs.Encode("sequence2", seq2)
	if err != nil {
		return 0, err
	}

	m, n := len(s1), len(s2)
	gap := costs.GapCost()

	prevRow := make([]float64, n+1)
	currRow := make([]float64, n+1)

	// Initialize first row
	for j := 1; j <= n; j++ {
		prevRow[j] = prevRow[j-1] + gap
	}

	for i := 1; i <= m; i++ {
		currRow[0] = prevRow[0] + gap

		for j := 1; j <= n; j++ {
			diag := prevRow[j-1] + costs.costAt(s1[i-1], s2[j-1])
			up := prevRow[j] + gap
			left := currRow[j-1] + gap

			currRow[j] = max(diag, max(up, left))
		}

		prevRow, currRow = currRow, prevRow
	}

	return prevRow[n], nil
}
