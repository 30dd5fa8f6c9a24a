package alignment

import (
	"fmt"
	"strings"
)

// Alignment represents one optimal global alignment with its score.
type Alignment struct {
	AlignedSeq1 string
	AlignedSeq2 string
	Score       float64
	Identity    float64
}

// NewAlignment creates a new alignment result.
func NewAlignment(aligned1, aligned2 string, score float64) (*Alignment, error) {
	if len(aligned1) != len(aligned2) {
		return nil, fmt.Errorf("aligned sequences must have equal length")
	}

	a := &Alignment{
		AlignedSeq1: aligned1,
		AlignedSeq2: aligned2,
		Score:       score,
	}
	a.Identity = a.calculateIdentity()
	return a, nil
}

// FromPairs wraps enumerated pairs as alignments sharing one score.
func FromPairs(pairs []AlignmentPair, score float64) []*Alignment {
	out := make([]*Alignment, 0, len(pairs))
	for _, p := range pairs {
		// Backtracker rows always have equal length.
		a, _ := NewAlignment(p.Seq1, p.Seq2, score)
		out = append(out, a)
	}
	return out
}

// Pair returns the two aligned rows.
func (a *Alignment) Pair() AlignmentPair {
	return AlignmentPair{Seq1: a.AlignedSeq1, Seq2: a.AlignedSeq2}
}

// calculateIdentity calculates the sequence identity.
func (a *Alignment) calculateIdentity() float64 {
	if len(a.AlignedSeq1) == 0 {
		return 0.0
	}
	return float64(a.MatchCount()) / float64(len(a.AlignedSeq1))
}

// Length returns the length of the alignment.
func (a *Alignment) Length() int {
	return len(a.AlignedSeq1)
}

// MatchCount returns the number of matches.
func (a *Alignment) MatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] == a.AlignedSeq2[i] && a.AlignedSeq1[i] != GapChar {
			count++
		}
	}
	return count
}

// MismatchCount returns the number of substitutions.
func (a *Alignment) MismatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] != a.AlignedSeq2[i] &&
			a.AlignedSeq1[i] != GapChar && a.AlignedSeq2[i] != GapChar {
			count++
		}
	}
	return count
}

// GapsSeq1 returns the number of gaps in sequence 1.
func (a *Alignment) GapsSeq1() int {
	return strings.Count(a.AlignedSeq1, string(GapChar))
}

// GapsSeq2 returns the number of gaps in sequence 2.
func (a *Alignment) GapsSeq2() int {
	return strings.Count(a.AlignedSeq2, string(GapChar))
}

// TotalGaps returns the total number of gaps.
func (a *Alignment) TotalGaps() int {
	return a.GapsSeq1() + a.GapsSeq2()
}

// GapOpenings counts the number of gap openings.
func (a *Alignment) GapOpenings() int {
	openings := 0
	inGap1, inGap2 := false, false

	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] == GapChar && !inGap1 {
			openings++
			inGap1 = true
		} else if a.AlignedSeq1[i] != GapChar {
			inGap1 = false
		}

		if a.AlignedSeq2[i] == GapChar && !inGap2 {
			openings++
			inGap2 = true
		} else if a.AlignedSeq2[i] != GapChar {
			inGap2 = false
		}
	}

	return openings
}

// PathCost re-derives the score implied by the alignment under costs,
// summing column costs left to right the way the recurrence accumulates
// them. A column with two gaps, or an unknown symbol, is an error.
func (a *Alignment) PathCost(costs *CostModel) (float64, error) {
	total := 0.0
	for i := 0; i < len(a.AlignedSeq1); i++ {
		c1, c2 := a.AlignedSeq1[i], a.AlignedSeq2[i]
		switch {
		case c1 == GapChar && c2 == GapChar:
			return 0, fmt.Errorf("column %d: gap aligned to gap", i)
		case c1 == GapChar || c2 == GapChar:
			total += costs.GapCost()
		default:
			cost, err := costs.CostOf(c1, c2)
			if err != nil {
				return 0, fmt.Errorf("column %d: %w", i, err)
			}
			total += cost
		}
	}
	return total, nil
}

// Ungapped returns the two input sequences recovered by stripping gaps.
func (a *Alignment) Ungapped() (string, string) {
	gap := string(GapChar)
	return strings.ReplaceAll(a.AlignedSeq1, gap, ""), strings.ReplaceAll(a.AlignedSeq2, gap, "")
}

// ToCIGAR generates a CIGAR string representation.
func (a *Alignment) ToCIGAR() string {
	if len(a.AlignedSeq1) == 0 {
		return ""
	}

	var cigar strings.Builder
	currentOp := byte(0)
	count := 0

	for i := 0; i < len(a.AlignedSeq1); i++ {
		var op byte
		if a.AlignedSeq1[i] == GapChar {
			op = 'I' // Insertion
		} else if a.AlignedSeq2[i] == GapChar {
			op = 'D' // Deletion
		} else if a.AlignedSeq1[i] == a.AlignedSeq2[i] {
			op = 'M' // Match
		} else {
			op = 'X' // Mismatch
		}

		if op == currentOp {
			count++
		} else {
			if count > 0 {
				cigar.WriteString(fmt.Sprintf("%d%c", count, currentOp))
			}
			currentOp = op
			count = 1
		}
	}

	if count > 0 {
		cigar.WriteString(fmt.Sprintf("%d%c", count, currentOp))
	}

	return cigar.String()
}

// Format returns a formatted string representation of the alignment.
func (a *Alignment) Format() string {
	var matchLine strings.Builder
	for i := 0; i < len(a.AlignedSeq1); i++ {
		if a.AlignedSeq1[i] == a.AlignedSeq2[i] && a.AlignedSeq1[i] != GapChar {
			matchLine.WriteByte('|')
		} else if a.AlignedSeq1[i] == GapChar || a.AlignedSeq2[i] == GapChar {
			matchLine.WriteByte(' ')
		} else {
			matchLine.WriteByte('.')
		}
	}

	return fmt.Sprintf("Seq1: %s\n      %s\nSeq2: %s\nScore: %s\nIdentity: %.1f%%\nCIGAR: %s",
		a.AlignedSeq1, matchLine.String(), a.AlignedSeq2,
		formatCost(a.Score), a.Identity*100, a.ToCIGAR())
}

func (a *Alignment) String() string {
	return fmt.Sprintf("Alignment { score: %s, identity: %.1f%%, length: %d }",
		formatCost(a.Score), a.Identity*100, a.Length())
}

// PercentIdentity calculates percent identity between two aligned sequences.
func PercentIdentity(aligned1, aligned2 string) (float64, error) {
	if len(aligned1) != len(aligned2) {
		return 0, fmt.Errorf("aligned sequences must have equal length")
	}
	if len(aligned1) == 0 {
		return 0, fmt.Errorf("aligned sequences cannot be empty")
	}

	matches := 0
	for i := 0; i < len(aligned1); i++ {
		if aligned1[i] == aligned2[i] && aligned1[i] != GapChar {
			matches++
		}
	}

	return float64(matches) / float64(len(aligned1)) * 100.0, nil
}
