// Package stats provides aggregate summaries over input sequences and
// alignment results.
package stats

import (
	"fmt"
	"sort"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// LengthStats summarizes the lengths of a sequence set.
type LengthStats struct {
	Count      int
	TotalBases int
	MinLength  int
	MaxLength  int
	MeanLength float64
	// MedianLength is the mean of the two middle values for even counts.
	MedianLength float64
}

// FromSequences calculates length statistics for a collection of sequences.
func FromSequences(sequences []*sequence.Sequence) (*LengthStats, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("sequence list cannot be empty")
	}

	lengths := make([]float64, len(sequences))
	total := 0
	for i, seq := range sequences {
		lengths[i] = float64(seq.Len())
		total += seq.Len()
	}
	lo, hi := bounds(lengths)

	return &LengthStats{
		Count:        len(sequences),
		TotalBases:   total,
		MinLength:    int(lo),
		MaxLength:    int(hi),
		MeanLength:   float64(total) / float64(len(sequences)),
		MedianLength: median(lengths),
	}, nil
}

func (s *LengthStats) String() string {
	return fmt.Sprintf("%d sequences, %d bases, length %d-%d (mean %.1f, median %.1f)",
		s.Count, s.TotalBases, s.MinLength, s.MaxLength, s.MeanLength, s.MedianLength)
}

// Result is the outcome of aligning one pair.
type Result struct {
	Score      float64
	Alignments []*alignment.Alignment
}

// BatchStats summarizes the scores and tie structure of many alignments.
type BatchStats struct {
	Pairs       int
	MinScore    float64
	MaxScore    float64
	MeanScore   float64
	MedianScore float64
	// TotalOptimal counts every enumerated alignment across all pairs.
	TotalOptimal int
	// TiedPairs counts pairs with more than one optimal alignment.
	TiedPairs int
	// MeanIdentity averages the identity of each pair's first alignment.
	MeanIdentity float64
}

// FromResults calculates statistics for a batch of alignment results.
func FromResults(results []Result) (*BatchStats, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("result list cannot be empty")
	}

	scores := make([]float64, len(results))
	var (
		sum      float64
		identity float64
		withAln  int
		total    int
		tied     int
	)
	for i, r := range results {
		scores[i] = r.Score
		sum += r.Score
		total += len(r.Alignments)
		if len(r.Alignments) > 1 {
			tied++
		}
		if len(r.Alignments) > 0 {
			identity += r.Alignments[0].Identity
			withAln++
		}
	}

	lo, hi := bounds(scores)
	stats := &BatchStats{
		Pairs:        len(results),
		MinScore:     lo,
		MaxScore:     hi,
		MeanScore:    sum / float64(len(results)),
		MedianScore:  median(scores),
		TotalOptimal: total,
		TiedPairs:    tied,
	}
	if withAln > 0 {
		stats.MeanIdentity = identity / float64(withAln)
	}
	return stats, nil
}

func (s *BatchStats) String() string {
	return fmt.Sprintf("%d pairs, score %g to %g (mean %.2f, median %g), %d optimal alignments, %d tied pairs, mean identity %.1f%%",
		s.Pairs, s.MinScore, s.MaxScore, s.MeanScore, s.MedianScore,
		s.TotalOptimal, s.TiedPairs, s.MeanIdentity*100)
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
