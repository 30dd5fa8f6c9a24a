// Package stepalign provides a high-level API for step-wise global
// sequence alignment.
//
// A Session fills the Needleman-Wunsch score matrix one cell at a time,
// explaining each choice, and can undo any number of steps. Once complete it
// enumerates every optimal alignment, including all tie paths.
//
// Example usage:
//
//	session, err := stepalign.NewSession(
//	    stepalign.NewSequence("AATAAT"),
//	    stepalign.NewSequence("AAGG"),
//	    stepalign.DefaultCosts(-5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := session.Step()
//	fmt.Println(out.Explanation)
//
//	final, _ := session.Finish()
//	pairs, _ := session.EnumerateOptimalAlignments(0)
//	fmt.Println(final.Score, pairs)
package stepalign

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"golang.org/x/sync/errgroup"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// Re-export types for convenience
type (
	Sequence      = sequence.Sequence
	CostModel     = alignment.CostModel
	Session       = alignment.Session
	State         = alignment.State
	Alignment     = alignment.Alignment
	AlignmentPair = alignment.AlignmentPair
	StepOutcome   = alignment.StepOutcome
	FinalOutcome  = alignment.FinalOutcome
	UndoOutcome   = alignment.UndoOutcome
	Decision      = alignment.Decision
	Direction     = alignment.Direction
	Cursor        = alignment.Cursor
	Matrix        = alignment.Matrix

	IndexedAlignment = alignment.IndexedAlignment
)

// Constants
const (
	Initialized = alignment.Initialized
	Stepping    = alignment.Stepping
	Complete    = alignment.Complete

	Diagonal = alignment.Diagonal
	Up       = alignment.Up
	Left     = alignment.Left

	GapChar        = alignment.GapChar
	DefaultGapCost = alignment.DefaultGapCost
)

// Errors
var (
	ErrInvalidAlphabet    = alignment.ErrInvalidAlphabet
	ErrMalformedMatrix    = alignment.ErrMalformedMatrix
	ErrNoHistory          = alignment.ErrNoHistory
	ErrIncompleteMatrix   = alignment.ErrIncompleteMatrix
	ErrAlreadyComplete    = alignment.ErrAlreadyComplete
	ErrInconsistentMatrix = alignment.ErrInconsistentMatrix
	ErrMatrixTooLarge     = alignment.ErrMatrixTooLarge
)

// NewSequence creates a normalized sequence. Empty input is allowed.
func NewSequence(bases string) *Sequence {
	return sequence.New(bases)
}

// NewSequenceWithID creates a new sequence with an identifier.
func NewSequenceWithID(bases, id string) (*Sequence, error) {
	return sequence.WithID(bases, id)
}

// DefaultCosts returns the A,C,G,T cost model with the given gap cost.
func DefaultCosts(gapCost float64) *CostModel {
	return alignment.DefaultNucleotide(gapCost)
}

// NewCostModel creates a cost model over symbols, listed in matrix order.
func NewCostModel(symbols string, gapCost float64, substitution [][]float64) (*CostModel, error) {
	return alignment.NewCostModel(symbols, gapCost, substitution)
}

// ParseMatrix parses substitution matrix text such as "10 2; 2 10".
func ParseMatrix(text string) ([][]float64, error) {
	return alignment.ParseSubstitutionMatrix(text)
}

// CheckCells reports ErrMatrixTooLarge when sequences of length m and n
// need more than maxCells interior cells. maxCells <= 0 means no cap.
func CheckCells(m, n, maxCells int) error {
	return alignment.CheckCells(m, n, maxCells)
}

// NewSession configures a stepping session. A nil costs uses
// DefaultCosts(DefaultGapCost).
func NewSession(seq1, seq2 *Sequence, costs *CostModel) (*Session, error) {
	return alignment.NewSession(seq1, seq2, costs)
}

// Align returns the first optimal global alignment.
func Align(seq1, seq2 *Sequence, costs *CostModel) (*Alignment, error) {
	return alignment.NeedlemanWunsch(seq1, seq2, costs)
}

// AlignAll returns every optimal global alignment, at most limit when
// limit > 0.
func AlignAll(seq1, seq2 *Sequence, costs *CostModel, limit int) ([]*Alignment, error) {
	return alignment.AlignAll(seq1, seq2, costs, limit)
}

// AlignAgainstMultiple aligns query against every target and returns the
// first optimal alignment for each, in target order.
func AlignAgainstMultiple(query *Sequence, targets []*Sequence, costs *CostModel) ([]IndexedAlignment, error) {
	return alignment.AlignAgainstMultiple(query, targets, costs)
}

// FindBestAlignment returns the highest scoring target for query.
func FindBestAlignment(query *Sequence, targets []*Sequence, costs *CostModel) (*IndexedAlignment, error) {
	return alignment.FindBestAlignment(query, targets, costs)
}

// BestOf picks the highest scoring result, the earliest on ties.
func BestOf(results []IndexedAlignment) *IndexedAlignment {
	return alignment.BestOf(results)
}

// Score returns the optimal global score without keeping the matrix.
func Score(seq1, seq2 *Sequence, costs *CostModel) (float64, error) {
	return alignment.GlobalScoreOnly(seq1, seq2, costs)
}

// ReadFASTA reads sequences from a FASTA file.
func ReadFASTA(filename string) ([]*Sequence, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return ParseFASTA(file)
}

// ParseFASTA parses FASTA records from a reader. Records keep their ID and
// description; residues are upper-cased.
func ParseFASTA(r io.Reader) ([]*Sequence, error) {
	template := linear.NewSeq("", nil, alphabet.DNA)
	sc := seqio.NewScanner(fasta.NewReader(r, template))

	sequences := make([]*Sequence, 0)
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected record type %T", sc.Seq())
		}
		sequences = append(sequences, sequence.WithMetadata(string(s.Seq), s.ID, s.Desc))
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading FASTA: %w", err)
	}

	return sequences, nil
}

// WriteFASTA writes sequences to a FASTA file.
func WriteFASTA(filename string, sequences []*Sequence) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	for _, seq := range sequences {
		if _, err := file.WriteString(seq.ToFASTA()); err != nil {
			return fmt.Errorf("writing sequence: %w", err)
		}
	}

	return nil
}

// Pair is one batch input.
type Pair struct {
	Seq1 *Sequence
	Seq2 *Sequence
}

// BatchResult is the outcome for the pair at Index.
type BatchResult struct {
	Index      int
	Score      float64
	Alignments []*Alignment
}

// AlignBatch aligns independent pairs concurrently, each in its own
// session, with at most workers running at once (workers <= 0 means one per
// pair). Results are returned in input order. The first failure cancels the
// remaining work.
func AlignBatch(ctx context.Context, pairs []Pair, costs *CostModel, workers, limit int) ([]BatchResult, error) {
	results := make([]BatchResult, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			session, err := alignment.NewSession(p.Seq1, p.Seq2, costs)
			if err != nil {
				return fmt.Errorf("pair %d: %w", i, err)
			}
			final, err := session.FinishContext(ctx)
			if err != nil {
				return fmt.Errorf("pair %d: %w", i, err)
			}
			alignments, err := session.Alignments(limit)
			if err != nil {
				return fmt.Errorf("pair %d: %w", i, err)
			}
			results[i] = BatchResult{Index: i, Score: final.Score, Alignments: alignments}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Version returns the stepalign version.
func Version() string {
	return "1.0.0"
}

// Info returns information about stepalign.
func Info() string {
	return fmt.Sprintf(`stepalign v%s - Step-wise Global Sequence Alignment

Features:
  - Needleman-Wunsch global alignment with arbitrary substitution matrices
  - Cell-by-cell stepping with explanations and unlimited undo
  - Enumeration of every optimal alignment, ties included
  - FASTA input and concurrent batch alignment
`, Version())
}
