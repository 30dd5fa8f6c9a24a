// Package alignment provides step-wise global sequence alignment.
//
// The package implements a Needleman-Wunsch style dynamic program with a
// maximization objective, a linear gap cost and an arbitrary square
// substitution matrix. The matrix can be filled one cell at a time with
// full undo, or in bulk, and every optimal alignment can be enumerated from
// the completed matrix.
package alignment

import (
	"fmt"
	"math"
	"strings"

	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// DefaultGapCost is the gap cost used by DefaultNucleotide. Costs are added
// in a maximization, so a penalty is negative.
const DefaultGapCost = -5.0

// CostModel describes substitution and gap costs over a fixed alphabet.
//
// A CostModel is immutable once built and safe for concurrent readers.
type CostModel struct {
	alphabet     string
	index        [256]int
	gapCost      float64
	substitution [][]float64
}

// NewCostModel creates a cost model with validation.
//
// alphabet lists the symbols in matrix order; substitution[i][j] is the
// cost of aligning alphabet[i] against alphabet[j]. The alphabet is
// upper-cased like sequence input, so "acgt" and "ACGT" are the same model.
// The gap marker and whitespace are not symbols. The matrix is copied.
func NewCostModel(alphabet string, gapCost float64, substitution [][]float64) (*CostModel, error) {
	alphabet, err := NormalizeAlphabet(alphabet)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(gapCost) || math.IsInf(gapCost, 0) {
		return nil, fmt.Errorf("gap cost must be finite, got %v", gapCost)
	}

	c := &CostModel{alphabet: alphabet, gapCost: gapCost}
	for i := range c.index {
		c.index[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c.index[alphabet[i]] = i
	}

	n := len(alphabet)
	if len(substitution) != n {
		return nil, &MatrixShapeError{Row: -1, Want: n, Got: len(substitution)}
	}
	c.substitution = make([][]float64, n)
	for i, row := range substitution {
		if len(row) != n {
			return nil, &MatrixShapeError{Row: i, Want: n, Got: len(row)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: cell (%d,%d) is not finite", ErrMalformedMatrix, i, j)
			}
		}
		c.substitution[i] = append([]float64(nil), row...)
	}

	return c, nil
}

// NormalizeAlphabet upper-cases alphabet the way sequence input is
// normalized and checks that every symbol is usable: non-empty, no
// duplicates, and no gap marker, whitespace or control bytes.
func NormalizeAlphabet(alphabet string) (string, error) {
	alphabet = strings.ToUpper(alphabet)
	if len(alphabet) == 0 {
		return "", fmt.Errorf("%w: alphabet cannot be empty", ErrInvalidAlphabet)
	}

	var seen [256]bool
	for i := 0; i < len(alphabet); i++ {
		sym := alphabet[i]
		switch {
		case sym == GapChar:
			return "", fmt.Errorf("%w: '%c' is the gap marker", ErrInvalidAlphabet, sym)
		case sym <= ' ' || sym == 0x7f:
			return "", fmt.Errorf("%w: whitespace or control byte %#02x at position %d",
				ErrInvalidAlphabet, sym, i)
		case seen[sym]:
			return "", fmt.Errorf("%w: duplicate symbol '%c'", ErrInvalidAlphabet, sym)
		}
		seen[sym] = true
	}
	return alphabet, nil
}

// DefaultNucleotide creates the standard A,C,G,T model: match 10,
// transition (A<->G, C<->T) 5, transversion 2.
func DefaultNucleotide(gapCost float64) *CostModel {
	c, err := NewCostModel(sequence.Nucleotides, gapCost, DefaultSubstitution())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultSubstitution returns a fresh copy of the default nucleotide table.
func DefaultSubstitution() [][]float64 {
	return [][]float64{
		{10, 2, 5, 2},
		{2, 10, 2, 5},
		{5, 2, 10, 2},
		{2, 5, 2, 10},
	}
}

// Alphabet returns the symbols in matrix order.
func (c *CostModel) Alphabet() string {
	return c.alphabet
}

// Size returns the alphabet size.
func (c *CostModel) Size() int {
	return len(c.alphabet)
}

// GapCost returns the linear gap cost.
func (c *CostModel) GapCost() float64 {
	return c.gapCost
}

// Index returns the dense index of a symbol.
func (c *CostModel) Index(symbol byte) (int, bool) {
	i := c.index[symbol]
	return i, i >= 0
}

// CostOf returns the substitution cost of aligning a against b.
// Unknown symbols fail with an error wrapping ErrInvalidAlphabet.
func (c *CostModel) CostOf(a, b byte) (float64, error) {
	i, ok := c.Index(a)
	if !ok {
		return 0, &InvalidSymbolError{Found: a}
	}
	j, ok := c.Index(b)
	if !ok {
		return 0, &InvalidSymbolError{Found: b}
	}
	return c.substitution[i][j], nil
}

// costAt looks up by pre-validated indices.
func (c *CostModel) costAt(i, j int) float64 {
	return c.substitution[i][j]
}

// Substitution returns a copy of the substitution table.
func (c *CostModel) Substitution() [][]float64 {
	out := make([][]float64, len(c.substitution))
	for i, row := range c.substitution {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Encode maps seq onto alphabet indices. name labels the sequence in errors.
func (c *CostModel) Encode(name string, seq *sequence.Sequence) ([]int, error) {
	out := make([]int, seq.Len())
	for p := 0; p < seq.Len(); p++ {
		i, ok := c.Index(seq.Bases[p])
		if !ok {
			return nil, &InvalidSymbolError{Sequence: name, Position: p, Found: seq.Bases[p]}
		}
		out[p] = i
	}
	return out, nil
}

// String returns a string representation of the cost model.
func (c *CostModel) String() string {
	return fmt.Sprintf("CostModel { alphabet: %s, gap: %s, matrix: %s }",
		c.alphabet, formatCost(c.gapCost), FormatSubstitutionMatrix(c.substitution))
}

// ParseSubstitutionMatrix parses the text form "10 2 5 2; 2 10 2 5; ...".
// Rows are separated by ';' or newlines, cells by whitespace. Blank rows are
// ignored. The result is not checked for squareness; NewCostModel does that.
func ParseSubstitutionMatrix(text string) ([][]float64, error) {
	rows := strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == '\n'
	})

	matrix := make([][]float64, 0, len(rows))
	for _, raw := range rows {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := parseCost(f)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedMatrix, len(matrix), err)
			}
			row[j] = v
		}
		matrix = append(matrix, row)
	}

	if len(matrix) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedMatrix)
	}
	return matrix, nil
}

// FormatSubstitutionMatrix renders a table in the form accepted by
// ParseSubstitutionMatrix.
func FormatSubstitutionMatrix(matrix [][]float64) string {
	rows := make([]string, len(matrix))
	for i, row := range matrix {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatCost(v)
		}
		rows[i] = strings.Join(cells, " ")
	}
	return strings.Join(rows, "; ")
}
