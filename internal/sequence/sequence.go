// Package sequence provides the nucleotide sequence type fed to the aligner.
//
// A Sequence is an ordered run of single-byte symbols. Membership in a
// particular alphabet is not enforced here: the cost model an alignment is
// configured with decides which symbols are legal, and reports offending
// positions through Validate.
package sequence

import (
	"fmt"
	"strings"
)

// Nucleotides is the alphabet the default cost model is defined over.
const Nucleotides = "ACGT"

// Sequence represents a normalized symbol sequence with optional FASTA metadata.
//
// Unlike most sequence containers, an empty Sequence is valid: aligning
// against the empty string is a well-defined boundary case.
type Sequence struct {
	Bases       string
	ID          string
	Description string
}

// New creates a sequence from raw text, upper-casing it and dropping
// surrounding whitespace.
func New(bases string) *Sequence {
	return &Sequence{Bases: normalize(bases)}
}

// WithID creates a new sequence with an identifier.
func WithID(bases, id string) (*Sequence, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("ID cannot be empty")
	}

	seq := New(bases)
	seq.ID = id
	return seq, nil
}

// WithMetadata creates a new sequence with full metadata.
func WithMetadata(bases, id, description string) *Sequence {
	return &Sequence{
		Bases:       normalize(bases),
		ID:          id,
		Description: description,
	}
}

// NewNucleotide creates a sequence and checks it against Nucleotides.
func NewNucleotide(bases string) (*Sequence, error) {
	seq := New(bases)
	if err := seq.Validate(Nucleotides); err != nil {
		return nil, err
	}
	return seq, nil
}

func normalize(bases string) string {
	return strings.ToUpper(strings.TrimSpace(bases))
}

// Len returns the length of the sequence.
func (s *Sequence) Len() int {
	return len(s.Bases)
}

// IsEmpty reports whether the sequence has no symbols.
func (s *Sequence) IsEmpty() bool {
	return len(s.Bases) == 0
}

// BaseAt returns the symbol at a specific index, or false if out of bounds.
func (s *Sequence) BaseAt(index int) (byte, bool) {
	if index < 0 || index >= len(s.Bases) {
		return 0, false
	}
	return s.Bases[index], true
}

// Validate checks that every symbol is a member of alphabet.
// The first offending symbol is reported as an *InvalidBaseError.
func (s *Sequence) Validate(alphabet string) error {
	for i := 0; i < len(s.Bases); i++ {
		if strings.IndexByte(alphabet, s.Bases[i]) < 0 {
			return &InvalidBaseError{Position: i, Found: rune(s.Bases[i])}
		}
	}
	return nil
}

// Label returns the ID, or fallback when the sequence is anonymous.
func (s *Sequence) Label(fallback string) string {
	if s.ID != "" {
		return s.ID
	}
	return fallback
}

// ToFASTA returns the sequence in FASTA format.
func (s *Sequence) ToFASTA() string {
	var header string
	if s.ID != "" {
		header = ">" + s.ID
		if s.Description != "" {
			header += " " + s.Description
		}
	} else {
		header = ">sequence"
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteRune('\n')

	// Split sequence into 80-character lines
	for i := 0; i < len(s.Bases); i += 80 {
		end := i + 80
		if end > len(s.Bases) {
			end = len(s.Bases)
		}
		sb.WriteString(s.Bases[i:end])
		sb.WriteRune('\n')
	}

	return sb.String()
}

// String returns a string representation of the sequence.
func (s *Sequence) String() string {
	if s.ID != "" {
		return fmt.Sprintf(">%s\n%s", s.ID, s.Bases)
	}
	return s.Bases
}

// Equal checks equality with another sequence.
func (s *Sequence) Equal(other *Sequence) bool {
	if other == nil {
		return false
	}
	return s.Bases == other.Bases
}
