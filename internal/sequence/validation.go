package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// InvalidBaseError is returned when a symbol outside the alphabet is encountered.
type InvalidBaseError struct {
	Position int
	Found    rune
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidBaseError) IsSequenceError() {}

// InvalidLengthError is returned when a sequence exceeds a configured limit.
type InvalidLengthError struct {
	Max    int
	Actual int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("sequence length %d exceeds limit %d", e.Actual, e.Max)
}

func (e *InvalidLengthError) IsSequenceError() {}

// CheckLength returns an *InvalidLengthError when seq is longer than max.
// A max of zero or less disables the check.
func CheckLength(seq *Sequence, max int) error {
	if max > 0 && seq.Len() > max {
		return &InvalidLengthError{Max: max, Actual: seq.Len()}
	}
	return nil
}

// IsNucleotide checks if a character is one of A, C, G, T.
func IsNucleotide(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}
