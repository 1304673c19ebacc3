package playfair

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAlphabetSize is returned when the configured alphabet cannot
	// populate a 5x5 grid exactly.
	ErrInvalidAlphabetSize = errors.New("playfair: alphabet does not fit a 5x5 grid")
	// ErrMalformedGrid is returned for grids with duplicate letters, empty
	// cells, or a non-rectangular shape.
	ErrMalformedGrid = errors.New("playfair: malformed grid")
	// ErrUnknownLetter is returned when a letter is absent from the grid.
	ErrUnknownLetter = errors.New("playfair: unknown letter")
	// ErrEmptyMessage is returned for zero-length messages.
	ErrEmptyMessage = errors.New("playfair: empty message")
)

// LetterError reports a character that has no place in the grid.
type LetterError struct {
	Letter rune
	// Offset is the rune offset within Source, or -1 when unknown.
	Offset int
	Source string
}

func (e *LetterError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %q in %s", ErrUnknownLetter, e.Letter, e.Source)
	}
	return fmt.Sprintf("%s: %q at offset %d in %s", ErrUnknownLetter, e.Letter, e.Offset, e.Source)
}

func (e *LetterError) Unwrap() error {
	return ErrUnknownLetter
}
