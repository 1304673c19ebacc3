package playfair

import "fmt"

// PositionIndex maps each grid letter to its cell. It is read-only once built
// and safe to share between goroutines.
type PositionIndex struct {
	pos [26]Position
	set [26]bool
	n   int
}

// NewPositionIndex indexes every cell of g. A letter that appears twice, or
// a cell that does not hold A-Z, yields ErrMalformedGrid.
func NewPositionIndex(g Grid) (*PositionIndex, error) {
	idx := &PositionIndex{}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			letter := g[r][c]
			if !isLetter(letter) {
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %q", ErrMalformedGrid, r, c, letter)
			}
			if idx.set[letter-'A'] {
				prev := idx.pos[letter-'A']
				return nil, fmt.Errorf("%w: %q at (%d,%d) and (%d,%d)", ErrMalformedGrid, letter, prev.Row, prev.Col, r, c)
			}
			idx.set[letter-'A'] = true
			idx.pos[letter-'A'] = Position{Row: r, Col: c}
			idx.n++
		}
	}
	return idx, nil
}

// Lookup returns the cell holding letter.
func (x *PositionIndex) Lookup(letter rune) (Position, bool) {
	if x == nil || !isLetter(letter) || !x.set[letter-'A'] {
		return Position{}, false
	}
	return x.pos[letter-'A'], true
}

// Len reports the number of indexed letters.
func (x *PositionIndex) Len() int {
	if x == nil {
		return 0
	}
	return x.n
}
