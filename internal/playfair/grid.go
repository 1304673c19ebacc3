package playfair

import (
	"fmt"
	"strings"
)

// Size is the width and height of a Playfair grid.
const Size = 5

// Position locates a letter within a Grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is a 5x5 key square. The zero value is not a valid grid.
type Grid [Size][Size]rune

// BuildGrid derives the key square for keyword. The keyword's letters are
// placed in first-seen order followed by the rest of the alphabet. Keywords
// must be uppercase A-Z; an empty keyword yields the plain alphabet square.
//
// foldJ must be true: without folding J into I the alphabet has 26 letters
// and cannot fill 25 cells.
func BuildGrid(keyword string, foldJ bool) (Grid, error) {
	if !foldJ {
		return Grid{}, fmt.Errorf("%w: 26 letters for %d cells", ErrInvalidAlphabetSize, Size*Size)
	}

	var (
		grid Grid
		seen [26]bool
		n    int
	)
	place := func(r rune) {
		if seen[r-'A'] {
			return
		}
		seen[r-'A'] = true
		grid[n/Size][n%Size] = r
		n++
	}

	for i, r := range []rune(keyword) {
		if !isLetter(r) {
			return Grid{}, &LetterError{Letter: r, Offset: i, Source: "keyword"}
		}
		place(fold(r, foldJ))
	}
	for r := 'A'; r <= 'Z' && n < Size*Size; r++ {
		if foldJ && r == 'J' {
			continue
		}
		place(r)
	}
	return grid, nil
}

// ParseGrid builds a Grid from five rows of five letters, as produced by
// Grid.Rows. Letters are uppercased. It is meant for grids arriving from outside the process and
// rejects anything that is not a complete, duplicate-free square.
func ParseGrid(rows []string) (Grid, error) {
	if len(rows) != Size {
		return Grid{}, fmt.Errorf("%w: %d rows, want %d", ErrMalformedGrid, len(rows), Size)
	}
	var grid Grid
	for r, row := range rows {
		cells := []rune(strings.ToUpper(strings.TrimSpace(row)))
		if len(cells) != Size {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedGrid, r, len(cells), Size)
		}
		copy(grid[r][:], cells)
	}
	if _, err := NewPositionIndex(grid); err != nil {
		return Grid{}, err
	}
	return grid, nil
}

// At returns the letter at p, wrapping both coordinates.
func (g Grid) At(p Position) rune {
	return g[wrap(p.Row)][wrap(p.Col)]
}

// Rows renders each row as a five letter string.
func (g Grid) Rows() []string {
	rows := make([]string, Size)
	for i := range g {
		rows[i] = string(g[i][:])
	}
	return rows
}

func (g Grid) String() string {
	var b strings.Builder
	for i := range g {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, r := range g[i] {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func fold(r rune, foldJ bool) rune {
	if foldJ && r == 'J' {
		return 'I'
	}
	return r
}

func wrap(i int) int {
	return ((i % Size) + Size) % Size
}
