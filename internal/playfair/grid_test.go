package playfair

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildGrid_Superspy(t *testing.T) {
	grid, err := BuildGrid("SUPERSPY", true)
	require.NoError(t, err)
	require.Equal(t, []string{"SUPER", "YABCD", "FGHIK", "LMNOQ", "TVWXZ"}, grid.Rows())
}

func TestBuildGrid_Completeness(t *testing.T) {
	keywords := []string{"", "A", "SUPERSPY", "PLAYFAIREXAMPLE", "JJJ", "ZYXWVUTSRQPONMLKJIHGFEDCBA", "MONARCHY"}
	for _, kw := range keywords {
		t.Run(kw, func(t *testing.T) {
			grid, err := BuildGrid(kw, true)
			require.NoError(t, err)

			seen := make(map[rune]int)
			for _, row := range grid {
				for _, r := range row {
					seen[r]++
				}
			}
			require.Len(t, seen, Size*Size)
			require.NotContains(t, seen, 'J')
			for r, n := range seen {
				require.Equalf(t, 1, n, "letter %q placed %d times", r, n)
			}
		})
	}
}

func TestBuildGrid_KeywordOrder(t *testing.T) {
	grid, err := BuildGrid("PLAYFAIREXAMPLE", true)
	require.NoError(t, err)
	require.Equal(t, []string{"PLAYF", "IREXM", "BCDGH", "KNOQS", "TUVWZ"}, grid.Rows())

	plain, err := BuildGrid("", true)
	require.NoError(t, err)
	require.Equal(t, []string{"ABCDE", "FGHIK", "LMNOP", "QRSTU", "VWXYZ"}, plain.Rows())
}

func TestBuildGrid_FoldsJIntoI(t *testing.T) {
	withJ, err := BuildGrid("JAM", true)
	require.NoError(t, err)
	withI, err := BuildGrid("IAM", true)
	require.NoError(t, err)
	require.Equal(t, withI, withJ)
}

func TestBuildGrid_Errors(t *testing.T) {
	_, err := BuildGrid("SUPERSPY", false)
	require.ErrorIs(t, err, ErrInvalidAlphabetSize)

	_, err = BuildGrid("super", true)
	require.ErrorIs(t, err, ErrUnknownLetter)
	var le *LetterError
	require.True(t, errors.As(err, &le))
	require.Equal(t, 's', le.Letter)
	require.Equal(t, 0, le.Offset)
	require.Equal(t, "keyword", le.Source)

	_, err = BuildGrid("TOP SECRET", true)
	require.ErrorIs(t, err, ErrUnknownLetter)
}

func TestParseGrid(t *testing.T) {
	rows := []string{"SUPER", "YABCD", "FGHIK", "LMNOQ", "TVWXZ"}
	grid, err := ParseGrid(rows)
	require.NoError(t, err)
	want, err := BuildGrid("SUPERSPY", true)
	require.NoError(t, err)
	require.Equal(t, want, grid)

	lower, err := ParseGrid([]string{"super", " yabcd", "fghik ", "lmnoq", "tvwxz"})
	require.NoError(t, err)
	require.Equal(t, want, lower)

	tests := []struct {
		name string
		rows []string
	}{
		{"too few rows", rows[:4]},
		{"short row", []string{"SUPER", "YABC", "FGHIK", "LMNOQ", "TVWXZ"}},
		{"duplicate letter", []string{"SUPER", "YABCD", "FGHIK", "LMNOQ", "TVWXS"}},
		{"digit cell", []string{"SUPER", "YABCD", "FGHIK", "LMNOQ", "TVWX9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGrid(tt.rows)
			require.ErrorIs(t, err, ErrMalformedGrid)
		})
	}
}

func TestGridString(t *testing.T) {
	grid, err := BuildGrid("", true)
	require.NoError(t, err)
	require.Equal(t, "A B C D E\nF G H I K\nL M N O P\nQ R S T U\nV W X Y Z", grid.String())
}
