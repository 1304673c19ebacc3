package playfair

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	superspyCiphertext = "IKEWENENXLNQLPZSLERUMRHEERYBOFNEINCHCV"
	superspyPlaintext  = "HIPXPOPOTOMONSTROSESQUIPPEDALIOPHOBIAX"
)

func mustIndex(t *testing.T, keyword string) (Grid, *PositionIndex) {
	t.Helper()
	grid, err := BuildGrid(keyword, true)
	require.NoError(t, err)
	idx, err := NewPositionIndex(grid)
	require.NoError(t, err)
	return grid, idx
}

func TestDecryptMessage_Superspy(t *testing.T) {
	got, err := DecryptMessage(superspyCiphertext, "SUPERSPY")
	require.NoError(t, err)
	require.Equal(t, superspyPlaintext, got)
}

func TestEncryptMessage_KnownVectors(t *testing.T) {
	tests := []struct {
		keyword    string
		plaintext  string
		ciphertext string
	}{
		{"PLAYFAIREXAMPLE", "HIDETHEGOLDINTHETREESTUMP", "BMODZBXDNABEKUDMUIXMMOUVIF"},
		{"MONARCHY", "ATTACKATDAWN", "RSSRDERSBRNY"},
		{"SUPERSPY", superspyPlaintext, superspyCiphertext},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			got, err := EncryptMessage(tt.plaintext, tt.keyword)
			require.NoError(t, err)
			require.Equal(t, tt.ciphertext, got)
		})
	}
}

func TestPairs_Wraparound(t *testing.T) {
	grid, idx := mustIndex(t, "SUPERSPY")

	tests := []struct {
		name   string
		in     string
		dec    string
		reason string
	}{
		{"same row wraps column 0 to 4", "SU", "RS", "S sits in column 0"},
		{"same column wraps row 0 to 4", "SY", "TS", "S sits in row 0"},
		{"rectangle swaps columns", "SA", "UY", "no shared row or column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Bigram{rune(tt.in[0]), rune(tt.in[1])}
			dec, err := DecryptPair(in, grid, idx)
			require.NoError(t, err)
			require.Equal(t, tt.dec, dec.String(), tt.reason)

			enc, err := EncryptPair(dec, grid, idx)
			require.NoError(t, err)
			require.Equal(t, tt.in, enc.String())
		})
	}
}

func TestPairs_RectangleSelfInverse(t *testing.T) {
	grid, idx := mustIndex(t, "PLAYFAIREXAMPLE")
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			pa, okA := idx.Lookup(a)
			pb, okB := idx.Lookup(b)
			if !okA || !okB || pa.Row == pb.Row || pa.Col == pb.Col {
				continue
			}
			in := Bigram{a, b}
			enc, err := EncryptPair(in, grid, idx)
			require.NoError(t, err)
			dec, err := DecryptPair(enc, grid, idx)
			require.NoError(t, err)
			require.Equal(t, in, dec)

			dec2, err := DecryptPair(in, grid, idx)
			require.NoError(t, err)
			require.Equal(t, enc, dec2)
		}
	}
}

func TestPairs_UnknownLetter(t *testing.T) {
	grid, idx := mustIndex(t, "SUPERSPY")
	_, err := DecryptPair(Bigram{'A', 'J'}, grid, idx)
	require.ErrorIs(t, err, ErrUnknownLetter)
	_, err = EncryptPair(Bigram{'?', 'A'}, grid, idx)
	require.ErrorIs(t, err, ErrUnknownLetter)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := New("PLAYFAIREXAMPLE")
	require.NoError(t, err)

	plaintexts := []string{
		"HIDETHEGOLDINTHETREESTUMP",
		"MEETMEATTHEUSUALPLACE",
		"BALLOON",
		"XXX",
		"Z",
	}
	for _, p := range plaintexts {
		t.Run(p, func(t *testing.T) {
			enc, err := c.Encrypt(p)
			require.NoError(t, err)
			dec, err := c.Decrypt(enc)
			require.NoError(t, err)

			bigrams, err := c.Segment(p)
			require.NoError(t, err)
			require.Equal(t, Join(bigrams), dec)
		})
	}
}

func TestCipher_FoldsJInMessage(t *testing.T) {
	c, err := New("SUPERSPY")
	require.NoError(t, err)

	withJ, err := c.Encrypt("JUMP")
	require.NoError(t, err)
	withI, err := c.Encrypt("IUMP")
	require.NoError(t, err)
	require.Equal(t, withI, withJ)
}

func TestCipher_Errors(t *testing.T) {
	c, err := New("SUPERSPY")
	require.NoError(t, err)

	_, err = c.Decrypt("")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.Decrypt("IKEW ENEN")
	require.ErrorIs(t, err, ErrUnknownLetter)
	var le *LetterError
	require.True(t, errors.As(err, &le))
	require.Equal(t, ' ', le.Letter)
	require.Equal(t, 4, le.Offset)
	require.Equal(t, "message", le.Source)

	_, err = c.Encrypt("hello")
	require.ErrorIs(t, err, ErrUnknownLetter)

	_, err = New("SUPERSPY", WithFoldJ(false))
	require.ErrorIs(t, err, ErrInvalidAlphabetSize)

	_, err = DecryptMessage(superspyCiphertext, "SUPERSPY", WithFoldJ(false))
	require.ErrorIs(t, err, ErrInvalidAlphabetSize)

	_, err = New("SUPERSPY", WithFiller('J'))
	require.ErrorIs(t, err, ErrUnknownLetter)
}

func TestCipher_Accessors(t *testing.T) {
	c, err := New("SUPERSPY", WithFiller('Z'))
	require.NoError(t, err)
	require.Equal(t, "SUPERSPY", c.Keyword())
	require.Equal(t, 'Z', c.Filler())
	require.True(t, c.FoldJ())
	require.Equal(t, Size*Size, c.Index().Len())
	require.Equal(t, "SUPER", c.Grid().Rows()[0])
}

func TestCipher_ParallelMatchesSequential(t *testing.T) {
	message := strings.Repeat("THEQUICKBROWNFOXIUMPSOVERTHELAZYDOG", 200)

	seq, err := New("SUPERSPY", WithParallelism(0, 0))
	require.NoError(t, err)
	par, err := New("SUPERSPY", WithParallelism(16, 7))
	require.NoError(t, err)

	wantEnc, err := seq.Encrypt(message)
	require.NoError(t, err)
	gotEnc, err := par.Encrypt(message)
	require.NoError(t, err)
	require.Equal(t, wantEnc, gotEnc)

	wantDec, err := seq.Decrypt(wantEnc)
	require.NoError(t, err)
	gotDec, err := par.Decrypt(gotEnc)
	require.NoError(t, err)
	require.Equal(t, wantDec, gotDec)
}

func TestCipher_ConcurrentUse(t *testing.T) {
	c, err := New("SUPERSPY")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 32)
	errs := make([]error, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Decrypt(superspyCiphertext)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, superspyPlaintext, results[i])
	}
}

func TestNewFromGrid(t *testing.T) {
	grid, err := ParseGrid([]string{"SUPER", "YABCD", "FGHIK", "LMNOQ", "TVWXZ"})
	require.NoError(t, err)

	c, err := NewFromGrid(grid)
	require.NoError(t, err)
	got, err := c.Decrypt(superspyCiphertext)
	require.NoError(t, err)
	require.Equal(t, superspyPlaintext, got)
	require.Empty(t, c.Keyword())
}

func TestNewFromGrid_KeepsJ(t *testing.T) {
	// K is dropped instead of J, so J stands for itself.
	grid, err := ParseGrid([]string{"ABCDE", "FGHIJ", "LMNOP", "QRSTU", "VWXYZ"})
	require.NoError(t, err)

	c, err := NewFromGrid(grid)
	require.NoError(t, err)
	enc, err := c.Encrypt("JI")
	require.NoError(t, err)
	require.Equal(t, "FJ", enc)
	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, "JI", dec)

	_, err = c.Encrypt("KA")
	require.ErrorIs(t, err, ErrUnknownLetter)
}

func TestNewFromGrid_RejectsMalformed(t *testing.T) {
	var grid Grid
	copy(grid[0][:], []rune("SUPER"))
	copy(grid[1][:], []rune("YABCD"))
	copy(grid[2][:], []rune("FGHIK"))
	copy(grid[3][:], []rune("LMNOQ"))
	copy(grid[4][:], []rune("TVWXS"))

	_, err := NewFromGrid(grid)
	require.ErrorIs(t, err, ErrMalformedGrid)

	_, err = NewFromGrid(Grid{})
	require.ErrorIs(t, err, ErrMalformedGrid)
}

func TestCipher_ParallelStopsOnFirstError(t *testing.T) {
	c, err := New("SUPERSPY", WithParallelism(1, 2))
	require.NoError(t, err)

	boom := errors.New("boom")
	in := make([]Bigram, 2000)
	for i := range in {
		in[i] = Bigram{'A', 'B'}
	}
	in[0] = Bigram{'Z', 'Y'}

	var calls atomic.Int64
	fn := func(b Bigram, _ Grid, _ *PositionIndex) (Bigram, error) {
		if b == (Bigram{'Z', 'Y'}) {
			return Bigram{}, boom
		}
		calls.Add(1)
		time.Sleep(100 * time.Microsecond)
		return b, nil
	}

	out, err := c.apply(in, fn)
	require.ErrorIs(t, err, boom)
	require.Nil(t, out)
	require.Less(t, calls.Load(), int64(len(in)/2), "second chunk should stop once the first fails")
}
