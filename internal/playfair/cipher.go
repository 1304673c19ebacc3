package playfair

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the bigram count above which a Cipher spreads
// the transform over several goroutines.
const DefaultParallelThreshold = 4096

type options struct {
	foldJ             bool
	filler            rune
	parallelThreshold int
	workers           int
}

func defaultOptions() options {
	return options{
		foldJ:             true,
		filler:            DefaultFiller,
		parallelThreshold: DefaultParallelThreshold,
	}
}

// Option customises a Cipher.
type Option func(*options)

// WithFoldJ controls whether J is read as I. Only true produces a usable
// 5x5 grid.
func WithFoldJ(fold bool) Option {
	return func(o *options) {
		o.foldJ = fold
	}
}

// WithFiller sets the letter used to split doubled letters and pad odd
// messages. Zero restores DefaultFiller.
func WithFiller(filler rune) Option {
	return func(o *options) {
		if filler == 0 {
			filler = DefaultFiller
		}
		o.filler = filler
	}
}

// WithParallelism sets the bigram threshold for parallel transforms and the
// number of workers. A threshold <= 0 disables parallelism; workers <= 0
// means GOMAXPROCS.
func WithParallelism(threshold, workers int) Option {
	return func(o *options) {
		o.parallelThreshold = threshold
		o.workers = workers
	}
}

// Cipher holds the key square and index for one keyword. It is immutable
// and may be shared freely between goroutines.
type Cipher struct {
	keyword string
	grid    Grid
	index   *PositionIndex
	opts    options
}

// New builds the key square for keyword.
func New(keyword string, opts ...Option) (*Cipher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	grid, err := BuildGrid(keyword, o.foldJ)
	if err != nil {
		return nil, err
	}
	return newCipher(keyword, grid, o)
}

// NewFromGrid builds a Cipher around a key square supplied by the caller,
// such as one decoded by ParseGrid. The grid is re-validated, so a square
// with a repeated or missing letter yields ErrMalformedGrid. A grid that
// keeps J alongside I is used as is and J is never folded.
func NewFromGrid(g Grid, opts ...Option) (*Cipher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newCipher("", g, o)
}

func newCipher(keyword string, grid Grid, o options) (*Cipher, error) {
	idx, err := NewPositionIndex(grid)
	if err != nil {
		return nil, err
	}
	if _, ok := idx.Lookup(o.filler); !ok {
		return nil, &LetterError{Letter: o.filler, Offset: -1, Source: "filler"}
	}
	if _, ok := idx.Lookup(alternateFiller(o.filler)); !ok {
		return nil, &LetterError{Letter: alternateFiller(o.filler), Offset: -1, Source: "alternate filler"}
	}
	return &Cipher{keyword: keyword, grid: grid, index: idx, opts: o}, nil
}

// Keyword returns the keyword the grid was built from.
func (c *Cipher) Keyword() string { return c.keyword }

// Grid returns a copy of the key square.
func (c *Cipher) Grid() Grid { return c.grid }

// Index returns the shared position index.
func (c *Cipher) Index() *PositionIndex { return c.index }

// Filler returns the configured filler letter.
func (c *Cipher) Filler() rune { return c.opts.filler }

// FoldJ reports whether J is read as I.
func (c *Cipher) FoldJ() bool { return c.opts.foldJ }

// Segment validates message against the grid and splits it into bigrams.
// With J folded, every J is read as I before segmentation.
func (c *Cipher) Segment(message string) ([]Bigram, error) {
	runes := []rune(message)
	if len(runes) == 0 {
		return nil, ErrEmptyMessage
	}
	for i, r := range runes {
		folded := r
		if _, ok := c.index.Lookup(r); !ok {
			folded = fold(r, c.opts.foldJ)
		}
		if _, ok := c.index.Lookup(folded); !ok {
			return nil, &LetterError{Letter: r, Offset: i, Source: "message"}
		}
		runes[i] = folded
	}
	return Segment(string(runes), c.opts.filler)
}

// Encrypt segments plaintext and encrypts every bigram.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	return c.transform(plaintext, EncryptPair)
}

// Decrypt segments ciphertext and decrypts every bigram. Filler letters
// inserted at encryption time remain in the output.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	return c.transform(ciphertext, DecryptPair)
}

type pairFunc func(Bigram, Grid, *PositionIndex) (Bigram, error)

func (c *Cipher) transform(message string, fn pairFunc) (string, error) {
	bigrams, err := c.Segment(message)
	if err != nil {
		return "", err
	}
	out, err := c.apply(bigrams, fn)
	if err != nil {
		return "", err
	}
	return Join(out), nil
}

func (c *Cipher) apply(in []Bigram, fn pairFunc) ([]Bigram, error) {
	out := make([]Bigram, len(in))
	if c.opts.parallelThreshold <= 0 || len(in) < c.opts.parallelThreshold {
		if err := c.applyRange(context.Background(), in, out, 0, len(in), fn); err != nil {
			return nil, err
		}
		return out, nil
	}

	workers := c.opts.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(in) + workers - 1) / workers

	// The first failing chunk cancels ctx and the others stop early.
	g, ctx := errgroup.WithContext(context.Background())
	for start := 0; start < len(in); start += chunk {
		end := min(start+chunk, len(in))
		g.Go(func() error {
			return c.applyRange(ctx, in, out, start, end, fn)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cipher) applyRange(ctx context.Context, in, out []Bigram, start, end int, fn pairFunc) error {
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := fn(in[i], c.grid, c.index)
		if err != nil {
			return err
		}
		out[i] = b
	}
	return nil
}

// EncryptMessage builds a Cipher for keyword and encrypts plaintext.
func EncryptMessage(plaintext, keyword string, opts ...Option) (string, error) {
	c, err := New(keyword, opts...)
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext)
}

// DecryptMessage builds a Cipher for keyword and decrypts ciphertext.
func DecryptMessage(ciphertext, keyword string, opts ...Option) (string, error) {
	c, err := New(keyword, opts...)
	if err != nil {
		return "", err
	}
	return c.Decrypt(ciphertext)
}
