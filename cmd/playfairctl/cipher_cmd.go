package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/config"
	"github.com/RowanDark/playfair/internal/playfair"
)

type cipherFlags struct {
	keyword string
	grid    string
	filler  string
	raw     bool
	group   int
}

func (f *cipherFlags) register(fs *flag.FlagSet, cfg config.Config) {
	fs.StringVar(&f.keyword, "k", "", "keyword (shorthand)")
	fs.StringVar(&f.keyword, "keyword", "", "keyword the key square is built from")
	fs.StringVar(&f.grid, "grid", "", "explicit key square as five rows of five letters, separated by spaces, commas or slashes")
	fs.StringVar(&f.filler, "filler", cfg.Filler, "letter used to split doubled letters and pad odd messages")
	fs.BoolVar(&f.raw, "raw", false, "pass the text through unchanged instead of normalizing it to A-Z")
	fs.IntVar(&f.group, "group", 0, "split the output into blocks of this many letters")
}

func (f *cipherFlags) cipher(cfg config.Config) (*playfair.Cipher, error) {
	filler, err := letter(f.filler)
	if err != nil {
		return nil, fmt.Errorf("filler: %w", err)
	}
	opts := append(cfg.CipherOptions(), playfair.WithFiller(filler))
	if strings.TrimSpace(f.grid) != "" {
		if f.keyword != "" {
			return nil, errKeywordAndGrid
		}
		grid, err := playfair.ParseGrid(splitRows(f.grid))
		if err != nil {
			return nil, err
		}
		return playfair.NewFromGrid(grid, opts...)
	}
	keyword := strings.ToUpper(f.keyword)
	if !f.raw {
		keyword = playfair.Normalize(f.keyword, cfg.FoldJ)
	}
	return playfair.New(keyword, opts...)
}

var errKeywordAndGrid = errors.New("-keyword and -grid are mutually exclusive")

func splitRows(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/'
	})
}

func runEncrypt(args []string) int {
	return runTransform("encrypt", args, (*playfair.Cipher).Encrypt)
}

func runDecrypt(args []string) int {
	return runTransform("decrypt", args, (*playfair.Cipher).Decrypt)
}

func runTransform(name string, args []string, fn func(*playfair.Cipher, string) (string, error)) int {
	cfg, ok := loadConfig()
	if !ok {
		return 1
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f cipherFlags
	f.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if f.group < 0 {
		fmt.Fprintln(stderr, "--group must not be negative")
		return 2
	}

	text, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !f.raw {
		text = playfair.Normalize(text, cfg.FoldJ)
	}

	c, err := f.cipher(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return exitCode(err)
	}
	out, err := fn(c, text)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return exitCode(err)
	}
	if f.group > 0 {
		out, err = groupOutput(out, f.group)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 1
		}
	}
	fmt.Fprintln(stdout, out)
	return 0
}

func groupOutput(text string, size int) (string, error) {
	op, ok := cipher.GetOperation("group_five")
	if !ok {
		return "", fmt.Errorf("%w: group_five", cipher.ErrUnknownOperation)
	}
	out, err := op.Execute(context.Background(), []byte(text), map[string]any{"size": size})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// exitCode reports input errors as 2 and everything else as 1.
func exitCode(err error) int {
	switch {
	case errors.Is(err, playfair.ErrUnknownLetter),
		errors.Is(err, playfair.ErrEmptyMessage),
		errors.Is(err, playfair.ErrInvalidAlphabetSize),
		errors.Is(err, playfair.ErrMalformedGrid),
		errors.Is(err, errKeywordAndGrid):
		return 2
	default:
		return 1
	}
}

func runGrid(args []string) int {
	cfg, ok := loadConfig()
	if !ok {
		return 1
	}
	fs := flag.NewFlagSet("grid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f cipherFlags
	f.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if f.keyword == "" && fs.NArg() == 1 {
		f.keyword = fs.Arg(0)
	} else if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "grid takes at most one keyword argument")
		return 2
	}
	c, err := f.cipher(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "grid: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintln(stdout, c.Grid().String())
	return 0
}

func runSegment(args []string) int {
	cfg, ok := loadConfig()
	if !ok {
		return 1
	}
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f cipherFlags
	f.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !f.raw {
		text = playfair.Normalize(text, cfg.FoldJ)
	}
	c, err := f.cipher(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "segment: %v\n", err)
		return exitCode(err)
	}
	bigrams, err := c.Segment(text)
	if err != nil {
		fmt.Fprintf(stderr, "segment: %v\n", err)
		return exitCode(err)
	}
	parts := make([]string, len(bigrams))
	for i, b := range bigrams {
		parts[i] = b.String()
	}
	fmt.Fprintln(stdout, strings.Join(parts, " "))
	return 0
}

func runNormalize(args []string) int {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keepJ := fs.Bool("keep-j", false, "leave J as J instead of folding it into I")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, playfair.Normalize(text, !*keepJ))
	return 0
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	results, err := cipher.NewPlayfairDetector().Detect(context.Background(), []byte(text))
	if err != nil {
		fmt.Fprintf(stderr, "detect: %v\n", err)
		return 2
	}
	if len(results) == 0 {
		fmt.Fprintln(stdout, "not playfair ciphertext")
		return 1
	}
	for _, r := range results {
		fmt.Fprintf(stdout, "%s\t%.2f\t%s (try %s)\n", r.Encoding, r.Confidence, r.Reasoning, r.Operation)
	}
	return 0
}
