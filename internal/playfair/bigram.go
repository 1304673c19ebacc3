package playfair

import "strings"

// DefaultFiller separates doubled letters and pads odd-length messages.
const DefaultFiller = 'X'

// Bigram is one two-letter unit of a message.
type Bigram [2]rune

func (b Bigram) String() string {
	return string(b[:])
}

// Segment splits message into bigrams in a single left-to-right pass. When
// the two letters of a would-be pair are identical, filler is inserted
// between them and scanning resumes at the second letter. A trailing single
// letter is padded with filler. If the letter being separated or padded is
// the filler itself, the alternate filler is used instead so that no bigram
// ever holds two identical letters.
//
// Segment does not check letters against a grid; see Cipher.Segment.
func Segment(message string, filler rune) ([]Bigram, error) {
	if filler == 0 {
		filler = DefaultFiller
	}
	if !isLetter(filler) {
		return nil, &LetterError{Letter: filler, Offset: -1, Source: "filler"}
	}
	runes := []rune(message)
	if len(runes) == 0 {
		return nil, ErrEmptyMessage
	}

	out := make([]Bigram, 0, len(runes)/2+1)
	for i := 0; i < len(runes); {
		a := runes[i]
		if i+1 == len(runes) || runes[i+1] == a {
			out = append(out, Bigram{a, padFor(a, filler)})
			i++
			continue
		}
		out = append(out, Bigram{a, runes[i+1]})
		i += 2
	}
	return out, nil
}

// Join concatenates bigrams back into a string.
func Join(bigrams []Bigram) string {
	var b strings.Builder
	b.Grow(len(bigrams) * 2)
	for _, bg := range bigrams {
		b.WriteRune(bg[0])
		b.WriteRune(bg[1])
	}
	return b.String()
}

func padFor(letter, filler rune) rune {
	if letter != filler {
		return filler
	}
	return alternateFiller(filler)
}

func alternateFiller(filler rune) rune {
	if filler == 'Q' {
		return 'X'
	}
	return 'Q'
}
