package playfair

// EncryptPair applies the Playfair rules to one bigram: letters sharing a
// row move one column right, letters sharing a column move one row down, and
// any other pair swaps columns.
func EncryptPair(b Bigram, g Grid, idx *PositionIndex) (Bigram, error) {
	return shiftPair(b, g, idx, 1)
}

// DecryptPair inverts EncryptPair: same row moves left, same column moves up.
// The rectangle case is its own inverse.
func DecryptPair(b Bigram, g Grid, idx *PositionIndex) (Bigram, error) {
	return shiftPair(b, g, idx, -1)
}

func shiftPair(b Bigram, g Grid, idx *PositionIndex, step int) (Bigram, error) {
	p1, ok := idx.Lookup(b[0])
	if !ok {
		return Bigram{}, &LetterError{Letter: b[0], Offset: -1, Source: "bigram " + b.String()}
	}
	p2, ok := idx.Lookup(b[1])
	if !ok {
		return Bigram{}, &LetterError{Letter: b[1], Offset: -1, Source: "bigram " + b.String()}
	}

	switch {
	case p1.Row == p2.Row:
		return Bigram{
			g.At(Position{Row: p1.Row, Col: p1.Col + step}),
			g.At(Position{Row: p2.Row, Col: p2.Col + step}),
		}, nil
	case p1.Col == p2.Col:
		return Bigram{
			g.At(Position{Row: p1.Row + step, Col: p1.Col}),
			g.At(Position{Row: p2.Row + step, Col: p2.Col}),
		}, nil
	default:
		return Bigram{g[p1.Row][p2.Col], g[p2.Row][p1.Col]}, nil
	}
}
