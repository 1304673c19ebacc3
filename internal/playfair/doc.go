// Package playfair implements the Playfair digraph substitution cipher.
//
// A keyword is turned into a 5x5 key square (BuildGrid), the square is
// indexed by letter (NewPositionIndex), messages are split into bigrams of
// two distinct letters (Segment), and each bigram is moved through the
// square by the row, column and rectangle rules (EncryptPair, DecryptPair).
// Cipher bundles a square and its index so one keyword can serve many
// messages:
//
//	c, err := playfair.New("SUPERSPY")
//	if err != nil {
//	    return err
//	}
//	plain, err := c.Decrypt("IKEWENENXLNQLPZSLERUMRHEERYBOFNEINCHCV")
//
// Input is expected to be uppercase A-Z. Normalize converts free text into
// that form. Characters that cannot be placed in the square produce an
// error wrapping ErrUnknownLetter rather than silent output.
package playfair
