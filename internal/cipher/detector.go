package cipher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// PlayfairDetector scores text for the structural marks Playfair ciphertext
// always carries: an even count of A-Z letters, no pair made of one letter
// twice, no J, and at most 25 distinct letters.
type PlayfairDetector struct{}

// NewPlayfairDetector creates a new detector
func NewPlayfairDetector() *PlayfairDetector {
	return &PlayfairDetector{}
}

// Detect reports whether the input could be Playfair ciphertext. Text that
// violates a hard rule yields no result rather than a low score.
func (d *PlayfairDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	letters := make([]rune, 0, len(input))
	for _, r := range string(input) {
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= 'A' && r <= 'Z':
			letters = append(letters, r)
		default:
			return []DetectionResult{}, nil
		}
	}

	if len(letters) < 2 || len(letters)%2 != 0 {
		return []DetectionResult{}, nil
	}

	distinct := make(map[rune]struct{})
	for i := 0; i < len(letters); i += 2 {
		if letters[i] == letters[i+1] {
			return []DetectionResult{}, nil
		}
		distinct[letters[i]] = struct{}{}
		distinct[letters[i+1]] = struct{}{}
	}
	if len(distinct) > 25 {
		return []DetectionResult{}, nil
	}

	confidence := 0.4
	reasons := []string{"even letter count", "no doubled pair"}

	if _, hasJ := distinct['J']; !hasJ {
		confidence += 0.2
		reasons = append(reasons, "no J")
	}
	switch {
	case len(letters) >= 40:
		confidence += 0.3
		reasons = append(reasons, fmt.Sprintf("%d letters", len(letters)))
	case len(letters) >= 16:
		confidence += 0.2
		reasons = append(reasons, fmt.Sprintf("%d letters", len(letters)))
	}
	if hasSpacedGroups(string(input)) {
		confidence += 0.05
		reasons = append(reasons, "grouped transmission format")
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	results := []DetectionResult{{
		Encoding:   "playfair",
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, ", "),
		Operation:  "playfair_decrypt",
	}}
	sortResultsByConfidence(results)
	return results, nil
}

// SupportedEncodings returns the formats this detector can identify
func (d *PlayfairDetector) SupportedEncodings() []string {
	return []string{"playfair"}
}

// hasSpacedGroups reports whether the text is split into equal blocks, as
// produced by group_five.
func hasSpacedGroups(s string) bool {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return false
	}
	size := len(fields[0])
	for _, f := range fields[:len(fields)-1] {
		if len(f) != size {
			return false
		}
	}
	return len(fields[len(fields)-1]) <= size
}

func sortResultsByConfidence(results []DetectionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
}
