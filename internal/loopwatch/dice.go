// Package loopwatch detects conversations stuck in repetition, refusal, or
// phase-timeout loops by scanning persisted history out-of-band.
package loopwatch

import (
	"strings"
)

// DiceSimilarity computes the Sørensen–Dice coefficient over case-folded
// adjacent-character bigram sets: 2×|A∩B| / (|A|+|B|). Identical strings
// score 1.0; a string shorter than two characters scores 0 against anything
// else.
func DiceSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		return 1.0
	}

	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	var intersection int
	for bg := range ba {
		if _, ok := bb[bg]; ok {
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(ba)+len(bb))
}

// bigrams builds the set of adjacent-rune bigrams of s.
func bigrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	set := make(map[string]struct{}, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}
