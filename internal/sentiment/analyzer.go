// Package sentiment scores discussion comments with a weighted lexicon and
// aggregates them into per-thread summaries with a consensus label. Scoring
// is deterministic; no network or model calls are involved.
package sentiment

import (
	"strings"
	"unicode"
)

// CommentScore is the result of scoring a single comment.
type CommentScore struct {
	Score      float64 // [-1, 1]
	Confidence float64 // [0, 1], lexicon coverage of the text
	Matched    int     // lexicon hits
	Tokens     int     // total tokens considered
}

// ScoreComment runs the lexicon over one comment body. A negation within the
// two tokens before a hit flips its sign; an intensifier directly before a
// hit scales it. Texts with no lexicon hits score 0.0 with confidence 0.0.
func ScoreComment(text string) CommentScore {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return CommentScore{}
	}

	sum := 0.0
	matched := 0
	for i, tok := range tokens {
		w, ok := lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if mult, ok := intensifiers[tokens[i-1]]; ok {
				w *= mult
			}
		}
		if negatedAt(tokens, i) {
			w = -w
		}
		sum += w
		matched++
	}
	if matched == 0 {
		return CommentScore{Tokens: len(tokens)}
	}

	score := clamp(sum/float64(matched), -1, 1)
	conf := clamp(float64(matched)/float64(len(tokens)), 0, 1)
	return CommentScore{Score: score, Confidence: conf, Matched: matched, Tokens: len(tokens)}
}

func negatedAt(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if negations[tokens[j]] {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	// Fold contractions so "don't" matches the negation list as "dont".
	lower = strings.NewReplacer("'", "", "’", "").Replace(lower)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
