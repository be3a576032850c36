// Package dedup detects duplicate content across sources and time using
// 64-bit shingle fingerprints over normalized text.
package dedup

import (
	"strings"
)

// stopWords are dropped before shingling when stop-word stripping is on.
// The list stays short; aggressive removal makes short titles collide.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "have": true, "has": true, "had": true,
	"will": true, "would": true, "could": true, "should": true, "it": true,
	"its": true, "this": true, "that": true, "as": true, "from": true,
}

// NormalizeText case-folds and strips punctuation, returning the word list
// used for shingling.
func NormalizeText(text string, stripStopWords bool) []string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			return r
		}
		return ' '
	}, text)

	words := strings.Fields(text)
	if !stripStopWords {
		return words
	}

	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return kept
}

// Fingerprint computes a similarity hash over title+body.
// Word trigrams are hashed and OR'd into a 64-bit signature; two texts that
// share most shingles share most bits.
func Fingerprint(title, body string, stripStopWords bool) uint64 {
	words := NormalizeText(title+" "+body, stripStopWords)

	var hash uint64
	if len(words) < 3 {
		// Too short for trigrams; hash individual words so near-empty
		// items still get a non-degenerate signature.
		for _, w := range words {
			hash |= 1 << (djb2(w) % 64)
		}
		return hash
	}

	for i := 0; i < len(words)-2; i++ {
		trigram := words[i] + " " + words[i+1] + " " + words[i+2]
		hash |= 1 << (djb2(trigram) % 64)
	}

	return hash
}

func djb2(s string) uint64 {
	var h uint64 = 5381
	for _, c := range s {
		h = ((h << 5) + h) + uint64(c)
	}
	return h
}

// Similarity calculates how similar two fingerprints are.
// Returns 0.0 to 1.0 (1.0 = identical).
func Similarity(a, b uint64) float64 {
	return float64(64-HammingDistance(a, b)) / 64.0
}

// HammingDistance counts the number of differing bits between two hashes.
func HammingDistance(a, b uint64) int {
	xor := a ^ b
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
