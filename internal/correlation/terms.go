// Package correlation groups items that concern the same real-world event
// across sources. Matching is cheap and deterministic: a weighted Jaccard
// overlap over extracted topic terms, no model calls.
package correlation

import (
	"sort"
	"strings"
	"unicode"
)

// Title tokens count double when selecting representative terms.
const titleBonus = 1.0

// ExtractTerms pulls the representative topic terms from an item's text.
// Terms are lowercase tokens of length >= 3 that survive the stopword list,
// ranked by occurrence count with a bonus for appearing in the title.
// The cut at maxTerms is deterministic: weight descending, then lexicographic.
func ExtractTerms(title, body string, maxTerms int) []string {
	weights := map[string]float64{}
	for _, tok := range termTokens(title) {
		weights[tok] += 1 + titleBonus
	}
	for _, tok := range termTokens(body) {
		weights[tok]++
	}
	if len(weights) == 0 {
		return nil
	}

	terms := make([]string, 0, len(weights))
	for t := range weights {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if weights[terms[i]] != weights[terms[j]] {
			return weights[terms[i]] > weights[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxTerms > 0 && len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms
}

// Overlap computes the Jaccard similarity of two term sets.
// Empty sets never match anything.
func Overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := map[string]bool{}
	for _, t := range a {
		setA[t] = true
	}
	inter := 0
	setB := map[string]bool{}
	for _, t := range b {
		if setB[t] {
			continue
		}
		setB[t] = true
		if setA[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func termTokens(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 && !termStop[f] {
			out = append(out, f)
		}
	}
	return out
}

var termStop = func() map[string]bool {
	words := "the and for are but not you all can was with this that have has had they them their there what when where who why how its from were been being will would could should about after before between into over under more most some such only other just like very really also via amid says said say new top out off per due"
	m := map[string]bool{}
	for _, w := range strings.Fields(words) {
		m[w] = true
	}
	return m
}()
