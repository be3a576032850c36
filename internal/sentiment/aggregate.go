package sentiment

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

// Consensus thresholds. Agreement is the share of signed weight on the
// dominant side; the polarized band catches near-even splits.
const (
	strongConsensusShare = 0.70
	polarizedBand        = 0.20
	dissentMinMagnitude  = 0.20
	maxThemes            = 5
)

// Aggregate folds per-comment scores for one thread into a summary. Comments
// are weighted by log1p of their upvote score; when every comment has zero or
// negative score the weighting falls back to uniform so low-engagement
// threads still aggregate. An empty input yields a zero-valued summary with
// a MIXED label, never an error.
func Aggregate(threadID string, comments []model.Item) model.SentimentSummary {
	summary := model.SentimentSummary{
		ThreadID:   threadID,
		Consensus:  model.Mixed,
		AnalyzedAt: time.Now().UTC(),
	}
	if len(comments) == 0 {
		return summary
	}

	all := make([]scored, 0, len(comments))
	totalWeight := 0.0
	for _, c := range comments {
		cs := ScoreComment(c.Body)
		if cs.Matched == 0 {
			continue
		}
		w := math.Log1p(math.Max(0, float64(c.Engagement.Score)))
		all = append(all, scored{item: c, score: cs.Score, weight: w})
		totalWeight += w
	}
	summary.SampleSize = len(all)
	if len(all) == 0 {
		return summary
	}
	if totalWeight == 0 {
		for i := range all {
			all[i].weight = 1
		}
		totalWeight = float64(len(all))
	}

	mean := 0.0
	for _, s := range all {
		mean += s.weight * s.score
	}
	mean /= totalWeight
	summary.Overall = clamp(mean, -1, 1)

	variance := 0.0
	for _, s := range all {
		d := s.score - mean
		variance += s.weight * d * d
	}
	variance /= totalWeight
	stddev := math.Sqrt(variance)

	// Confidence grows with sample size and shrinks with disagreement.
	sampleFactor := float64(len(all)) / float64(len(all)+3)
	summary.Confidence = clamp(sampleFactor*(1-stddev), 0, 1)

	// Consensus from the weighted mass that shares the overall score's
	// sign. A loud minority can drag the mean across zero, in which case
	// the numerous side no longer agrees with the summary it would label.
	posW, negW := 0.0, 0.0
	for _, s := range all {
		switch {
		case s.score > 0:
			posW += s.weight
		case s.score < 0:
			negW += s.weight
		}
	}
	signedW := posW + negW
	if signedW > 0 {
		agreeing := math.Max(posW, negW)
		switch {
		case summary.Overall > 0:
			agreeing = posW
		case summary.Overall < 0:
			agreeing = negW
		}
		split := math.Abs(posW-negW) / signedW
		switch {
		case agreeing/signedW >= strongConsensusShare:
			summary.Consensus = model.StrongConsensus
		case split <= polarizedBand:
			summary.Consensus = model.Polarized
		default:
			summary.Consensus = model.Mixed
		}
	}

	// Dissent: comments whose sign opposes the overall with real magnitude.
	if summary.Overall != 0 {
		for _, s := range all {
			if s.score*summary.Overall < 0 && math.Abs(s.score) >= dissentMinMagnitude {
				summary.DissentCount++
			}
		}
	}

	matched := make([]model.Item, len(all))
	for i, s := range all {
		matched[i] = s.item
	}
	summary.KeyThemes = themes(matched, maxThemes)
	return summary
}

type scored struct {
	item   model.Item
	score  float64
	weight float64
}

// themes picks the top engagement-weighted non-stopword tokens across the
// comments. Ordering is deterministic: weight descending, then lexicographic.
func themes(comments []model.Item, limit int) []string {
	weights := map[string]float64{}
	for _, c := range comments {
		w := 1 + math.Log1p(math.Max(0, float64(c.Engagement.Score)))
		seen := map[string]bool{}
		for _, tok := range tokenize(c.Body) {
			if len(tok) <= 2 || themeStop[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			weights[tok] += w
		}
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
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

var themeStop = func() map[string]bool {
	words := "the and for are but not you all can was with this that have has had they them their there what when where who why how its from were been being will would could should very really just like more most some such only other into over under about after before between"
	m := map[string]bool{}
	for _, w := range strings.Fields(words) {
		m[w] = true
	}
	return m
}()
