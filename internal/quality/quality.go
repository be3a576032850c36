// Package quality screens discussion content before it enters the corpus.
// Feed articles pass through untouched; discussion threads and comments are
// checked against author reputation, joke markers, bot posting patterns, and
// an engagement floor. Every rejection carries a machine-readable reason so
// cycle stats can report why content was dropped.
package quality

import (
	"math"
	"math/bits"
	"sort"
	"strings"
	"time"

	"github.com/quillstream/quillstream/internal/dedup"
	"github.com/quillstream/quillstream/internal/model"
)

// Rejection reasons, recorded per cycle.
const (
	ReasonLowReputation    = "LOW_REPUTATION"
	ReasonAccountTooNew    = "ACCOUNT_TOO_NEW"
	ReasonJokeKeyword      = "JOKE_KEYWORD_MATCH"
	ReasonBotPattern       = "BOT_PATTERN_MATCH"
	ReasonEngagementTooLow = "ENGAGEMENT_TOO_LOW"
)

// AuthorStats carries what the source reported about a comment's author.
// Zero values mean the source did not expose the field, in which case the
// corresponding check is skipped rather than failed.
type AuthorStats struct {
	Karma   int
	Created time.Time
}

// HistoryEntry is one prior post by the same author, used for bot detection.
type HistoryEntry struct {
	Text        string
	Fingerprint uint64
	Posted      time.Time
}

// Verdict is the outcome of a quality check.
type Verdict struct {
	Accepted bool
	Reason   string
}

func accept() Verdict         { return Verdict{Accepted: true} }
func reject(r string) Verdict { return Verdict{Reason: r} }

// Policy holds the thresholds for discussion screening.
type Policy struct {
	MinAuthorKarma  int
	MinAccountAge   time.Duration
	MinEngagement   int
	JokeKeywords    []string
	// Bot detection knobs.
	HistoryMinPosts     int           // minimum history length before cadence applies
	CadenceJitter       time.Duration // max stddev of inter-post gaps for a bot verdict
	DuplicateSimilarity float64       // fingerprint similarity treated as a repost
}

// NewPolicy builds a policy with sane bot-detection defaults.
func NewPolicy(minKarma int, minAge time.Duration, minEngagement int, jokeKeywords []string) Policy {
	kw := make([]string, 0, len(jokeKeywords))
	for _, k := range jokeKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return Policy{
		MinAuthorKarma:      minKarma,
		MinAccountAge:       minAge,
		MinEngagement:       minEngagement,
		JokeKeywords:        kw,
		HistoryMinPosts:     4,
		CadenceJitter:       45 * time.Second,
		DuplicateSimilarity: 0.95,
	}
}

// Check screens a single item. Feed articles always pass. now anchors the
// account-age check so results are reproducible in tests.
func (p Policy) Check(item model.Item, author AuthorStats, history []HistoryEntry, now time.Time) Verdict {
	if !item.Kind.Discussion() {
		return accept()
	}

	if author.Karma != 0 && author.Karma < p.MinAuthorKarma {
		return reject(ReasonLowReputation)
	}
	if !author.Created.IsZero() && now.Sub(author.Created) < p.MinAccountAge {
		return reject(ReasonAccountTooNew)
	}

	if p.matchesJoke(item.Title) || p.matchesJoke(item.Body) {
		return reject(ReasonJokeKeyword)
	}

	if p.looksLikeBot(item, history) {
		return reject(ReasonBotPattern)
	}

	if item.Engagement.Score < p.MinEngagement {
		return reject(ReasonEngagementTooLow)
	}

	return accept()
}

func (p Policy) matchesJoke(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range p.JokeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// looksLikeBot flags authors whose recent history shows machine-like
// behavior: posting on a near-exact cadence, or repeating the same text
// across threads. Both signals need enough history to be meaningful.
func (p Policy) looksLikeBot(item model.Item, history []HistoryEntry) bool {
	if len(history) == 0 {
		return false
	}

	// Repost of near-identical text. Short comments produce sparse hashes
	// whose Hamming similarity is mostly shared zero bits, so those fall
	// back to exact comparison of the normalized text.
	fp := item.Fingerprint
	if fp == 0 {
		fp = dedup.Fingerprint(item.Title, item.Body, false)
	}
	itemNorm := strings.Join(dedup.NormalizeText(item.Title+" "+item.Body, false), " ")
	for _, h := range history {
		if itemNorm != "" && itemNorm == strings.Join(dedup.NormalizeText(h.Text, false), " ") {
			return true
		}
		hfp := h.Fingerprint
		if hfp == 0 && h.Text != "" {
			hfp = dedup.Fingerprint("", h.Text, false)
		}
		if denseHash(fp) && denseHash(hfp) && dedup.Similarity(fp, hfp) >= p.DuplicateSimilarity {
			return true
		}
	}

	if len(history) < p.HistoryMinPosts {
		return false
	}

	// Cadence regularity: compute the stddev of the gaps between
	// consecutive posts. Humans are noisy; schedulers are not.
	times := make([]time.Time, 0, len(history)+1)
	for _, h := range history {
		if !h.Posted.IsZero() {
			times = append(times, h.Posted)
		}
	}
	if !item.Published.IsZero() {
		times = append(times, item.Published)
	}
	if len(times) < p.HistoryMinPosts {
		return false
	}
	sortTimes(times)

	gaps := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]).Seconds())
	}
	mean := 0.0
	for _, g := range gaps {
		mean += g
	}
	mean /= float64(len(gaps))
	if mean <= 0 {
		return false
	}
	variance := 0.0
	for _, g := range gaps {
		d := g - mean
		variance += d * d
	}
	variance /= float64(len(gaps))

	return math.Sqrt(variance) <= p.CadenceJitter.Seconds()
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}

// denseHash reports whether enough signature bits are set for Hamming
// similarity to mean anything.
func denseHash(fp uint64) bool {
	return bits.OnesCount64(fp) >= 8
}
