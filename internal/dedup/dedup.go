package dedup

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/quillstream/quillstream/internal/logging"
	"github.com/quillstream/quillstream/internal/model"
)

// Signatures with fewer set bits than this carry too little signal for
// Hamming similarity; comparison falls back to exact normalized text.
const minDenseBits = 8

// Outcome of processing one incoming item.
type Outcome string

const (
	Inserted Outcome = "inserted"
	Merged   Outcome = "merged"
)

// Result reports what happened to an incoming item.
type Result struct {
	Outcome    Outcome
	ExistingID string // Set when Outcome is Merged
}

// Store is the persistence surface the deduplicator needs.
type Store interface {
	RecentFingerprints(kind model.SourceKind, since time.Time) ([]model.FingerprintRow, error)
	UpsertItem(item *model.Item) error
	MergeItem(existingID string, eng model.Engagement, published, fetched time.Time) error
}

// Deduper decides whether an incoming item is new or an update to an item
// already in the corpus.
//
// Not safe for concurrent use: the window scan and the subsequent write must
// not interleave with another writer. The pipeline serializes calls.
type Deduper struct {
	store     Store
	window    time.Duration
	threshold float64
	stripStop bool
	now       func() time.Time
}

// New creates a Deduper. threshold is the minimum fingerprint similarity for
// a merge; window bounds how far back candidates are considered.
func New(store Store, window time.Duration, threshold float64, stripStopWords bool) *Deduper {
	return &Deduper{
		store:     store,
		window:    window,
		threshold: threshold,
		stripStop: stripStopWords,
		now:       time.Now,
	}
}

// Process computes the item's fingerprint, looks for a near-duplicate of the
// same source kind within the recency window, and either merges into it or
// inserts the item as new. Items of different kinds never merge; relating an
// article to a discussion of the same event is the correlator's job.
func (d *Deduper) Process(item *model.Item) (Result, error) {
	if item.Fingerprint == 0 {
		item.Fingerprint = Fingerprint(item.Title, item.Body, d.stripStop)
	}

	since := d.now().Add(-d.window)
	candidates, err := d.store.RecentFingerprints(item.Kind, since)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load dedup window: %w", err)
	}

	// Candidates arrive oldest first; requiring a strictly better score to
	// switch keeps the earliest item as the merge target on ties.
	itemDense := bits.OnesCount64(item.Fingerprint) >= minDenseBits
	itemKey := ""
	bestID := ""
	bestSim := 0.0
	for _, c := range candidates {
		if c.ID == item.ID {
			// Same native id re-ingested: update the existing row in place.
			bestID = c.ID
			bestSim = 1.0
			break
		}
		if itemDense && bits.OnesCount64(c.Fingerprint) >= minDenseBits {
			if sim := Similarity(item.Fingerprint, c.Fingerprint); sim >= d.threshold && sim > bestSim {
				bestID = c.ID
				bestSim = sim
			}
			continue
		}
		// A short title sets one or two bits, so any two sparse signatures
		// look near-identical under Hamming distance. Only an exact text
		// match counts as a duplicate here.
		if itemKey == "" {
			itemKey = textKey(item.Title, item.Body, d.stripStop)
		}
		if itemKey != "" && itemKey == textKey(c.Title, c.Body, d.stripStop) && bestSim < 1.0 {
			bestID = c.ID
			bestSim = 1.0
		}
	}

	if bestID != "" {
		if err := d.store.MergeItem(bestID, item.Engagement, item.Published, item.Fetched); err != nil {
			return Result{}, fmt.Errorf("failed to merge duplicate: %w", err)
		}
		logging.Debug("Merged duplicate item",
			"incoming", item.ID, "existing", bestID, "similarity", bestSim)
		return Result{Outcome: Merged, ExistingID: bestID}, nil
	}

	if err := d.store.UpsertItem(item); err != nil {
		return Result{}, fmt.Errorf("failed to insert item: %w", err)
	}
	return Result{Outcome: Inserted}, nil
}

func textKey(title, body string, stripStopWords bool) string {
	return strings.Join(NormalizeText(title+" "+body, stripStopWords), " ")
}
