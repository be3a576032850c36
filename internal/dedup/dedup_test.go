package dedup

import (
	"testing"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

type fpRecord struct {
	row     model.FingerprintRow
	kind    model.SourceKind
	fetched time.Time
}

// fakeStore records writes and serves fingerprint windows from memory.
type fakeStore struct {
	records []fpRecord
	upserts []model.Item
	merges  []string
}

func (f *fakeStore) RecentFingerprints(kind model.SourceKind, since time.Time) ([]model.FingerprintRow, error) {
	var out []model.FingerprintRow
	for _, r := range f.records {
		if r.kind == kind && r.fetched.After(since) {
			out = append(out, r.row)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertItem(item *model.Item) error {
	f.upserts = append(f.upserts, *item)
	f.records = append(f.records, fpRecord{
		row: model.FingerprintRow{
			ID:          item.ID,
			Fingerprint: item.Fingerprint,
			Title:       item.Title,
			Body:        item.Body,
		},
		kind:    item.Kind,
		fetched: item.Fetched,
	})
	return nil
}

func (f *fakeStore) MergeItem(existingID string, eng model.Engagement, published, fetched time.Time) error {
	f.merges = append(f.merges, existingID)
	return nil
}

func testItem(kind model.SourceKind, nativeID, title string) model.Item {
	now := time.Now().UTC()
	return model.Item{
		ID:        model.ItemID(kind, nativeID),
		Kind:      kind,
		Title:     title,
		Published: now,
		Fetched:   now,
	}
}

func TestProcessInsertsNewItem(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	item := testItem(model.KindFeedArticle, "a1", "Central bank cuts interest rates")
	res, err := d.Process(&item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Outcome != Inserted {
		t.Errorf("expected insert, got %s", res.Outcome)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserts))
	}
	if store.upserts[0].Fingerprint == 0 {
		t.Error("fingerprint should be computed before the write")
	}
}

func TestProcessMergesNearDuplicate(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	first := testItem(model.KindFeedArticle, "a1", "Central bank cuts interest rates by a quarter point")
	first.Body = "The decision came after the monthly policy meeting concluded on Thursday."
	if _, err := d.Process(&first); err != nil {
		t.Fatalf("Process first: %v", err)
	}

	// Same story from a different source under a different native id.
	second := testItem(model.KindFeedArticle, "b7", "Central bank cuts interest rates by quarter point")
	second.Body = "The decision came after the monthly policy meeting concluded on Thursday."
	res, err := d.Process(&second)
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if res.Outcome != Merged {
		t.Fatalf("expected merge, got %s", res.Outcome)
	}
	if res.ExistingID != first.ID {
		t.Errorf("expected merge into %s, got %s", first.ID, res.ExistingID)
	}
	if len(store.merges) != 1 {
		t.Errorf("expected 1 merge write, got %d", len(store.merges))
	}
}

func TestProcessKeepsUnrelatedShortTitlesApart(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	// Three-word titles set a single signature bit, which can collide.
	first := testItem(model.KindFeedArticle, "a1", "Fed cuts rates")
	if _, err := d.Process(&first); err != nil {
		t.Fatalf("Process first: %v", err)
	}

	second := testItem(model.KindFeedArticle, "b2", "Dog bites man")
	res, err := d.Process(&second)
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if res.Outcome != Inserted {
		t.Fatalf("unrelated short headlines must not merge, got %s into %s", res.Outcome, res.ExistingID)
	}
	if len(store.merges) != 0 {
		t.Errorf("expected no merges, got %d", len(store.merges))
	}
	if len(store.upserts) != 2 {
		t.Errorf("both headlines should be stored, got %d", len(store.upserts))
	}
}

func TestProcessMergesShortRepostByExactText(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	first := testItem(model.KindFeedArticle, "a1", "Fed cuts rates")
	if _, err := d.Process(&first); err != nil {
		t.Fatalf("Process first: %v", err)
	}

	// Same headline from a second source; sparse signatures still dedup
	// when the normalized text matches exactly.
	second := testItem(model.KindFeedArticle, "b2", "Fed cuts rates")
	res, err := d.Process(&second)
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if res.Outcome != Merged {
		t.Fatalf("identical short headline should merge, got %s", res.Outcome)
	}
	if res.ExistingID != first.ID {
		t.Errorf("expected merge into %s, got %s", first.ID, res.ExistingID)
	}
}

func TestProcessNeverMergesAcrossKinds(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	article := testItem(model.KindFeedArticle, "a1", "Central bank cuts interest rates by a quarter point")
	if _, err := d.Process(&article); err != nil {
		t.Fatalf("Process article: %v", err)
	}

	// A discussion thread with the same headline is related coverage,
	// not a duplicate.
	thread := testItem(model.KindDiscussionThread, "t9", "Central bank cuts interest rates by a quarter point")
	res, err := d.Process(&thread)
	if err != nil {
		t.Fatalf("Process thread: %v", err)
	}
	if res.Outcome != Inserted {
		t.Errorf("cross-kind content must insert, got %s", res.Outcome)
	}
	if len(store.merges) != 0 {
		t.Errorf("cross-kind content must never merge, got %d merges", len(store.merges))
	}
}

func TestProcessSameIDUpdatesInPlace(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	item := testItem(model.KindDiscussionThread, "t1", "Show and tell: my weekend project")
	if _, err := d.Process(&item); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Re-fetch of the same thread with fresher engagement.
	again := testItem(model.KindDiscussionThread, "t1", "Show and tell: my weekend project")
	again.Engagement = model.Engagement{Score: 120, Comments: 48}
	res, err := d.Process(&again)
	if err != nil {
		t.Fatalf("Process again: %v", err)
	}
	if res.Outcome != Merged {
		t.Errorf("re-ingest should merge, got %s", res.Outcome)
	}
	if res.ExistingID != item.ID {
		t.Errorf("expected merge into %s, got %s", item.ID, res.ExistingID)
	}
}

func TestProcessIgnoresItemsOutsideWindow(t *testing.T) {
	store := &fakeStore{}
	d := New(store, 72*time.Hour, 0.90, true)

	old := testItem(model.KindFeedArticle, "a1", "Central bank cuts interest rates by a quarter point")
	store.records = append(store.records, fpRecord{
		row:     model.FingerprintRow{ID: old.ID, Fingerprint: Fingerprint(old.Title, "", true)},
		kind:    old.Kind,
		fetched: time.Now().UTC().Add(-96 * time.Hour),
	})

	fresh := testItem(model.KindFeedArticle, "b2", "Central bank cuts interest rates by a quarter point")
	res, err := d.Process(&fresh)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Outcome != Inserted {
		t.Errorf("stale candidates must not merge, got %s", res.Outcome)
	}
}
