package normalize

import (
	"testing"
	"time"

	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/sources"
)

func payload() sources.RawPayload {
	return sources.RawPayload{
		Kind:      model.KindFeedArticle,
		NativeID:  "https://example.com/story-1",
		Title:     "Example story",
		Body:      "Body text.",
		URL:       "https://example.com/story-1",
		Published: time.Date(2026, 8, 30, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)),
		Fetched:   time.Now(),
		Score:     10,
		Comments:  3,
		Config:    sources.Config{Name: "Example", Category: "tech"},
	}
}

func TestNormalizeDeterministicID(t *testing.T) {
	a, ok := Normalize(payload())
	if !ok {
		t.Fatal("payload should normalize")
	}
	b, _ := Normalize(payload())
	if a.ID != b.ID {
		t.Errorf("same payload produced different IDs: %s vs %s", a.ID, b.ID)
	}
	if a.ID != model.ItemID(model.KindFeedArticle, "https://example.com/story-1") {
		t.Errorf("ID should derive from kind + native id, got %s", a.ID)
	}
}

func TestNormalizeTimesAreUTC(t *testing.T) {
	item, ok := Normalize(payload())
	if !ok {
		t.Fatal("payload should normalize")
	}
	if item.Published.Location() != time.UTC {
		t.Errorf("published should be UTC, got %s", item.Published.Location())
	}
	if item.Published.Hour() != 17 {
		t.Errorf("EST noon should normalize to 17:00 UTC, got %d:00", item.Published.Hour())
	}
}

func TestNormalizeDropsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*sources.RawPayload)
	}{
		{"missing native id", func(p *sources.RawPayload) { p.NativeID = "" }},
		{"no text at all", func(p *sources.RawPayload) { p.Title = ""; p.Body = "" }},
		{"no timestamp", func(p *sources.RawPayload) { p.Published = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := payload()
			tc.mutate(&p)
			if _, ok := Normalize(p); ok {
				t.Error("malformed payload should be dropped")
			}
		})
	}
}

func TestNormalizeCommentParent(t *testing.T) {
	p := payload()
	p.Kind = model.KindDiscussionComment
	p.NativeID = "c42"
	p.ParentNativeID = "t7"

	item, ok := Normalize(p)
	if !ok {
		t.Fatal("comment should normalize")
	}
	want := model.ItemID(model.KindDiscussionThread, "t7")
	if item.ParentID != want {
		t.Errorf("parent should resolve to the thread's canonical id: got %s, want %s", item.ParentID, want)
	}
}

func TestNormalizeTitleOnlyIsValid(t *testing.T) {
	p := payload()
	p.Body = ""
	if _, ok := Normalize(p); !ok {
		t.Error("title-only payload should normalize")
	}
}
