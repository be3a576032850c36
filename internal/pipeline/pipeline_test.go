package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quillstream/quillstream/internal/config"
	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/quality"
	"github.com/quillstream/quillstream/internal/sources"
)

type stubSource struct {
	name     string
	kind     model.SourceKind
	payloads []sources.RawPayload
	err      error
}

func (s *stubSource) Name() string           { return s.name }
func (s *stubSource) Kind() model.SourceKind { return s.kind }
func (s *stubSource) Fetch(ctx context.Context) ([]sources.RawPayload, error) {
	return s.payloads, s.err
}

func testPipeline(t *testing.T) (*Pipeline, *model.Store) {
	t.Helper()
	st, err := model.NewStore(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, config.DefaultConfig()), st
}

// Two feed articles covering the same strike from different outlets, worded
// differently enough that dedup keeps both while correlation groups them.
func strikeFeed(now time.Time) *stubSource {
	cfg := sources.Config{Name: "Wire One", Category: "world_news"}
	return &stubSource{
		name: "Wire One",
		kind: model.KindFeedArticle,
		payloads: []sources.RawPayload{
			{
				Kind:      model.KindFeedArticle,
				NativeID:  "wire-1/strike",
				Title:     "Dock workers union announces nationwide port strike",
				Body:      "The longshore union said the strike would begin Monday at major container ports.",
				URL:       "https://wire-one.example/strike",
				Published: now.Add(-3 * time.Hour),
				Fetched:   now,
				Config:    cfg,
			},
			{
				Kind:      model.KindFeedArticle,
				NativeID:  "wire-2/strike-talks",
				Title:     "Nationwide port strike looms as dock workers union talks collapse",
				Body:      "The longshore union confirmed the nationwide strike would begin Monday after talks with port operators collapsed.",
				URL:       "https://wire-two.example/strike-talks",
				Published: now.Add(-2 * time.Hour),
				Fetched:   now,
				Config:    cfg,
			},
		},
	}
}

func keyboardBoard(now time.Time) *stubSource {
	cfg := sources.Config{Name: "b/keyboards", Category: "tech"}
	veteran := now.Add(-2 * 365 * 24 * time.Hour)
	thread := sources.RawPayload{
		Kind:          model.KindDiscussionThread,
		NativeID:      "kb-100",
		Title:         "Ask: what keyboard do you use for long writing sessions",
		Body:          "Curious what mechanical keyboards people prefer these days.",
		Author:        "opener",
		Published:     now.Add(-5 * time.Hour),
		Fetched:       now,
		Score:         42,
		Comments:      3,
		AuthorKarma:   1200,
		AuthorCreated: veteran,
		Config:        cfg,
	}
	comments := []struct {
		id, author, body string
	}{
		{"kb-101", "alva", "The new switches feel great, typing on them all day has been a genuine improvement for me."},
		{"kb-102", "bren", "Totally agree, my wrists are happy and the board itself is excellent quality for the price."},
		{"kb-103", "cory", "Love this layout, solid build and really helpful advice in this thread overall."},
	}
	payloads := []sources.RawPayload{thread}
	for i, c := range comments {
		payloads = append(payloads, sources.RawPayload{
			Kind:           model.KindDiscussionComment,
			NativeID:       c.id,
			Body:           c.body,
			Author:         c.author,
			ParentNativeID: "kb-100",
			Published:      now.Add(time.Duration(i-4) * time.Hour),
			Fetched:        now,
			Score:          5,
			AuthorKarma:    300,
			AuthorCreated:  veteran,
			Config:         cfg,
		})
	}
	return &stubSource{name: "b/keyboards", kind: model.KindDiscussionThread, payloads: payloads}
}

func TestRunCycleEndToEnd(t *testing.T) {
	p, st := testPipeline(t)
	now := time.Now().UTC()
	srcs := []sources.Source{strikeFeed(now), keyboardBoard(now)}

	stats, err := p.RunCycle(context.Background(), srcs)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if stats.Fetched != 6 {
		t.Errorf("expected 6 fetched, got %d", stats.Fetched)
	}
	if stats.Inserted != 6 || stats.Merged != 0 {
		t.Errorf("expected 6 inserts and no merges, got %d/%d", stats.Inserted, stats.Merged)
	}
	if stats.FailedFeeds != 0 || stats.Malformed != 0 || stats.TotalRejected() != 0 {
		t.Errorf("unexpected drops: %+v", stats)
	}

	// The two strike articles end up in one correlation group.
	groups, err := st.GroupCount()
	if err != nil {
		t.Fatalf("GroupCount: %v", err)
	}
	if groups != 1 {
		t.Fatalf("expected 1 correlation group, got %d", groups)
	}
	a1, _ := st.GetItem(model.ItemID(model.KindFeedArticle, "wire-1/strike"))
	a2, _ := st.GetItem(model.ItemID(model.KindFeedArticle, "wire-2/strike-talks"))
	if a1.GroupID == "" || a1.GroupID != a2.GroupID {
		t.Errorf("articles should share a group: %q vs %q", a1.GroupID, a2.GroupID)
	}

	// The thread got a sentiment summary from its three positive comments.
	threadID := model.ItemID(model.KindDiscussionThread, "kb-100")
	sum, err := st.GetSentiment(threadID)
	if err != nil {
		t.Fatalf("GetSentiment: %v", err)
	}
	if sum == nil {
		t.Fatal("expected a sentiment summary for the thread")
	}
	if sum.SampleSize != 3 {
		t.Errorf("expected 3 sampled comments, got %d", sum.SampleSize)
	}
	if sum.Overall <= 0 {
		t.Errorf("uniformly positive comments should score positive, got %f", sum.Overall)
	}
	if sum.Consensus != model.StrongConsensus {
		t.Errorf("expected strong consensus, got %s", sum.Consensus)
	}

	// Every non-comment item got a positive importance score.
	for _, item := range []*model.Item{a1, a2} {
		if item.Importance <= 0 {
			t.Errorf("item %s has importance %f", item.ID, item.Importance)
		}
	}

	// Cycle stats were persisted.
	last, err := st.LastCycleStats()
	if err != nil {
		t.Fatalf("LastCycleStats: %v", err)
	}
	if last == nil || last.Fetched != 6 {
		t.Errorf("persisted stats mismatch: %+v", last)
	}
}

func TestRunCycleIdempotent(t *testing.T) {
	p, st := testPipeline(t)
	now := time.Now().UTC()
	srcs := []sources.Source{strikeFeed(now), keyboardBoard(now)}

	if _, err := p.RunCycle(context.Background(), srcs); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	first, _ := st.ItemCount("")

	stats, err := p.RunCycle(context.Background(), srcs)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if stats.Inserted != 0 {
		t.Errorf("re-ingest should insert nothing, got %d", stats.Inserted)
	}
	if stats.Merged != 6 {
		t.Errorf("re-ingest should merge everything, got %d merges", stats.Merged)
	}
	if stats.TotalRejected() != 0 {
		t.Errorf("re-ingest should reject nothing, got %+v", stats.Rejected)
	}

	second, _ := st.ItemCount("")
	if second != first {
		t.Errorf("corpus grew on re-ingest: %d -> %d", first, second)
	}
	groups, _ := st.GroupCount()
	if groups != 1 {
		t.Errorf("re-ingest should not mint new groups, got %d", groups)
	}
	g1, _ := st.GetItem(model.ItemID(model.KindFeedArticle, "wire-1/strike"))
	group, _ := st.GetGroup(g1.GroupID)
	if len(group.MemberIDs) != 2 {
		t.Errorf("group membership should stay at 2, got %v", group.MemberIDs)
	}
}

func TestRunCycleCountsMalformed(t *testing.T) {
	p, _ := testPipeline(t)
	now := time.Now().UTC()
	src := &stubSource{
		name: "broken feed",
		kind: model.KindFeedArticle,
		payloads: []sources.RawPayload{
			{Kind: model.KindFeedArticle, NativeID: "", Title: "No id", Published: now},
			{Kind: model.KindFeedArticle, NativeID: "x1", Published: now},
			{Kind: model.KindFeedArticle, NativeID: "x2", Title: "No timestamp"},
			{Kind: model.KindFeedArticle, NativeID: "ok", Title: "Fine", Published: now, Fetched: now},
		},
	}

	stats, err := p.RunCycle(context.Background(), []sources.Source{src})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Malformed != 3 {
		t.Errorf("expected 3 malformed, got %d", stats.Malformed)
	}
	if stats.Inserted != 1 {
		t.Errorf("expected 1 insert, got %d", stats.Inserted)
	}
}

func TestRunCycleTalliesQualityRejections(t *testing.T) {
	p, st := testPipeline(t)
	now := time.Now().UTC()
	src := &stubSource{
		name: "b/spam",
		kind: model.KindDiscussionThread,
		payloads: []sources.RawPayload{
			{
				Kind:          model.KindDiscussionThread,
				NativeID:      "sp-1",
				Title:         "Low karma take",
				Author:        "newbie",
				Published:     now.Add(-time.Hour),
				Fetched:       now,
				AuthorKarma:   3,
				AuthorCreated: now.Add(-400 * 24 * time.Hour),
				Config:        sources.Config{Name: "b/spam", Category: "tech"},
			},
			{
				Kind:          model.KindDiscussionThread,
				NativeID:      "sp-2",
				Title:         "This is a joke lmao",
				Author:        "jester",
				Published:     now.Add(-time.Hour),
				Fetched:       now,
				AuthorKarma:   900,
				AuthorCreated: now.Add(-400 * 24 * time.Hour),
				Config:        sources.Config{Name: "b/spam", Category: "tech"},
			},
		},
	}

	stats, err := p.RunCycle(context.Background(), []sources.Source{src})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Rejected[quality.ReasonLowReputation] != 1 {
		t.Errorf("expected 1 low-reputation rejection, got %+v", stats.Rejected)
	}
	if stats.Rejected[quality.ReasonJokeKeyword] != 1 {
		t.Errorf("expected 1 joke rejection, got %+v", stats.Rejected)
	}
	if count, _ := st.ItemCount(""); count != 0 {
		t.Errorf("rejected content must not enter the corpus, got %d items", count)
	}
}

func TestRescoreSurfacesStorageFailure(t *testing.T) {
	p, st := testPipeline(t)
	now := time.Now().UTC()

	if _, err := p.RunCycle(context.Background(), []sources.Source{strikeFeed(now)}); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	// Every storage failure during rescoring must abort the pass, not
	// silently shrink the set of rescored items.
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := p.rescore([]string{model.ItemID(model.KindFeedArticle, "wire-1/strike")})
	if err == nil {
		t.Fatal("rescore on a closed store should fail")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected a StorageError, got %v", err)
	}
}

func TestRunCycleAbsorbsSourceFailures(t *testing.T) {
	p, st := testPipeline(t)
	now := time.Now().UTC()
	dead := &stubSource{name: "dead feed", kind: model.KindFeedArticle, err: errors.New("connection refused")}
	live := strikeFeed(now)

	stats, err := p.RunCycle(context.Background(), []sources.Source{dead, live})
	if err != nil {
		t.Fatalf("a failed source must not abort the cycle: %v", err)
	}
	if stats.FailedFeeds != 1 {
		t.Errorf("expected 1 failed feed, got %d", stats.FailedFeeds)
	}
	if stats.Inserted != 2 {
		t.Errorf("healthy source should still ingest, got %d inserts", stats.Inserted)
	}
	if count, _ := st.ItemCount(""); count != 2 {
		t.Errorf("expected 2 items, got %d", count)
	}
}

func TestRunCyclePartialPayloadsWithError(t *testing.T) {
	p, _ := testPipeline(t)
	now := time.Now().UTC()
	partial := &stubSource{
		name: "flaky feed",
		kind: model.KindFeedArticle,
		payloads: []sources.RawPayload{
			{
				Kind:      model.KindFeedArticle,
				NativeID:  "pf-1",
				Title:     "Fetched before the connection dropped",
				Published: now.Add(-time.Hour),
				Fetched:   now,
				Config:    sources.Config{Name: "flaky feed", Category: "tech"},
			},
		},
		err: errors.New("read timeout"),
	}

	stats, err := p.RunCycle(context.Background(), []sources.Source{partial})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.FailedFeeds != 1 {
		t.Errorf("expected the failure recorded, got %d", stats.FailedFeeds)
	}
	if stats.Inserted != 1 {
		t.Errorf("partial payloads should still ingest, got %d inserts", stats.Inserted)
	}
}
