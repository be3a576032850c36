package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quillstream/quillstream/internal/brain"
	"github.com/quillstream/quillstream/internal/model"
)

type fakeCorpus struct {
	items      []model.Item
	sentiments map[string]*model.SentimentSummary
	groups     map[string]*model.CorrelationGroup
}

func (f *fakeCorpus) TopByImportance(limit int, minImportance float64) ([]model.Item, error) {
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeCorpus) GetSentiment(threadID string) (*model.SentimentSummary, error) {
	return f.sentiments[threadID], nil
}

func (f *fakeCorpus) GetGroup(id string) (*model.CorrelationGroup, error) {
	return f.groups[id], nil
}

type fakeProvider struct {
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) Available() bool { return true }
func (f *fakeProvider) Generate(ctx context.Context, req brain.Request) (brain.Response, error) {
	f.calls++
	if f.err != nil {
		return brain.Response{}, f.err
	}
	return brain.Response{Content: f.reply, Model: "fake-1"}, nil
}

func briefingCorpus() *fakeCorpus {
	now := time.Now().UTC()
	return &fakeCorpus{
		items: []model.Item{
			{
				ID:         "art-1",
				Kind:       model.KindFeedArticle,
				SourceName: "Wire One",
				Category:   "world_news",
				Title:      "Port strike enters third day",
				Body:       "Container traffic remains halted at the coastal terminals.",
				Published:  now.Add(-2 * time.Hour),
				Importance: 3.0,
				GroupID:    "grp-1",
			},
			{
				ID:         "thr-1",
				Kind:       model.KindDiscussionThread,
				SourceName: "b/logistics",
				Category:   "business",
				Title:      "Strike delays discussion",
				Body:       "Shippers comparing notes on rerouting.",
				Published:  now.Add(-4 * time.Hour),
				Importance: 2.0,
			},
		},
		sentiments: map[string]*model.SentimentSummary{
			"thr-1": {
				ThreadID:     "thr-1",
				Overall:      -0.35,
				Confidence:   0.6,
				Consensus:    model.StrongConsensus,
				DissentCount: 2,
				SampleSize:   14,
				KeyThemes:    []string{"delays", "rerouting"},
			},
		},
		groups: map[string]*model.CorrelationGroup{
			"grp-1": {ID: "grp-1", MemberIDs: []string{"art-1", "art-9"}, CreatedAt: now},
		},
	}
}

func TestBuildNarratesWithProvider(t *testing.T) {
	provider := &fakeProvider{reply: "Today the port strike dominated coverage."}
	mgr := brain.NewManager()
	mgr.Add(provider)

	br, err := New(briefingCorpus(), mgr, 0).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 generation call, got %d", provider.calls)
	}
	if br.Narrative != provider.reply {
		t.Errorf("narrative should come from the provider, got %q", br.Narrative)
	}
	if br.Model != "fake-1" {
		t.Errorf("expected model recorded, got %q", br.Model)
	}

	// The prompt carries the structured digest the narration is bound to.
	for _, want := range []string{
		"## WORLD_NEWS",
		"## BUSINESS",
		"[art-1] Port strike enters third day",
		"Community reaction: strong_consensus",
		"2 dissenting",
		"Themes: delays, rerouting",
		"Covered by 2 sources",
	} {
		if !strings.Contains(br.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildFallsBackToDigestWithoutProvider(t *testing.T) {
	br, err := New(briefingCorpus(), brain.NewManager(), 0).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if br.Narrative == "" {
		t.Fatal("fallback briefing must not be empty")
	}
	if !strings.Contains(br.Narrative, "Port strike enters third day") {
		t.Errorf("digest fallback missing items: %q", br.Narrative)
	}
	if br.Model != "" {
		t.Errorf("no model should be recorded for the digest, got %q", br.Model)
	}
}

func TestBuildFallsBackWhenGenerationFails(t *testing.T) {
	provider := &fakeProvider{err: errors.New("backend down")}
	mgr := brain.NewManager()
	mgr.Add(provider)

	br, err := New(briefingCorpus(), mgr, 0).Build(context.Background())
	if err != nil {
		t.Fatalf("a narration failure must not fail the briefing: %v", err)
	}
	if !strings.Contains(br.Narrative, "Port strike enters third day") {
		t.Errorf("expected digest fallback, got %q", br.Narrative)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	br, err := New(&fakeCorpus{}, brain.NewManager(), 0).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(br.Narrative, "Nothing in the corpus yet") {
		t.Errorf("expected the empty-corpus message, got %q", br.Narrative)
	}
	if len(br.Items) != 0 {
		t.Errorf("expected no items, got %d", len(br.Items))
	}
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := excerpt(long)
	if len(got) > maxBodyExcerpt+3 {
		t.Errorf("excerpt too long: %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated excerpt should end with ellipsis: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Error("excerpt should collapse whitespace")
	}

	short := "stays as is"
	if excerpt(short) != short {
		t.Errorf("short bodies pass through, got %q", excerpt(short))
	}
}
