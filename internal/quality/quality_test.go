package quality

import (
	"testing"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func defaultPolicy() Policy {
	return NewPolicy(50, 30*24*time.Hour, -2, []string{"lmao", "/s", "this is a joke"})
}

func goodAuthor() AuthorStats {
	return AuthorStats{Karma: 500, Created: now.Add(-2 * 365 * 24 * time.Hour)}
}

func commentItem(title, body string) model.Item {
	return model.Item{
		Kind:       model.KindDiscussionComment,
		Title:      title,
		Body:       body,
		Published:  now.Add(-time.Hour),
		Engagement: model.Engagement{Score: 5},
	}
}

func TestFeedArticlesAlwaysPass(t *testing.T) {
	p := defaultPolicy()
	article := model.Item{Kind: model.KindFeedArticle, Title: "lmao worthy headline"}
	v := p.Check(article, AuthorStats{}, nil, now)
	if !v.Accepted {
		t.Errorf("feed articles bypass the filter, got rejection %s", v.Reason)
	}
}

func TestLowReputationRejected(t *testing.T) {
	p := defaultPolicy()
	author := AuthorStats{Karma: 10, Created: now.Add(-365 * 24 * time.Hour)}
	v := p.Check(commentItem("", "a thoughtful remark"), author, nil, now)
	if v.Accepted || v.Reason != ReasonLowReputation {
		t.Errorf("expected %s, got accepted=%v reason=%s", ReasonLowReputation, v.Accepted, v.Reason)
	}
}

func TestUnknownReputationSkipsCheck(t *testing.T) {
	p := defaultPolicy()
	// Source did not expose karma; the check must not fail on zero.
	v := p.Check(commentItem("", "a thoughtful remark"), AuthorStats{}, nil, now)
	if !v.Accepted {
		t.Errorf("missing author stats should skip reputation checks, got %s", v.Reason)
	}
}

func TestAccountTooNewRejected(t *testing.T) {
	p := defaultPolicy()
	author := AuthorStats{Karma: 500, Created: now.Add(-5 * 24 * time.Hour)}
	v := p.Check(commentItem("", "first post here"), author, nil, now)
	if v.Accepted || v.Reason != ReasonAccountTooNew {
		t.Errorf("expected %s, got accepted=%v reason=%s", ReasonAccountTooNew, v.Accepted, v.Reason)
	}
}

func TestJokeKeywordRejected(t *testing.T) {
	p := defaultPolicy()
	cases := []string{
		"lmao this will go well",
		"Sure, totally reliable /s",
		"calm down, this is a joke",
	}
	for _, body := range cases {
		v := p.Check(commentItem("", body), goodAuthor(), nil, now)
		if v.Accepted || v.Reason != ReasonJokeKeyword {
			t.Errorf("%q: expected %s, got accepted=%v reason=%s", body, ReasonJokeKeyword, v.Accepted, v.Reason)
		}
	}
}

func TestEngagementFloor(t *testing.T) {
	p := defaultPolicy()
	item := commentItem("", "heavily downvoted take")
	item.Engagement.Score = -10
	v := p.Check(item, goodAuthor(), nil, now)
	if v.Accepted || v.Reason != ReasonEngagementTooLow {
		t.Errorf("expected %s, got accepted=%v reason=%s", ReasonEngagementTooLow, v.Accepted, v.Reason)
	}
}

func TestBotRepostRejected(t *testing.T) {
	p := defaultPolicy()
	body := "Check out this amazing deal on graphics cards before they sell out"
	history := []HistoryEntry{
		{Text: body, Posted: now.Add(-26 * time.Hour)},
	}
	v := p.Check(commentItem("", body), goodAuthor(), history, now)
	if v.Accepted || v.Reason != ReasonBotPattern {
		t.Errorf("expected %s for repost, got accepted=%v reason=%s", ReasonBotPattern, v.Accepted, v.Reason)
	}
}

func TestBotCadenceRejected(t *testing.T) {
	p := defaultPolicy()
	// Posts exactly 10 minutes apart, machine-regular.
	var history []HistoryEntry
	for i := 1; i <= 5; i++ {
		history = append(history, HistoryEntry{
			Text:   "different text each time number " + string(rune('0'+i)),
			Posted: now.Add(-time.Duration(i) * 10 * time.Minute),
		})
	}
	item := commentItem("", "and here is yet another new remark")
	item.Published = now

	v := p.Check(item, goodAuthor(), history, now)
	if v.Accepted || v.Reason != ReasonBotPattern {
		t.Errorf("expected %s for regular cadence, got accepted=%v reason=%s", ReasonBotPattern, v.Accepted, v.Reason)
	}
}

func TestHumanCadenceAccepted(t *testing.T) {
	p := defaultPolicy()
	// Irregular, human-looking gaps.
	offsets := []time.Duration{
		-2 * time.Hour,
		-7 * time.Hour,
		-26 * time.Hour,
		-30 * time.Hour,
		-55 * time.Hour,
	}
	var history []HistoryEntry
	for i, off := range offsets {
		history = append(history, HistoryEntry{
			Text:   "genuinely distinct thought number " + string(rune('0'+i)),
			Posted: now.Add(off),
		})
	}
	v := p.Check(commentItem("", "yet another completely different remark today"), goodAuthor(), history, now)
	if !v.Accepted {
		t.Errorf("irregular posting should pass, got %s", v.Reason)
	}
}

func TestShortHistorySkipsCadence(t *testing.T) {
	p := defaultPolicy()
	history := []HistoryEntry{
		{Text: "first unrelated remark", Posted: now.Add(-20 * time.Minute)},
		{Text: "second unrelated remark", Posted: now.Add(-10 * time.Minute)},
	}
	v := p.Check(commentItem("", "third distinct remark entirely"), goodAuthor(), history, now)
	if !v.Accepted {
		t.Errorf("two posts are not enough history for a bot verdict, got %s", v.Reason)
	}
}
