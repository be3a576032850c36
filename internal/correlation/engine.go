package correlation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillstream/quillstream/internal/model"
)

// Store is the slice of corpus persistence the engine needs.
type Store interface {
	GroupsSince(since time.Time) ([]model.CorrelationGroup, error)
	SaveGroup(g *model.CorrelationGroup) error
	AssignGroup(itemID, groupID string) error
}

// Engine assigns items to correlation groups. It is not safe for concurrent
// use; the ingest pipeline serializes calls to Correlate.
type Engine struct {
	store     Store
	window    time.Duration
	threshold float64
	maxTerms  int
	now       func() time.Time
}

// New builds an engine. window bounds how far back candidate groups are
// considered; threshold is the minimum term overlap to join one.
func New(store Store, window time.Duration, threshold float64, maxTerms int) *Engine {
	return &Engine{
		store:     store,
		window:    window,
		threshold: threshold,
		maxTerms:  maxTerms,
		now:       time.Now,
	}
}

// Correlate matches one item against recent groups and either joins the best
// match or, for feed articles, seeds a new group. Discussion threads that
// match nothing stay ungrouped; a later article on the same event will not
// retroactively claim them. Returns the assigned group ID, or "" if the item
// stays ungrouped.
func (e *Engine) Correlate(item *model.Item) (string, error) {
	if item.Kind == model.KindDiscussionComment {
		return "", nil
	}

	terms := ExtractTerms(item.Title, item.Body, e.maxTerms)
	if len(terms) == 0 {
		return "", nil
	}

	since := e.now().UTC().Add(-e.window)
	groups, err := e.store.GroupsSince(since)
	if err != nil {
		return "", fmt.Errorf("loading candidate groups: %w", err)
	}

	// Candidates arrive oldest first; a strictly better overlap is required
	// to switch, so ties join the earliest matching group.
	var best *model.CorrelationGroup
	bestOverlap := 0.0
	for i := range groups {
		if ov := Overlap(terms, groups[i].Terms); ov >= e.threshold && ov > bestOverlap {
			best = &groups[i]
			bestOverlap = ov
		}
	}

	if best != nil {
		e.join(best, item, terms)
		if err := e.store.SaveGroup(best); err != nil {
			return "", fmt.Errorf("saving group %s: %w", best.ID, err)
		}
		if err := e.store.AssignGroup(item.ID, best.ID); err != nil {
			return "", fmt.Errorf("assigning item %s to group %s: %w", item.ID, best.ID, err)
		}
		item.GroupID = best.ID
		return best.ID, nil
	}

	// Only articles seed groups. A discussion thread alone is not evidence
	// of a cross-source event.
	if item.Kind != model.KindFeedArticle {
		return "", nil
	}

	group := model.CorrelationGroup{
		ID:        uuid.NewString(),
		MemberIDs: []string{item.ID},
		Terms:     terms,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.SaveGroup(&group); err != nil {
		return "", fmt.Errorf("creating group for item %s: %w", item.ID, err)
	}
	if err := e.store.AssignGroup(item.ID, group.ID); err != nil {
		return "", fmt.Errorf("assigning item %s to new group %s: %w", item.ID, group.ID, err)
	}
	item.GroupID = group.ID
	return group.ID, nil
}

// join adds the item to the group and folds in its terms. The term list is
// capped at maxTerms; when full, the oldest terms are evicted first.
func (e *Engine) join(g *model.CorrelationGroup, item *model.Item, terms []string) {
	for _, id := range g.MemberIDs {
		if id == item.ID {
			return
		}
	}
	g.MemberIDs = append(g.MemberIDs, item.ID)

	have := map[string]bool{}
	for _, t := range g.Terms {
		have[t] = true
	}
	for _, t := range terms {
		if !have[t] {
			have[t] = true
			g.Terms = append(g.Terms, t)
		}
	}
	if e.maxTerms > 0 && len(g.Terms) > e.maxTerms {
		g.Terms = g.Terms[len(g.Terms)-e.maxTerms:]
	}
}
