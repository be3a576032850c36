// Package ranking computes importance scores for corpus items.
// Rankers are stateless (item, context) -> factor functions; the composite
// multiplies the factors together so that any single collapsed factor
// (e.g. very old content) suppresses the final score.
package ranking

import (
	"sort"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

// Ranker produces one multiplicative factor for an item.
// Implementations must be stateless and safe for concurrent use.
type Ranker interface {
	// Name returns a unique identifier for this ranker
	Name() string

	// Score returns a non-negative factor (1.0 = neutral)
	Score(item *model.Item, ctx *Context) float64
}

// Context provides data rankers may need for scoring decisions.
// Not all rankers use all fields - take what you need.
type Context struct {
	Now time.Time // anchor for recency decay

	// Category name -> weight multiplier; absent categories score 1.0
	CategoryWeights map[string]float64

	// Group ID -> member count, for the cross-source boost
	GroupSizes map[string]int

	// Thread ID -> sentiment summary, for the signal-strength boost
	Sentiments map[string]model.SentimentSummary
}

// NewContext creates a context anchored at now.
func NewContext(now time.Time) *Context {
	return &Context{
		Now:             now,
		CategoryWeights: make(map[string]float64),
		GroupSizes:      make(map[string]int),
		Sentiments:      make(map[string]model.SentimentSummary),
	}
}

// WithCategoryWeights sets the per-category multipliers.
func (c *Context) WithCategoryWeights(weights map[string]float64) *Context {
	if weights != nil {
		c.CategoryWeights = weights
	}
	return c
}

// WithGroupSizes sets correlation group member counts.
func (c *Context) WithGroupSizes(sizes map[string]int) *Context {
	if sizes != nil {
		c.GroupSizes = sizes
	}
	return c
}

// WithSentiments sets per-thread sentiment summaries.
func (c *Context) WithSentiments(s map[string]model.SentimentSummary) *Context {
	if s != nil {
		c.Sentiments = s
	}
	return c
}

// Result holds a scored item.
type Result struct {
	Item  model.Item
	Score float64
}

// Rank scores all items and returns them sorted by score descending.
// Ties break on item ID so repeated runs over the same corpus state
// produce the same order.
func Rank(items []model.Item, ranker Ranker, ctx *Context) []Result {
	results := make([]Result, len(items))
	for i := range items {
		results[i] = Result{Item: items[i], Score: ranker.Score(&items[i], ctx)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	return results
}

// TopN returns the n highest-scored items.
func TopN(items []model.Item, n int, ranker Ranker, ctx *Context) []model.Item {
	results := Rank(items, ranker, ctx)
	if n > len(results) {
		n = len(results)
	}
	top := make([]model.Item, n)
	for i := 0; i < n; i++ {
		top[i] = results[i].Item
	}
	return top
}
