package ranking

import "github.com/quillstream/quillstream/internal/model"

// CompositeRanker multiplies the factors of its member rankers.
// A factor of 1.0 from every member leaves the score at 1.0.
type CompositeRanker struct {
	name    string
	rankers []Ranker
}

// NewComposite creates an empty composite ranker.
func NewComposite(name string) *CompositeRanker {
	return &CompositeRanker{name: name}
}

// Add appends a ranker. Returns the composite for chaining.
func (c *CompositeRanker) Add(ranker Ranker) *CompositeRanker {
	c.rankers = append(c.rankers, ranker)
	return c
}

func (c *CompositeRanker) Name() string { return c.name }

func (c *CompositeRanker) Score(item *model.Item, ctx *Context) float64 {
	if len(c.rankers) == 0 {
		return 0
	}
	score := 1.0
	for _, r := range c.rankers {
		score *= r.Score(item, ctx)
	}
	return score
}
