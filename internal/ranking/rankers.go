package ranking

import (
	"math"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

// RecencyRanker decays scores exponentially with age.
type RecencyRanker struct {
	// HalfLife is how long until the factor drops to 0.5
	HalfLife time.Duration
}

func NewRecencyRanker(halfLife time.Duration) *RecencyRanker {
	if halfLife <= 0 {
		halfLife = 18 * time.Hour
	}
	return &RecencyRanker{HalfLife: halfLife}
}

func (r *RecencyRanker) Name() string { return "recency" }

func (r *RecencyRanker) Score(item *model.Item, ctx *Context) float64 {
	age := ctx.Now.Sub(item.Published)
	if age < 0 {
		age = 0 // Future-dated items treated as brand new
	}
	halfLives := float64(age) / float64(r.HalfLife)
	return math.Pow(0.5, halfLives)
}

// CategoryRanker applies the configured per-category weight.
type CategoryRanker struct{}

func NewCategoryRanker() *CategoryRanker { return &CategoryRanker{} }

func (r *CategoryRanker) Name() string { return "category" }

func (r *CategoryRanker) Score(item *model.Item, ctx *Context) float64 {
	if w, ok := ctx.CategoryWeights[item.Category]; ok && w > 0 {
		return w
	}
	return 1.0
}

// EngagementRanker rewards upvotes and comment counts on a log scale so
// runaway threads don't dominate everything else.
type EngagementRanker struct{}

func NewEngagementRanker() *EngagementRanker { return &EngagementRanker{} }

func (r *EngagementRanker) Name() string { return "engagement" }

func (r *EngagementRanker) Score(item *model.Item, ctx *Context) float64 {
	total := item.Engagement.Total()
	if total <= 0 {
		return 1.0
	}
	return 1.0 + math.Log1p(float64(total))
}

// CorrelationRanker boosts items covered by multiple sources.
// Singleton groups and ungrouped items stay neutral.
type CorrelationRanker struct{}

func NewCorrelationRanker() *CorrelationRanker { return &CorrelationRanker{} }

func (r *CorrelationRanker) Name() string { return "correlation" }

func (r *CorrelationRanker) Score(item *model.Item, ctx *Context) float64 {
	if item.GroupID == "" {
		return 1.0
	}
	size := ctx.GroupSizes[item.GroupID]
	if size < 2 {
		return 1.0
	}
	// Size 2 -> 1.25, size 5 -> 1.4, size 10 -> 1.45
	return 1.0 + 0.5*(1.0-1.0/float64(size))
}

// SentimentRanker boosts threads whose community reaction is strong in
// either direction, with an extra bump for polarized threads.
type SentimentRanker struct{}

func NewSentimentRanker() *SentimentRanker { return &SentimentRanker{} }

func (r *SentimentRanker) Name() string { return "sentiment" }

func (r *SentimentRanker) Score(item *model.Item, ctx *Context) float64 {
	if item.Kind != model.KindDiscussionThread {
		return 1.0
	}
	s, ok := ctx.Sentiments[item.ID]
	if !ok || s.SampleSize == 0 {
		return 1.0
	}
	factor := 1.0 + 0.3*math.Abs(s.Overall)
	if s.Consensus == model.Polarized {
		factor += 0.2
	}
	return factor
}

// DefaultRanker is the standard importance composite.
func DefaultRanker(halfLife time.Duration) Ranker {
	return NewComposite("importance").
		Add(NewRecencyRanker(halfLife)).
		Add(NewCategoryRanker()).
		Add(NewEngagementRanker()).
		Add(NewCorrelationRanker()).
		Add(NewSentimentRanker())
}
