// Package briefing assembles the top of the corpus into a narrated daily
// briefing. The item selection and prompt are deterministic; only the
// narration itself comes from a model provider.
package briefing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quillstream/quillstream/internal/brain"
	"github.com/quillstream/quillstream/internal/logging"
	"github.com/quillstream/quillstream/internal/model"
)

const (
	defaultItemLimit = 30
	maxBodyExcerpt   = 280
)

// Corpus is the read surface the builder needs.
type Corpus interface {
	TopByImportance(limit int, minImportance float64) ([]model.Item, error)
	GetSentiment(threadID string) (*model.SentimentSummary, error)
	GetGroup(id string) (*model.CorrelationGroup, error)
}

// Builder selects and formats briefing content.
type Builder struct {
	corpus    Corpus
	providers *brain.Manager
	limit     int
}

// New creates a builder. limit <= 0 uses the default item count.
func New(corpus Corpus, providers *brain.Manager, limit int) *Builder {
	if limit <= 0 {
		limit = defaultItemLimit
	}
	return &Builder{corpus: corpus, providers: providers, limit: limit}
}

// Briefing is an assembled briefing, with the narration when a provider
// was available and the structured fallback otherwise.
type Briefing struct {
	GeneratedAt time.Time
	Items       []model.Item
	Prompt      string
	Narrative   string
	Model       string
}

// Build assembles the briefing. When no provider is configured or the
// generation fails, the briefing still returns with the structured digest
// in Narrative so the command never produces nothing from a full corpus.
func (b *Builder) Build(ctx context.Context) (*Briefing, error) {
	items, err := b.corpus.TopByImportance(b.limit, 0)
	if err != nil {
		return nil, fmt.Errorf("selecting briefing items: %w", err)
	}

	br := &Briefing{
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}
	if len(items) == 0 {
		br.Narrative = "Nothing in the corpus yet. Run an ingest cycle first."
		return br, nil
	}

	digest := b.digest(items)
	br.Prompt = b.prompt(digest)

	provider := b.providers.Available()
	if provider == nil {
		logging.Warn("no model provider available, returning structured digest")
		br.Narrative = digest
		return br, nil
	}

	resp, err := provider.Generate(ctx, brain.Request{
		SystemPrompt: briefingSystemPrompt,
		UserPrompt:   br.Prompt,
		MaxTokens:    4096,
	})
	if err != nil {
		logging.Error("briefing narration failed, falling back to digest", "provider", provider.Name(), "error", err)
		br.Narrative = digest
		return br, nil
	}

	br.Narrative = resp.Content
	br.Model = resp.Model
	return br, nil
}

const briefingSystemPrompt = `You are a news briefing writer. Summarize only the stories provided below. Do not add outside knowledge, do not speculate, and do not invent stories. Group related stories together and note community reaction where it is given.`

// digest renders the selected items as a category-sectioned outline,
// importance order within each section.
func (b *Builder) digest(items []model.Item) string {
	byCategory := map[string][]model.Item{}
	var categories []string
	for _, item := range items {
		cat := item.Category
		if cat == "" {
			cat = "general"
		}
		if _, ok := byCategory[cat]; !ok {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], item)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&sb, "## %s\n\n", strings.ToUpper(cat))
		for _, item := range byCategory[cat] {
			b.writeItem(&sb, item)
		}
	}
	return sb.String()
}

func (b *Builder) writeItem(sb *strings.Builder, item model.Item) {
	fmt.Fprintf(sb, "- [%s] %s (%s)\n", item.ID, item.Title, item.SourceName)
	if body := excerpt(item.Body); body != "" {
		fmt.Fprintf(sb, "  %s\n", body)
	}
	if item.Kind == model.KindDiscussionThread {
		if sum, err := b.corpus.GetSentiment(item.ID); err == nil && sum != nil && sum.SampleSize > 0 {
			fmt.Fprintf(sb, "  Community reaction: %s (score %+.2f, %d comments sampled", sum.Consensus, sum.Overall, sum.SampleSize)
			if sum.DissentCount > 0 {
				fmt.Fprintf(sb, ", %d dissenting", sum.DissentCount)
			}
			sb.WriteString(")\n")
			if len(sum.KeyThemes) > 0 {
				fmt.Fprintf(sb, "  Themes: %s\n", strings.Join(sum.KeyThemes, ", "))
			}
		}
	}
	if item.GroupID != "" {
		if group, err := b.corpus.GetGroup(item.GroupID); err == nil && group != nil && len(group.MemberIDs) > 1 {
			fmt.Fprintf(sb, "  Covered by %d sources\n", len(group.MemberIDs))
		}
	}
	sb.WriteString("\n")
}

func (b *Builder) prompt(digest string) string {
	var sb strings.Builder
	sb.WriteString("Write a briefing from these stories. Cover every section; lead with the most important items.\n\n")
	sb.WriteString(digest)
	return sb.String()
}

func excerpt(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if len(body) <= maxBodyExcerpt {
		return body
	}
	cut := strings.LastIndex(body[:maxBodyExcerpt], " ")
	if cut <= 0 {
		cut = maxBodyExcerpt
	}
	return body[:cut] + "..."
}
