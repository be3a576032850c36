// Package pipeline runs the ingest cycle: fetch from every configured
// source, normalize, quality-screen, deduplicate, analyze sentiment,
// correlate, and re-score importance.
//
// Fetching is concurrent; every corpus write happens on the cycle goroutine,
// so the store sees a single writer per cycle. Cycles themselves must not
// overlap; callers run one at a time.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/quillstream/quillstream/internal/config"
	"github.com/quillstream/quillstream/internal/correlation"
	"github.com/quillstream/quillstream/internal/dedup"
	"github.com/quillstream/quillstream/internal/logging"
	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/normalize"
	"github.com/quillstream/quillstream/internal/quality"
	"github.com/quillstream/quillstream/internal/ranking"
	"github.com/quillstream/quillstream/internal/sentiment"
	"github.com/quillstream/quillstream/internal/sources"
)

// How far back author history reaches for bot detection.
const authorHistoryWindow = 7 * 24 * time.Hour

// Pipeline wires the ingest stages around one corpus store.
type Pipeline struct {
	store      *model.Store
	cfg        *config.Config
	policy     quality.Policy
	deduper    *dedup.Deduper
	correlator *correlation.Engine
	ranker     ranking.Ranker
	now        func() time.Time
}

// New builds a pipeline from configuration.
func New(store *model.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{
		store: store,
		cfg:   cfg,
		policy: quality.NewPolicy(
			cfg.Quality.MinReputation,
			time.Duration(cfg.Quality.MinAccountAgeDays)*24*time.Hour,
			cfg.Quality.MinEngagement,
			cfg.Quality.ExcludedKeywords,
		),
		deduper: dedup.New(
			store,
			time.Duration(cfg.Dedup.WindowHours)*time.Hour,
			cfg.Dedup.Threshold,
			cfg.Dedup.StripStopWords,
		),
		correlator: correlation.New(
			store,
			time.Duration(cfg.Correlation.WindowHours)*time.Hour,
			cfg.Correlation.Threshold,
			cfg.Correlation.MaxTerms,
		),
		ranker: ranking.DefaultRanker(time.Duration(cfg.Importance.HalfLifeHours * float64(time.Hour))),
		now:    time.Now,
	}
}

type fetchResult struct {
	source   string
	payloads []sources.RawPayload
	err      error
}

// RunCycle executes one full ingest cycle over the given sources and
// persists its stats. Source failures are absorbed; storage failures abort.
func (p *Pipeline) RunCycle(ctx context.Context, srcs []sources.Source) (model.CycleStats, error) {
	start := p.now().UTC()
	stats := model.CycleStats{
		StartedAt: start,
		Rejected:  map[string]int{},
	}

	results := p.fetchAll(ctx, srcs)

	// Ingest proper: everything from here writes the corpus and runs on
	// this goroutine only.
	var touched []string
	threadsWithNewComments := map[string]bool{}

	for _, res := range results {
		if res.err != nil {
			stats.FailedFeeds++
			logging.Warn("source fetch failed", "source", res.source, "error", res.err)
			if len(res.payloads) == 0 {
				continue
			}
			// Partial results still count.
		}
		for _, payload := range res.payloads {
			stats.Fetched++

			item, ok := normalize.Normalize(payload)
			if !ok {
				stats.Malformed++
				continue
			}

			verdict := p.checkQuality(item, payload)
			if !verdict.Accepted {
				stats.Rejected[verdict.Reason]++
				continue
			}

			outcome, err := p.deduper.Process(&item)
			if err != nil {
				return stats, &StorageError{Op: "dedup", Err: err}
			}
			switch outcome.Outcome {
			case dedup.Merged:
				stats.Merged++
				touched = append(touched, outcome.ExistingID)
			default:
				stats.Inserted++
				touched = append(touched, item.ID)
			}

			if item.Kind == model.KindDiscussionComment && item.ParentID != "" {
				threadsWithNewComments[item.ParentID] = true
			}
		}
	}

	if err := p.refreshSentiment(threadsWithNewComments); err != nil {
		return stats, err
	}

	correlated, err := p.correlateTouched(touched)
	if err != nil {
		return stats, err
	}
	stats.Correlated = correlated

	if err := p.rescore(touched); err != nil {
		return stats, err
	}

	stats.Duration = p.now().UTC().Sub(start)
	if err := p.store.SaveCycleStats(stats); err != nil {
		return stats, &StorageError{Op: "cycle stats", Err: err}
	}

	logging.Info("ingest cycle complete",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"merged", stats.Merged,
		"malformed", stats.Malformed,
		"rejected", stats.TotalRejected(),
		"failed_feeds", stats.FailedFeeds,
		"correlated", stats.Correlated,
		"duration", stats.Duration)
	return stats, nil
}

// fetchAll runs every source fetch concurrently and gathers the results.
func (p *Pipeline) fetchAll(ctx context.Context, srcs []sources.Source) []fetchResult {
	results := make([]fetchResult, len(srcs))
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			payloads, err := src.Fetch(ctx)
			if err != nil {
				err = &SourceError{Source: src.Name(), Err: err}
			}
			results[i] = fetchResult{source: src.Name(), payloads: payloads, err: err}
		}(i, src)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) checkQuality(item model.Item, payload sources.RawPayload) quality.Verdict {
	author := quality.AuthorStats{
		Karma:   payload.AuthorKarma,
		Created: payload.AuthorCreated,
	}

	var history []quality.HistoryEntry
	if p.cfg.Quality.BotHeuristics && item.Kind == model.KindDiscussionComment && item.Author != "" {
		prior, err := p.store.AuthorComments(item.Author, p.now().UTC().Add(-authorHistoryWindow))
		if err != nil {
			logging.Warn("author history lookup failed", "author", item.Author, "error", err)
		}
		for _, c := range prior {
			// A re-ingested comment is already in the store; its own copy
			// is not evidence of reposting.
			if c.ID == item.ID {
				continue
			}
			history = append(history, quality.HistoryEntry{
				Text:        c.Body,
				Fingerprint: c.Fingerprint,
				Posted:      c.Published,
			})
		}
	}

	return p.policy.Check(item, author, history, p.now().UTC())
}

// refreshSentiment recomputes summaries for threads that received comments
// this cycle. Scoring is pure and runs in parallel; the summary writes stay
// on the cycle goroutine.
func (p *Pipeline) refreshSentiment(threadIDs map[string]bool) error {
	if len(threadIDs) == 0 {
		return nil
	}

	type result struct {
		summary model.SentimentSummary
		err     error
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	summaries := make([]result, 0, len(threadIDs))
	for threadID := range threadIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			comments, err := p.store.CommentsForThread(id)
			if err != nil {
				mu.Lock()
				summaries = append(summaries, result{err: &StorageError{Op: "comments for thread", Err: err}})
				mu.Unlock()
				return
			}
			sum := sentiment.Aggregate(id, comments)
			mu.Lock()
			summaries = append(summaries, result{summary: sum})
			mu.Unlock()
		}(threadID)
	}
	wg.Wait()

	for _, r := range summaries {
		if r.err != nil {
			return r.err
		}
		if err := p.store.SaveSentiment(r.summary); err != nil {
			return &StorageError{Op: "save sentiment", Err: err}
		}
	}
	return nil
}

// correlateTouched runs the correlator over every item inserted or merged
// this cycle, in corpus order for deterministic grouping.
func (p *Pipeline) correlateTouched(ids []string) (int, error) {
	correlated := 0
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		item, err := p.store.GetItem(id)
		if err != nil {
			return correlated, &StorageError{Op: "load item", Err: err}
		}
		if item == nil {
			continue
		}
		groupID, err := p.correlator.Correlate(item)
		if err != nil {
			return correlated, &StorageError{Op: "correlate", Err: err}
		}
		if groupID != "" {
			correlated++
		}
	}
	return correlated, nil
}

// rescore recomputes importance for every touched item plus the rest of any
// group a touched item belongs to, since a group growing changes the score
// of all its members.
func (p *Pipeline) rescore(ids []string) error {
	groupSizes, err := p.store.GroupSizes(time.Time{})
	if err != nil {
		return &StorageError{Op: "group sizes", Err: err}
	}

	rctx := ranking.NewContext(p.now().UTC()).
		WithCategoryWeights(p.cfg.Importance.CategoryWeights).
		WithGroupSizes(groupSizes)

	pending := map[string]bool{}
	for _, id := range ids {
		pending[id] = true
	}

	sentiments := map[string]model.SentimentSummary{}
	done := map[string]bool{}
	for len(pending) > 0 {
		var id string
		for k := range pending {
			id = k
			break
		}
		delete(pending, id)
		if done[id] {
			continue
		}
		done[id] = true

		item, err := p.store.GetItem(id)
		if err != nil {
			return &StorageError{Op: "load item", Err: err}
		}
		if item == nil {
			continue
		}

		if item.Kind == model.KindDiscussionThread {
			if _, ok := sentiments[item.ID]; !ok {
				if sum, err := p.store.GetSentiment(item.ID); err == nil && sum != nil {
					sentiments[item.ID] = *sum
				}
			}
		}
		rctx.Sentiments = sentiments

		score := p.ranker.Score(item, rctx)
		if err := p.store.UpdateImportance(item.ID, score); err != nil {
			return &StorageError{Op: "update importance", Err: err}
		}

		// Pull in the rest of the item's group.
		if item.GroupID != "" {
			group, err := p.store.GetGroup(item.GroupID)
			if err != nil {
				return &StorageError{Op: "load group", Err: err}
			}
			if group != nil {
				for _, member := range group.MemberIDs {
					if !done[member] {
						pending[member] = true
					}
				}
			}
		}
	}
	return nil
}
