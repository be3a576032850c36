// Package board fetches discussion threads and their comments from a
// reddit-style JSON listing API.
//
// The API contract is two endpoints:
//
//	GET <base>/top.json?limit=N           thread listing
//	GET <base>/comments/<id>.json?limit=N comment listing for one thread
//
// Both return {"data": {"children": [{"data": {...}}, ...]}}. Requests are
// rate limited; a comment-listing failure keeps the threads fetched so far.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quillstream/quillstream/internal/logging"
	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/sources"
	"golang.org/x/time/rate"
)

const defaultCommentLimit = 50

// Source fetches threads and comments from one board.
type Source struct {
	cfg     sources.Config
	baseURL string
	limit   int
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a board source. limit caps the thread listing size.
func New(cfg sources.Config, baseURL string, limit int, timeout time.Duration) *Source {
	if limit <= 0 {
		limit = 25
	}
	return &Source{
		cfg:     cfg,
		baseURL: baseURL,
		limit:   limit,
		client: &http.Client{
			Timeout: timeout,
		},
		// Boards throttle aggressively; stay well under typical limits.
		limiter: rate.NewLimiter(rate.Every(750*time.Millisecond), 1),
	}
}

func (s *Source) Name() string {
	return s.cfg.Name
}

func (s *Source) Kind() model.SourceKind {
	return model.KindDiscussionThread
}

// listing mirrors the board API envelope.
type listing struct {
	Data struct {
		Children []struct {
			Data entry `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// entry is a thread or comment as the board API returns it.
type entry struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Selftext         string  `json:"selftext"`
	Body             string  `json:"body"`
	Permalink        string  `json:"permalink"`
	Author           string  `json:"author"`
	AuthorKarma      int     `json:"author_karma"`
	AuthorCreatedUTC float64 `json:"author_created_utc"`
	Score            int     `json:"score"`
	NumComments      int     `json:"num_comments"`
	CreatedUTC       float64 `json:"created_utc"`
}

// Fetch retrieves the thread listing and each thread's comments. A failed
// comment listing is logged and skipped; the error is returned alongside
// whatever was fetched so the caller can decide whether partial results are
// usable.
func (s *Source) Fetch(ctx context.Context) ([]sources.RawPayload, error) {
	threads, err := s.fetchListing(ctx, fmt.Sprintf("%s/top.json?limit=%d", s.baseURL, s.limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread listing: %w", err)
	}

	now := time.Now()
	var payloads []sources.RawPayload
	var lastErr error

	for _, t := range threads {
		if t.Score < s.cfg.MinScore {
			continue
		}
		payloads = append(payloads, s.threadPayload(t, now))

		comments, err := s.fetchListing(ctx,
			fmt.Sprintf("%s/comments/%s.json?limit=%d", s.baseURL, t.ID, defaultCommentLimit))
		if err != nil {
			logging.Warn("Comment listing failed", "board", s.cfg.Name, "thread", t.ID, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				return payloads, ctx.Err()
			}
			continue
		}
		for _, c := range comments {
			payloads = append(payloads, s.commentPayload(c, t.ID, now))
		}
	}

	return payloads, lastErr
}

func (s *Source) fetchListing(ctx context.Context, url string) ([]entry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "quillstream/0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	entries := make([]entry, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		entries = append(entries, child.Data)
	}
	return entries, nil
}

func (s *Source) threadPayload(t entry, now time.Time) sources.RawPayload {
	return sources.RawPayload{
		Kind:          model.KindDiscussionThread,
		NativeID:      t.ID,
		Title:         t.Title,
		Body:          t.Selftext,
		URL:           t.Permalink,
		Author:        t.Author,
		Published:     fromUnix(t.CreatedUTC),
		Fetched:       now,
		Score:         t.Score,
		Comments:      t.NumComments,
		AuthorKarma:   t.AuthorKarma,
		AuthorCreated: fromUnix(t.AuthorCreatedUTC),
		Config:        s.cfg,
	}
}

func (s *Source) commentPayload(c entry, threadID string, now time.Time) sources.RawPayload {
	return sources.RawPayload{
		Kind:           model.KindDiscussionComment,
		NativeID:       c.ID,
		Body:           c.Body,
		URL:            c.Permalink,
		Author:         c.Author,
		ParentNativeID: threadID,
		Published:      fromUnix(c.CreatedUTC),
		Fetched:        now,
		Score:          c.Score,
		AuthorKarma:    c.AuthorKarma,
		AuthorCreated:  fromUnix(c.AuthorCreatedUTC),
		Config:         s.cfg,
	}
}

func fromUnix(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
