// Package rss fetches articles from RSS/Atom feeds.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/sources"
)

// Source fetches items from an RSS/Atom feed
type Source struct {
	cfg    sources.Config
	url    string
	client *http.Client
}

// New creates a new RSS source
func New(cfg sources.Config, url string, timeout time.Duration) *Source {
	return &Source{
		cfg: cfg,
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *Source) Name() string {
	return s.cfg.Name
}

func (s *Source) Kind() model.SourceKind {
	return model.KindFeedArticle
}

// Fetch retrieves the feed and converts entries to raw payloads.
// Respects context cancellation.
func (s *Source) Fetch(ctx context.Context) ([]sources.RawPayload, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "quillstream/0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	payloads := make([]sources.RawPayload, 0, len(feed.Items))

	for _, entry := range feed.Items {
		var published time.Time
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		body := entry.Content
		if body == "" {
			body = entry.Description
		}

		payloads = append(payloads, sources.RawPayload{
			Kind:      model.KindFeedArticle,
			NativeID:  nativeID(entry),
			Title:     entry.Title,
			Body:      body,
			URL:       entry.Link,
			Author:    author,
			Published: published,
			Fetched:   now,
			Config:    s.cfg,
		})
	}

	return payloads, nil
}

// nativeID picks the most stable identifier a feed entry offers.
// GUID first, then link, then title.
func nativeID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Link != "" {
		return entry.Link
	}
	return entry.Title
}
