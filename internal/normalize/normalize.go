// Package normalize converts raw source payloads into canonical items.
//
// Normalization is idempotent: the same payload always yields the same item
// id, so re-ingesting content updates in place instead of duplicating.
// Fingerprints and scores are computed downstream, not here.
package normalize

import (
	"strings"

	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/sources"
)

// Normalize converts a raw payload into a canonical Item. The second return
// is false when the payload fails the minimal-field contract (no title and no
// body, or no native id, or no timestamp); such payloads are dropped, not
// errored.
func Normalize(p sources.RawPayload) (model.Item, bool) {
	title := strings.TrimSpace(p.Title)
	body := strings.TrimSpace(p.Body)

	if p.NativeID == "" {
		return model.Item{}, false
	}
	if title == "" && body == "" {
		return model.Item{}, false
	}
	if p.Published.IsZero() {
		return model.Item{}, false
	}

	item := model.Item{
		ID:         model.ItemID(p.Kind, p.NativeID),
		Kind:       p.Kind,
		SourceName: p.Config.Name,
		Category:   p.Config.Category,
		Title:      title,
		Body:       body,
		URL:        p.URL,
		Author:     p.Author,
		Published:  p.Published.UTC(),
		Fetched:    p.Fetched.UTC(),
		Engagement: model.Engagement{
			Score:    p.Score,
			Comments: p.Comments,
		},
	}

	if p.Kind == model.KindDiscussionComment && p.ParentNativeID != "" {
		item.ParentID = model.ItemID(model.KindDiscussionThread, p.ParentNativeID)
	}

	return item, true
}
