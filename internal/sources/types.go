// Package sources defines the adapter interface between external content
// APIs and the normalizer. Adapters fetch raw payloads and annotate them
// with the configuration they were fetched under; everything downstream of
// normalization only sees canonical items.
package sources

import (
	"context"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

// Config is the per-source configuration a payload was fetched under.
type Config struct {
	Name     string // Display name: "BBC News", "b/technology"
	Category string // Topical tag applied at normalization
	MinScore int    // Board listings drop threads below this score
}

// RawPayload is one unit of content as a source adapter saw it, before
// normalization. Missing engagement fields stay zero.
type RawPayload struct {
	Kind           model.SourceKind
	NativeID       string
	Title          string
	Body           string
	URL            string
	Author         string
	ParentNativeID string // Comments only: native id of the parent thread
	Published      time.Time
	Fetched        time.Time
	Score          int
	Comments       int

	// Author metadata for the quality filter; board adapters only.
	AuthorKarma   int
	AuthorCreated time.Time

	Config Config
}

// Source is the interface all content adapters implement.
type Source interface {
	// Name returns the human-readable source name
	Name() string

	// Kind returns the primary kind of content this source produces
	Kind() model.SourceKind

	// Fetch retrieves the latest payloads from this source. On error it may
	// return the payloads obtained so far along with the error.
	Fetch(ctx context.Context) ([]RawPayload, error)
}
