// Package model provides the data layer for quillstream.
//
// The canonical Item is the unified representation that every source
// normalizes into before entering the pipeline. The SQLite store in this
// package is the source of truth for the corpus: all dedup, sentiment,
// importance and correlation state flows through it.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceKind identifies what class of content an Item carries.
type SourceKind string

const (
	KindFeedArticle       SourceKind = "feed_article"
	KindDiscussionThread  SourceKind = "discussion_thread"
	KindDiscussionComment SourceKind = "discussion_comment"
)

// Discussion reports whether the kind is a thread or comment.
func (k SourceKind) Discussion() bool {
	return k == KindDiscussionThread || k == KindDiscussionComment
}

// Engagement holds source-defined interaction counts.
// Absent fields stay zero.
type Engagement struct {
	Score    int // Upvotes / points
	Comments int // Reply or comment count
}

// Total returns the combined engagement signal.
func (e Engagement) Total() int {
	return e.Score + e.Comments
}

// Item is the canonical unit of content: an article, a discussion thread,
// or a single comment.
type Item struct {
	ID         string
	Kind       SourceKind
	SourceName string // "BBC News", "b/technology"
	Category   string // User-configured topical tag, set at normalization
	Title      string
	Body       string
	URL        string
	Author     string
	ParentID   string // Thread an item belongs to; comments only
	Published  time.Time
	Fetched    time.Time
	Engagement Engagement
	// Fingerprint is the content-similarity hash, computed once by the
	// deduplicator and immutable afterwards.
	Fingerprint uint64
	// Importance is recomputed whenever engagement, correlation membership
	// or sentiment changes.
	Importance float64
	// GroupID is the correlation group back-reference; empty if unmatched.
	GroupID string
}

// ItemID derives the stable identifier for an item. The same source kind
// and native id always yield the same ID, so re-ingesting updates rather
// than duplicates.
func ItemID(kind SourceKind, nativeID string) string {
	h := sha256.Sum256([]byte(string(kind) + ":" + nativeID))
	return hex.EncodeToString(h[:8])
}

// ConsensusLabel categorizes the agreement level among a thread's comments.
type ConsensusLabel string

const (
	StrongConsensus ConsensusLabel = "strong_consensus"
	Mixed           ConsensusLabel = "mixed"
	Polarized       ConsensusLabel = "polarized"
)

// SentimentSummary is the aggregated community sentiment for a
// discussion thread. A thread with zero qualifying comments still gets a
// summary (sample size 0, confidence 0, MIXED) so consumers never
// special-case nil.
type SentimentSummary struct {
	ThreadID     string
	Overall      float64 // [-1, 1]
	Confidence   float64 // [0, 1]; 0 when SampleSize is 0
	Consensus    ConsensusLabel
	DissentCount int
	SampleSize   int
	KeyThemes    []string
	AnalyzedAt   time.Time
}

// CorrelationGroup is a cluster of items judged to concern the same
// real-world event across sources.
type CorrelationGroup struct {
	ID        string
	MemberIDs []string // Insertion order = discovery order
	Terms     []string // Representative topic terms, insertion-ordered
	CreatedAt time.Time
}

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry in a session's append-only turn log.
// ReferencedItemIDs records exactly the items supplied to the generator
// as grounding context, not what the generator claims it used.
type ConversationTurn struct {
	Role              Role
	Text              string
	ReferencedItemIDs []string
	Timestamp         time.Time
}

// CycleStats captures per-cycle ingest diagnostics.
type CycleStats struct {
	StartedAt    time.Time
	Duration     time.Duration
	Fetched      int
	Malformed    int
	Inserted     int
	Merged       int
	Rejected     map[string]int // Quality-filter rejections by reason code
	FailedFeeds  int
	Correlated   int
}

// TotalRejected sums the quality-filter rejection tally.
func (c CycleStats) TotalRejected() int {
	n := 0
	for _, v := range c.Rejected {
		n += v
	}
	return n
}
