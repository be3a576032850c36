package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quillstream/quillstream/internal/logging"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store handles persistence of the corpus.
//
// Individual operations are atomic. Sequences of operations
// (read-modify-write across dedup and correlation) require external
// synchronization; the pipeline holds a single-writer lock for those stages.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
//
// The database is created if it doesn't exist, and migrations are applied
// automatically.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source_name TEXT NOT NULL,
		category TEXT,
		title TEXT,
		body TEXT,
		url TEXT,
		author TEXT,
		parent_id TEXT,
		published_at DATETIME NOT NULL,
		fetched_at DATETIME NOT NULL,
		score INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		fingerprint INTEGER DEFAULT 0,
		importance REAL DEFAULT 0,
		group_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_published ON items(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);
	CREATE INDEX IF NOT EXISTS idx_items_author ON items(author);
	CREATE INDEX IF NOT EXISTS idx_items_importance ON items(importance DESC);

	CREATE TABLE IF NOT EXISTS sentiment_summaries (
		thread_id TEXT PRIMARY KEY,
		overall REAL NOT NULL,
		confidence REAL NOT NULL,
		consensus TEXT NOT NULL,
		dissent_count INTEGER DEFAULT 0,
		sample_size INTEGER DEFAULT 0,
		key_themes TEXT,
		analyzed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS correlation_groups (
		id TEXT PRIMARY KEY,
		member_ids TEXT NOT NULL,
		terms TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_groups_created ON correlation_groups(created_at DESC);

	CREATE TABLE IF NOT EXISTS ingest_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		fetched INTEGER DEFAULT 0,
		malformed INTEGER DEFAULT 0,
		inserted INTEGER DEFAULT 0,
		merged INTEGER DEFAULT 0,
		rejected TEXT,
		failed_feeds INTEGER DEFAULT 0,
		correlated INTEGER DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// UpsertItem inserts an item, or updates the mutable fields (engagement,
// fetch time) in place when the id already exists. The fingerprint is only
// written on first insert.
func (s *Store) UpsertItem(item *Item) error {
	_, err := s.db.Exec(`
		INSERT INTO items (id, kind, source_name, category, title, body, url, author, parent_id,
			published_at, fetched_at, score, comments, fingerprint, importance, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			score = excluded.score,
			comments = excluded.comments,
			fetched_at = excluded.fetched_at
	`,
		item.ID, string(item.Kind), item.SourceName, item.Category, item.Title, item.Body,
		item.URL, item.Author, item.ParentID,
		item.Published.UTC(), item.Fetched.UTC(),
		item.Engagement.Score, item.Engagement.Comments,
		int64(item.Fingerprint), item.Importance, nullString(item.GroupID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// MergeItem folds a near-duplicate into an existing item: engagement counts
// take the maximum, published_at keeps the earliest. Runs in a transaction.
func (s *Store) MergeItem(existingID string, eng Engagement, published, fetched time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var score, comments int
	var existing time.Time
	err = tx.QueryRow(
		"SELECT score, comments, published_at FROM items WHERE id = ?", existingID,
	).Scan(&score, &comments, &existing)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item not found: %s", existingID)
	}
	if err != nil {
		return fmt.Errorf("failed to read item for merge: %w", err)
	}

	if eng.Score > score {
		score = eng.Score
	}
	if eng.Comments > comments {
		comments = eng.Comments
	}
	if !published.IsZero() && published.UTC().Before(existing) {
		existing = published.UTC()
	}

	_, err = tx.Exec(`
		UPDATE items SET score = ?, comments = ?, published_at = ?, fetched_at = ?
		WHERE id = ?
	`, score, comments, existing, fetched.UTC(), existingID)
	if err != nil {
		return fmt.Errorf("failed to merge item: %w", err)
	}

	return tx.Commit()
}

// GetItem retrieves a single item by id. Returns nil when not found.
func (s *Store) GetItem(id string) (*Item, error) {
	rows, err := s.db.Query(itemColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

const itemColumns = `
	SELECT id, kind, source_name, category, title, body, url, author, parent_id,
		published_at, fetched_at, score, comments, fingerprint, importance, group_id
	FROM items`

// ItemsSince retrieves items published after a given time, newest first.
func (s *Store) ItemsSince(since time.Time) ([]Item, error) {
	rows, err := s.db.Query(itemColumns+`
		WHERE published_at > ?
		ORDER BY published_at DESC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ItemsByCategory retrieves items with a category tag, newest first.
func (s *Store) ItemsByCategory(category string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(itemColumns+`
		WHERE category = ?
		ORDER BY published_at DESC
		LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// TopByImportance retrieves items at or above a minimum importance score,
// highest first. Comments are excluded; they rank through their thread.
func (s *Store) TopByImportance(limit int, minImportance float64) ([]Item, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(itemColumns+`
		WHERE importance >= ? AND kind != ?
		ORDER BY importance DESC, id ASC
		LIMIT ?
	`, minImportance, string(KindDiscussionComment), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// RecentItems retrieves the newest non-comment items.
func (s *Store) RecentItems(limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(itemColumns+`
		WHERE kind != ?
		ORDER BY published_at DESC
		LIMIT ?
	`, string(KindDiscussionComment), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// CommentsForThread retrieves all comments belonging to a thread.
func (s *Store) CommentsForThread(threadID string) ([]Item, error) {
	rows, err := s.db.Query(itemColumns+`
		WHERE kind = ? AND parent_id = ?
		ORDER BY published_at ASC
	`, string(KindDiscussionComment), threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// AuthorComments retrieves an author's recent comments, oldest first.
// Used by the bot heuristics in the quality filter.
func (s *Store) AuthorComments(author string, since time.Time) ([]Item, error) {
	rows, err := s.db.Query(itemColumns+`
		WHERE kind = ? AND author = ? AND published_at > ?
		ORDER BY published_at ASC
	`, string(KindDiscussionComment), author, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query author comments: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// FingerprintRow is the minimal projection used by the dedup window scan.
// Title and body ride along so sparse signatures can fall back to text
// comparison.
type FingerprintRow struct {
	ID          string
	Fingerprint uint64
	Title       string
	Body        string
}

// RecentFingerprints returns id/fingerprint pairs for items of one source
// kind fetched within the recency window, oldest first so earlier items win
// similarity ties deterministically.
func (s *Store) RecentFingerprints(kind SourceKind, since time.Time) ([]FingerprintRow, error) {
	rows, err := s.db.Query(`
		SELECT id, fingerprint, title, body FROM items
		WHERE kind = ? AND fetched_at > ? AND fingerprint != 0
		ORDER BY fetched_at ASC, id ASC
	`, string(kind), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	var result []FingerprintRow
	for rows.Next() {
		var r FingerprintRow
		var fp int64
		if err := rows.Scan(&r.ID, &fp, &r.Title, &r.Body); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		r.Fingerprint = uint64(fp)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// UpdateImportance writes a recomputed importance score.
func (s *Store) UpdateImportance(id string, importance float64) error {
	result, err := s.db.Exec("UPDATE items SET importance = ? WHERE id = ?", importance, id)
	if err != nil {
		return fmt.Errorf("failed to update importance: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item not found: %s", id)
	}
	return nil
}

// AssignGroup sets an item's correlation group back-reference.
func (s *Store) AssignGroup(itemID, groupID string) error {
	result, err := s.db.Exec("UPDATE items SET group_id = ? WHERE id = ?", nullString(groupID), itemID)
	if err != nil {
		return fmt.Errorf("failed to assign group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item not found: %s", itemID)
	}
	return nil
}

// SaveSentiment upserts a thread's sentiment summary.
func (s *Store) SaveSentiment(sum SentimentSummary) error {
	themes, err := json.Marshal(sum.KeyThemes)
	if err != nil {
		return fmt.Errorf("failed to marshal themes: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sentiment_summaries (thread_id, overall, confidence, consensus, dissent_count, sample_size, key_themes, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			overall = excluded.overall,
			confidence = excluded.confidence,
			consensus = excluded.consensus,
			dissent_count = excluded.dissent_count,
			sample_size = excluded.sample_size,
			key_themes = excluded.key_themes,
			analyzed_at = excluded.analyzed_at
	`, sum.ThreadID, sum.Overall, sum.Confidence, string(sum.Consensus),
		sum.DissentCount, sum.SampleSize, string(themes), sum.AnalyzedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save sentiment: %w", err)
	}
	return nil
}

// GetSentiment retrieves a thread's sentiment summary. Returns nil when the
// thread has not been analyzed.
func (s *Store) GetSentiment(threadID string) (*SentimentSummary, error) {
	var sum SentimentSummary
	var consensus string
	var themes sql.NullString
	err := s.db.QueryRow(`
		SELECT thread_id, overall, confidence, consensus, dissent_count, sample_size, key_themes, analyzed_at
		FROM sentiment_summaries WHERE thread_id = ?
	`, threadID).Scan(&sum.ThreadID, &sum.Overall, &sum.Confidence, &consensus,
		&sum.DissentCount, &sum.SampleSize, &themes, &sum.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sentiment: %w", err)
	}
	sum.Consensus = ConsensusLabel(consensus)
	if themes.Valid && themes.String != "" {
		if err := json.Unmarshal([]byte(themes.String), &sum.KeyThemes); err != nil {
			logging.Warn("Corrupt key_themes column", "thread_id", threadID, "error", err)
		}
	}
	return &sum, nil
}

// SaveGroup upserts a correlation group.
func (s *Store) SaveGroup(g *CorrelationGroup) error {
	members, err := json.Marshal(g.MemberIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal members: %w", err)
	}
	terms, err := json.Marshal(g.Terms)
	if err != nil {
		return fmt.Errorf("failed to marshal terms: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO correlation_groups (id, member_ids, terms, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_ids = excluded.member_ids,
			terms = excluded.terms
	`, g.ID, string(members), string(terms), g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

// GetGroup retrieves a correlation group by id. Returns nil when not found.
func (s *Store) GetGroup(id string) (*CorrelationGroup, error) {
	row := s.db.QueryRow(`
		SELECT id, member_ids, terms, created_at FROM correlation_groups WHERE id = ?
	`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// GroupsSince retrieves correlation groups created after a given time,
// oldest first so the correlator's tie-break (earliest group wins) falls out
// of iteration order.
func (s *Store) GroupsSince(since time.Time) ([]CorrelationGroup, error) {
	rows, err := s.db.Query(`
		SELECT id, member_ids, terms, created_at FROM correlation_groups
		WHERE created_at > ?
		ORDER BY created_at ASC, id ASC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []CorrelationGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return groups, nil
}

// GroupSizes returns member counts for all groups created since a cutoff.
func (s *Store) GroupSizes(since time.Time) (map[string]int, error) {
	groups, err := s.GroupsSince(since)
	if err != nil {
		return nil, err
	}
	sizes := make(map[string]int, len(groups))
	for _, g := range groups {
		sizes[g.ID] = len(g.MemberIDs)
	}
	return sizes, nil
}

// SaveCycleStats appends one ingest cycle's diagnostics.
func (s *Store) SaveCycleStats(c CycleStats) error {
	rejected, err := json.Marshal(c.Rejected)
	if err != nil {
		return fmt.Errorf("failed to marshal rejection tally: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO ingest_cycles (started_at, duration_ms, fetched, malformed, inserted, merged, rejected, failed_feeds, correlated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.StartedAt.UTC(), c.Duration.Milliseconds(), c.Fetched, c.Malformed,
		c.Inserted, c.Merged, string(rejected), c.FailedFeeds, c.Correlated)
	if err != nil {
		return fmt.Errorf("failed to save cycle stats: %w", err)
	}
	return nil
}

// LastCycleStats retrieves the most recent ingest cycle's diagnostics.
// Returns nil when no cycle has run yet.
func (s *Store) LastCycleStats() (*CycleStats, error) {
	var c CycleStats
	var durationMS int64
	var rejected sql.NullString
	err := s.db.QueryRow(`
		SELECT started_at, duration_ms, fetched, malformed, inserted, merged, rejected, failed_feeds, correlated
		FROM ingest_cycles ORDER BY id DESC LIMIT 1
	`).Scan(&c.StartedAt, &durationMS, &c.Fetched, &c.Malformed, &c.Inserted,
		&c.Merged, &rejected, &c.FailedFeeds, &c.Correlated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle stats: %w", err)
	}
	c.Duration = time.Duration(durationMS) * time.Millisecond
	if rejected.Valid && rejected.String != "" {
		if err := json.Unmarshal([]byte(rejected.String), &c.Rejected); err != nil {
			logging.Warn("Corrupt rejected column in ingest_cycles", "error", err)
		}
	}
	return &c, nil
}

// ItemCount returns total item count, optionally restricted to one kind.
func (s *Store) ItemCount(kind SourceKind) (int, error) {
	var count int
	var err error
	if kind == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM items WHERE kind = ?", string(kind)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// GroupCount returns total correlation group count.
func (s *Store) GroupCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM correlation_groups").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*CorrelationGroup, error) {
	var g CorrelationGroup
	var members, terms string
	if err := row.Scan(&g.ID, &members, &terms, &g.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}
	if err := json.Unmarshal([]byte(members), &g.MemberIDs); err != nil {
		return nil, fmt.Errorf("corrupt member_ids column: %w", err)
	}
	if err := json.Unmarshal([]byte(terms), &g.Terms); err != nil {
		return nil, fmt.Errorf("corrupt terms column: %w", err)
	}
	return &g, nil
}

// scanItems scans rows into items, handling the common scanning logic.
func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var kind string
		var fp int64
		var groupID sql.NullString
		err := rows.Scan(
			&item.ID,
			&kind,
			&item.SourceName,
			&item.Category,
			&item.Title,
			&item.Body,
			&item.URL,
			&item.Author,
			&item.ParentID,
			&item.Published,
			&item.Fetched,
			&item.Engagement.Score,
			&item.Engagement.Comments,
			&fp,
			&item.Importance,
			&groupID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Kind = SourceKind(kind)
		item.Fingerprint = uint64(fp)
		item.GroupID = groupID.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
