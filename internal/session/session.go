// Package session manages interactive reading sessions over the corpus.
// A session pins a snapshot of the corpus at open time; every answer is
// grounded in items from that snapshot and nothing else. Questions that
// match nothing in the snapshot are answered with a refusal rather than
// being passed to a model without context.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/quillstream/quillstream/internal/brain"
	"github.com/quillstream/quillstream/internal/logging"
	"github.com/quillstream/quillstream/internal/model"
)

// How many items a session pins at open time.
const snapshotLimit = 50

// State is the session lifecycle state.
type State string

const (
	Active State = "active"
	Closed State = "closed"
)

// ErrClosed is returned for any operation on a closed session.
var ErrClosed = errors.New("session is closed")

// ErrOutsideSnapshot is returned when a turn references items the session
// never pinned.
var ErrOutsideSnapshot = errors.New("turn references items outside the session snapshot")

// CorpusReader is the read-only corpus surface sessions use.
type CorpusReader interface {
	TopByImportance(limit int, minImportance float64) ([]model.Item, error)
	GetSentiment(threadID string) (*model.SentimentSummary, error)
}

// Options bound a session's context assembly.
type Options struct {
	MaxContextItems int
	MaxTurns        int
	MinImportance   float64
}

// Session is one interactive conversation over a pinned corpus snapshot.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	snapshot []model.Item
	pinned   map[string]int // item ID -> snapshot index
	turns    []model.ConversationTurn
	opts     Options
	corpus   CorpusReader
	provider brain.Provider
}

// Open pins the current top of the corpus and starts a session. A corpus
// with nothing above the importance floor still opens; every question will
// then get the no-content refusal.
func Open(corpus CorpusReader, provider brain.Provider, opts Options) (*Session, error) {
	if opts.MaxContextItems <= 0 {
		opts.MaxContextItems = 8
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 10
	}

	items, err := corpus.TopByImportance(snapshotLimit, opts.MinImportance)
	if err != nil {
		return nil, fmt.Errorf("pinning session snapshot: %w", err)
	}

	pinned := make(map[string]int, len(items))
	for i, item := range items {
		pinned[item.ID] = i
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		state:     Active,
		snapshot:  items,
		pinned:    pinned,
		opts:      opts,
		corpus:    corpus,
		provider:  provider,
	}
	logging.Info("session opened", "session", s.ID, "snapshot_items", len(items))
	return s, nil
}

// State reports the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close ends the session. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Closed {
		s.state = Closed
		logging.Info("session closed", "session", s.ID, "turns", len(s.turns))
	}
}

// Snapshot returns a copy of the pinned items, importance order.
func (s *Session) Snapshot() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Turns returns a copy of the full turn log.
func (s *Session) Turns() []model.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Ask answers one user input. Slash directives are resolved locally from
// the snapshot; free-form questions go to the provider with snapshot items
// as the only allowed context.
func (s *Session) Ask(ctx context.Context, input string) (model.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return model.ConversationTurn{}, ErrClosed
	}

	input = strings.TrimSpace(input)
	s.appendTurn(model.ConversationTurn{
		Role:      model.RoleUser,
		Text:      input,
		Timestamp: time.Now().UTC(),
	})

	if strings.HasPrefix(input, "/") {
		turn := s.directive(input)
		s.appendTurn(turn)
		return turn, nil
	}

	candidates := s.selectContext(input)
	if len(candidates) == 0 {
		turn := model.ConversationTurn{
			Role:      model.RoleAssistant,
			Text:      "I don't have anything in this session about that. Try /articles to see what was captured, or ingest more sources.",
			Timestamp: time.Now().UTC(),
		}
		s.appendTurn(turn)
		return turn, nil
	}

	if s.provider == nil || !s.provider.Available() {
		turn := model.ConversationTurn{
			Role:              model.RoleAssistant,
			Text:              "No model provider is configured. Relevant items:\n" + s.listItems(candidates),
			ReferencedItemIDs: itemIDs(candidates),
			Timestamp:         time.Now().UTC(),
		}
		s.appendTurn(turn)
		return turn, nil
	}

	prompt := s.buildPrompt(input, candidates)
	resp, err := s.provider.Generate(ctx, brain.Request{
		SystemPrompt: groundingInstructions,
		UserPrompt:   prompt,
		MaxTokens:    1024,
	})
	if err != nil {
		// Unwind the user turn so a retried question does not appear
		// twice in the log and the prompt window.
		s.turns = s.turns[:len(s.turns)-1]
		return model.ConversationTurn{}, fmt.Errorf("answering in session %s: %w", s.ID, err)
	}

	turn := model.ConversationTurn{
		Role:              model.RoleAssistant,
		Text:              resp.Content,
		ReferencedItemIDs: itemIDs(candidates),
		Timestamp:         time.Now().UTC(),
	}
	s.appendTurn(turn)
	return turn, nil
}

// RecordAssistantTurn appends an externally produced assistant turn after
// verifying its references stay inside the snapshot.
func (s *Session) RecordAssistantTurn(turn model.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return ErrClosed
	}
	for _, id := range turn.ReferencedItemIDs {
		if _, ok := s.pinned[id]; !ok {
			return fmt.Errorf("%w: %s", ErrOutsideSnapshot, id)
		}
	}
	s.appendTurn(turn)
	return nil
}

func (s *Session) appendTurn(turn model.ConversationTurn) {
	s.turns = append(s.turns, turn)
}

// recentTurns returns the sliding window of prior turns included in prompts.
func (s *Session) recentTurns() []model.ConversationTurn {
	if len(s.turns) <= s.opts.MaxTurns {
		return s.turns
	}
	return s.turns[len(s.turns)-s.opts.MaxTurns:]
}

// selectContext ranks snapshot items against the question by keyword
// overlap, weighted by importance, and returns the top MaxContextItems.
// Items with no overlapping terms never qualify.
func (s *Session) selectContext(question string) []model.Item {
	qTokens := map[string]bool{}
	for _, tok := range tokenize(question) {
		if len(tok) > 2 {
			qTokens[tok] = true
		}
	}
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		item  model.Item
		score float64
	}
	var matches []scored
	for _, item := range s.snapshot {
		overlap := 0
		seen := map[string]bool{}
		for _, tok := range tokenize(item.Title + " " + item.Body) {
			if qTokens[tok] && !seen[tok] {
				seen[tok] = true
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		matches = append(matches, scored{
			item:  item,
			score: float64(overlap) * (1 + item.Importance),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].item.ID < matches[j].item.ID
	})
	if len(matches) > s.opts.MaxContextItems {
		matches = matches[:s.opts.MaxContextItems]
	}
	items := make([]model.Item, len(matches))
	for i, m := range matches {
		items[i] = m.item
	}
	return items
}

const groundingInstructions = `Answer using ONLY the numbered context items below. If the context does not contain the answer, say so plainly. Never use outside knowledge, never speculate, and cite items by their bracketed IDs.`

func (s *Session) buildPrompt(question string, items []model.Item) string {
	var sb strings.Builder
	sb.WriteString("Context items:\n\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [%s] %s (%s)\n", i+1, item.ID, item.Title, item.SourceName)
		if item.Body != "" {
			fmt.Fprintf(&sb, "   %s\n", item.Body)
		}
		if item.Kind == model.KindDiscussionThread {
			if sum, err := s.corpus.GetSentiment(item.ID); err == nil && sum != nil && sum.SampleSize > 0 {
				fmt.Fprintf(&sb, "   Community reaction: %s (score %+.2f)\n", sum.Consensus, sum.Overall)
			}
		}
		sb.WriteString("\n")
	}

	if prior := s.recentTurns(); len(prior) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range prior {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Question: %s\n", question)
	return sb.String()
}

// directive handles the slash commands. Everything is answered from the
// snapshot; no provider call is ever made here.
func (s *Session) directive(input string) model.ConversationTurn {
	fields := strings.Fields(input)
	cmd := fields[0]

	var text string
	var refs []string
	switch cmd {
	case "/articles":
		items := s.filterKind(model.KindFeedArticle)
		text = s.listItems(items)
		refs = itemIDs(items)
	case "/recent":
		items := s.recentItems(10)
		text = s.listItems(items)
		refs = itemIDs(items)
	case "/important":
		n := s.opts.MaxContextItems
		items := s.snapshot
		if len(items) > n {
			items = items[:n]
		}
		text = s.listItems(items)
		refs = itemIDs(items)
	case "/categories":
		text = s.listCategories()
	case "/read":
		if len(fields) < 2 {
			text = "Usage: /read N (see /articles for numbering)"
			break
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil || idx < 1 || idx > len(s.snapshot) {
			text = fmt.Sprintf("No item %s in this session (1-%d).", fields[1], len(s.snapshot))
			break
		}
		item := s.snapshot[idx-1]
		text = s.renderItem(item)
		refs = []string{item.ID}
	default:
		text = "Commands: /articles /categories /recent /important /read N"
	}

	if text == "" {
		text = "Nothing matching in this session."
	}
	return model.ConversationTurn{
		Role:              model.RoleAssistant,
		Text:              text,
		ReferencedItemIDs: refs,
		Timestamp:         time.Now().UTC(),
	}
}

func (s *Session) filterKind(kind model.SourceKind) []model.Item {
	var out []model.Item
	for _, item := range s.snapshot {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

func (s *Session) recentItems(n int) []model.Item {
	items := make([]model.Item, len(s.snapshot))
	copy(items, s.snapshot)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func (s *Session) listItems(items []model.Item) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, item := range items {
		idx := s.pinned[item.ID] + 1
		fmt.Fprintf(&sb, "%2d. %s (%s, %s)\n", idx, item.Title, item.SourceName, item.Category)
	}
	return sb.String()
}

func (s *Session) listCategories() string {
	counts := map[string]int{}
	for _, item := range s.snapshot {
		cat := item.Category
		if cat == "" {
			cat = "general"
		}
		counts[cat]++
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var sb strings.Builder
	for _, c := range cats {
		fmt.Fprintf(&sb, "%s (%d)\n", c, counts[c])
	}
	return sb.String()
}

func (s *Session) renderItem(item model.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s | %s\n\n", item.Title, item.SourceName, item.Published.Format("2006-01-02 15:04"))
	if item.Body != "" {
		sb.WriteString(item.Body)
		sb.WriteString("\n")
	}
	if item.URL != "" {
		fmt.Fprintf(&sb, "\n%s\n", item.URL)
	}
	return sb.String()
}

func itemIDs(items []model.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
