// Package catalog holds the quizzes available to the current user and the
// student's attempt history, backed by the session-scoped cache so repeated
// screens do not refetch. Quiz detail is deliberately never cached: every
// entry into the take-quiz flow refetches it so questions and options are
// fresh.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/haswanth04/examctl/internal/model"
)

// Cache keys in the session-scoped store. Cleared wholesale on logout.
const (
	cacheKeyQuizzes = "availableQuizzes"
	cacheKeyHistory = "userHistory"
)

// Gateway is the slice of the API client the catalog consumes.
type Gateway interface {
	ListAvailableQuizzes(ctx context.Context) ([]model.QuizSummary, error)
	QuizDetail(ctx context.Context, quizID int64) (model.QuizDetail, error)
	History(ctx context.Context) ([]model.HistoryEntry, error)
}

// CacheStore is the durable session-scoped cache. Satisfied by *session.DB.
type CacheStore interface {
	GetCache(key string) (value string, ok bool, err error)
	SetCache(key, value string) error
}

// Catalog caches quiz summaries and history for one login session.
type Catalog struct {
	gw Gateway
	db CacheStore

	mu            sync.Mutex
	summaries     []model.QuizSummary
	haveSummaries bool
	history       []model.HistoryEntry
	haveHistory   bool
	subs          []func()
}

func New(gw Gateway, db CacheStore) *Catalog {
	return &Catalog{gw: gw, db: db}
}

// ListAvailable returns the available quiz summaries, serving the
// session-scoped cache when present and fetching otherwise.
func (c *Catalog) ListAvailable(ctx context.Context) ([]model.QuizSummary, error) {
	c.mu.Lock()
	if c.haveSummaries {
		cached := c.summaries
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	if cached, ok := loadCached[[]model.QuizSummary](c.db, cacheKeyQuizzes); ok {
		c.mu.Lock()
		c.summaries = cached
		c.haveSummaries = true
		c.mu.Unlock()
		return cached, nil
	}

	return c.Refresh(ctx)
}

// Refresh fetches the summary list unconditionally and replaces the cache.
func (c *Catalog) Refresh(ctx context.Context) ([]model.QuizSummary, error) {
	quizzes, err := c.gw.ListAvailableQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.summaries = quizzes
	c.haveSummaries = true
	c.mu.Unlock()

	storeCached(c.db, cacheKeyQuizzes, quizzes)
	c.notify()
	return quizzes, nil
}

// LoadDetail fetches the full quiz record. When the id is not among the
// last-listed summaries the list is refreshed first, covering quizzes
// created after the list was cached. The detail itself is always fetched.
func (c *Catalog) LoadDetail(ctx context.Context, quizID int64) (model.QuizDetail, error) {
	if !c.knownQuiz(quizID) {
		slog.Debug("quiz not in cached list, refreshing", "quiz_id", quizID)
		// A refresh failure is not fatal here; the detail fetch below gives
		// the definitive answer (and its own notification on failure).
		if _, err := c.Refresh(ctx); err != nil {
			slog.Warn("quiz list refresh failed", "error", err)
		}
	}
	return c.gw.QuizDetail(ctx, quizID)
}

// History returns the student's past attempts, cached per session.
func (c *Catalog) History(ctx context.Context) ([]model.HistoryEntry, error) {
	c.mu.Lock()
	if c.haveHistory {
		cached := c.history
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	if cached, ok := loadCached[[]model.HistoryEntry](c.db, cacheKeyHistory); ok {
		c.mu.Lock()
		c.history = cached
		c.haveHistory = true
		c.mu.Unlock()
		return cached, nil
	}

	return c.RefreshHistory(ctx)
}

// RefreshHistory fetches the attempt history unconditionally. The take-quiz
// flow calls this after a successful submission.
func (c *Catalog) RefreshHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	entries, err := c.gw.History(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history = entries
	c.haveHistory = true
	c.mu.Unlock()

	storeCached(c.db, cacheKeyHistory, entries)
	c.notify()
	return entries, nil
}

// Invalidate drops the in-memory cache. Wired to session logout; the
// durable cache rows are cleared by the session store itself.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.summaries = nil
	c.haveSummaries = false
	c.history = nil
	c.haveHistory = false
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers a change listener invoked once per cache mutation.
func (c *Catalog) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Catalog) knownQuiz(quizID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveSummaries {
		return false
	}
	for _, q := range c.summaries {
		if q.ID == quizID {
			return true
		}
	}
	return false
}

func (c *Catalog) notify() {
	c.mu.Lock()
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// loadCached reads and decodes a cached payload; a miss or decode failure is
// treated as a cache miss.
func loadCached[T any](db CacheStore, key string) (T, bool) {
	var zero T
	raw, ok, err := db.GetCache(key)
	if err != nil || !ok {
		if err != nil {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return zero, false
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		slog.Warn("cache decode failed", "key", key, "error", err)
		return zero, false
	}
	return value, true
}

func storeCached(db CacheStore, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := db.SetCache(key, string(raw)); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
