// Package history keeps the reader's last position, recent history,
// bookmarks and reading statistics, persisting every change to a key-value
// Storage. Storage failures are logged and never returned: in-memory state
// stays authoritative.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/storage"
)

const dateLayout = "2006-01-02"

// Storage is a durable string-keyed byte store. Get returns an error
// matching storage.ErrNotFound for absent keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger
	now     func() time.Time

	lastPosition *ReadingPosition
	history      []HistoryEntry
	bookmarks    []Bookmark
	stats        ReadingStats
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty store. Call LoadFromStorage to hydrate it.
func New(st Storage, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		storage: st,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.history = []HistoryEntry{}
	s.bookmarks = []Bookmark{}
	s.stats = s.defaultStats()
	return s
}

func (s *Store) today() string {
	return s.now().UTC().Format(dateLayout)
}

func (s *Store) defaultStats() ReadingStats {
	return ReadingStats{
		VersesRead:     VerseSet{},
		TotalTimeSpent: 0,
		LastReadDate:   s.today(),
		ReadingStreak:  0,
	}
}

func (s *Store) SetLastPosition(ctx context.Context, pos ReadingPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPosition = &pos
	s.save(ctx, KeyLastPosition, pos)
}

// AddToHistory puts entry at the front with a fresh timestamp, removing any
// older entry for the same verse, and keeps at most MaxHistory entries.
func (s *Store) AddToHistory(ctx context.Context, entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Timestamp = s.now().UnixMilli()
	key := entry.Key()

	next := make([]HistoryEntry, 0, len(s.history)+1)
	next = append(next, entry)
	for _, h := range s.history {
		if h.Key() == key {
			continue
		}
		next = append(next, h)
	}
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}

	s.history = next
	s.save(ctx, KeyHistory, next)
}

// AddBookmark prepends bm unless a bookmark with the same ID exists.
func (s *Store) AddBookmark(ctx context.Context, bm Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.bookmarks, func(b Bookmark) bool { return b.ID == bm.ID }) {
		s.logger.Debug("Bookmark already exists", zap.String("id", bm.ID))
		return
	}

	s.bookmarks = append([]Bookmark{bm}, s.bookmarks...)
	s.save(ctx, KeyBookmarks, s.bookmarks)
}

func (s *Store) RemoveBookmark(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		if b.ID != id {
			next = append(next, b)
		}
	}

	s.bookmarks = next
	s.save(ctx, KeyBookmarks, next)
}

// MarkVerseAsRead records the verse and advances the daily streak: +1 when
// the previous read was yesterday, unchanged when it was today, 1 otherwise.
func (s *Store) MarkVerseAsRead(ctx context.Context, chapterID, verseNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	stats := s.stats
	stats.VersesRead = stats.VersesRead.Clone()
	stats.VersesRead.Add(VerseKey{Chapter: chapterID, Verse: verseNumber})

	switch stats.LastReadDate {
	case yesterday:
		stats.ReadingStreak++
	case today:
	default:
		stats.ReadingStreak = 1
	}
	stats.LastReadDate = today

	s.stats = stats
	s.save(ctx, KeyStats, stats.serialize())
}

func (s *Store) IsVerseRead(chapterID, verseNumber int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats.VersesRead.Has(VerseKey{Chapter: chapterID, Verse: verseNumber})
}

// AddReadingTime adds d, truncated to whole seconds, to TotalTimeSpent.
func (s *Store) AddReadingTime(ctx context.Context, d time.Duration) {
	secs := int(d / time.Second)
	if secs <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.VersesRead = stats.VersesRead.Clone()
	stats.TotalTimeSpent += secs

	s.stats = stats
	s.save(ctx, KeyStats, stats.serialize())
}

func (s *Store) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = []HistoryEntry{}
	s.save(ctx, KeyHistory, s.history)
}

// Reset forgets everything: last position, history, bookmarks and stats are
// back to their defaults and their keys are removed from storage.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPosition = nil
	s.history = []HistoryEntry{}
	s.bookmarks = []Bookmark{}
	s.stats = s.defaultStats()

	for _, key := range []string{KeyLastPosition, KeyHistory, KeyBookmarks, KeyStats} {
		if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Failed to delete reading data", zap.String("key", key), zap.Error(err))
		}
	}
}

// LoadFromStorage replaces in-memory state with what storage holds. Keys
// that are absent or unreadable fall back to their defaults.
func (s *Store) LoadFromStorage(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := loadKey[*ReadingPosition](ctx, s, KeyLastPosition, nil)

	history := loadKey(ctx, s, KeyHistory, []HistoryEntry{})
	if history == nil {
		history = []HistoryEntry{}
	}

	bookmarks := loadKey(ctx, s, KeyBookmarks, []Bookmark{})
	if bookmarks == nil {
		bookmarks = []Bookmark{}
	}

	raw := loadKey(ctx, s, KeyStats, s.defaultStats().serialize())
	stats, bad := raw.deserialize()
	if len(bad) > 0 {
		s.logger.Warn("Skipped malformed verse keys", zap.Strings("keys", bad))
	}

	s.lastPosition = pos
	s.history = history
	s.bookmarks = bookmarks
	s.stats = stats
}

func (s *Store) LastPosition() *ReadingPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastPosition == nil {
		return nil
	}
	pos := *s.lastPosition
	return &pos
}

func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.history)
}

func (s *Store) Bookmarks() []Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.bookmarks)
}

func (s *Store) Stats() ReadingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.VersesRead = stats.VersesRead.Clone()
	return stats
}

func (s *Store) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode reading data", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, key, data); err != nil {
		s.logger.Error("Failed to save reading data", zap.String("key", key), zap.Error(err))
	}
}

// loadKey decodes key, returning def when the key is absent or cannot be
// read or decoded.
func loadKey[T any](ctx context.Context, s *Store, key string, def T) T {
	data, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return def
	}
	if err != nil {
		s.logger.Error("Failed to load reading data", zap.String("key", key), zap.Error(err))
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Error("Failed to decode reading data", zap.String("key", key), zap.Error(err))
		return def
	}
	return v
}
