package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taiwoajasa245/gita-reader-api/internal/history"
	"github.com/taiwoajasa245/gita-reader-api/internal/storage"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTestStore(t *testing.T) (*history.Store, *storage.Memory, *clock) {
	t.Helper()
	kv := storage.NewMemory()
	clk := &clock{now: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)}
	s := history.New(kv, nil, history.WithClock(clk.Now))
	s.LoadFromStorage(context.Background())
	return s, kv, clk
}

func entry(chapter, verse int) history.HistoryEntry {
	return history.HistoryEntry{
		ReadingPosition: history.ReadingPosition{
			ChapterID:   chapter,
			VerseNumber: verse,
			ChapterName: "Chapter",
		},
	}
}

func stored(t *testing.T, kv *storage.Memory, key string, dest any) {
	t.Helper()
	raw, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func TestLoadFromStorage_EmptyDefaults(t *testing.T) {
	s, _, _ := setupTestStore(t)

	assert.Nil(t, s.LastPosition())
	assert.Empty(t, s.History())
	assert.NotNil(t, s.History())
	assert.Empty(t, s.Bookmarks())

	stats := s.Stats()
	assert.Equal(t, 0, stats.VersesRead.Len())
	assert.Equal(t, 0, stats.TotalTimeSpent)
	assert.Equal(t, "2026-10-19", stats.LastReadDate)
	assert.Equal(t, 0, stats.ReadingStreak)
}

func TestLoadFromStorage_Idempotent(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 2, VerseNumber: 47, ChapterName: "Sankhya Yoga"})
	s.AddToHistory(ctx, entry(2, 47))
	s.AddBookmark(ctx, history.Bookmark{ID: "2-47", ChapterID: 2, VerseNumber: 47})
	s.MarkVerseAsRead(ctx, 2, 47)

	s.LoadFromStorage(ctx)
	first := []any{s.LastPosition(), s.History(), s.Bookmarks(), s.Stats()}
	s.LoadFromStorage(ctx)
	second := []any{s.LastPosition(), s.History(), s.Bookmarks(), s.Stats()}

	assert.Equal(t, first, second)
}

func TestSetLastPosition(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 1, VerseNumber: 1, Timestamp: 1})
	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 3, VerseNumber: 5, ChapterName: "Karma Yoga", Timestamp: 2})

	pos := s.LastPosition()
	require.NotNil(t, pos)
	assert.Equal(t, 3, pos.ChapterID)
	assert.Equal(t, 5, pos.VerseNumber)

	var got history.ReadingPosition
	stored(t, kv, history.KeyLastPosition, &got)
	assert.Equal(t, *pos, got)
}

func TestLastPosition_ReturnsCopy(t *testing.T) {
	s, _, _ := setupTestStore(t)
	s.SetLastPosition(context.Background(), history.ReadingPosition{ChapterID: 1, VerseNumber: 1})

	pos := s.LastPosition()
	pos.ChapterID = 18

	assert.Equal(t, 1, s.LastPosition().ChapterID)
}

func TestAddToHistory_MovesRevisitToFront(t *testing.T) {
	s, _, clk := setupTestStore(t)
	ctx := context.Background()

	s.AddToHistory(ctx, entry(1, 1))
	clk.Advance(time.Minute)
	s.AddToHistory(ctx, entry(1, 2))
	clk.Advance(time.Minute)
	s.AddToHistory(ctx, entry(2, 1))
	clk.Advance(time.Minute)

	revisit := entry(1, 1)
	revisit.VersePreview = "dharma-kshetre kuru-kshetre"
	s.AddToHistory(ctx, revisit)

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, history.VerseKey{Chapter: 1, Verse: 1}, h[0].Key())
	assert.Equal(t, "dharma-kshetre kuru-kshetre", h[0].VersePreview)
	assert.Equal(t, clk.Now().UnixMilli(), h[0].Timestamp)
	assert.Equal(t, history.VerseKey{Chapter: 2, Verse: 1}, h[1].Key())
	assert.Equal(t, history.VerseKey{Chapter: 1, Verse: 2}, h[2].Key())
}

func TestAddToHistory_Bounded(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	for v := 1; v <= 30; v++ {
		s.AddToHistory(ctx, entry(2, v))
	}

	h := s.History()
	require.Len(t, h, history.MaxHistory)
	assert.Equal(t, 30, h[0].VerseNumber)
	assert.Equal(t, 11, h[len(h)-1].VerseNumber)

	var persisted []history.HistoryEntry
	stored(t, kv, history.KeyHistory, &persisted)
	assert.Equal(t, h, persisted)
}

func TestAddToHistory_RandomSequences(t *testing.T) {
	s, _, clk := setupTestStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		clk.Advance(time.Second)
		e := entry(rng.IntN(3)+1, rng.IntN(12)+1)
		s.AddToHistory(ctx, e)

		h := s.History()
		require.LessOrEqual(t, len(h), history.MaxHistory)
		require.Equal(t, e.Key(), h[0].Key())
		require.Equal(t, clk.Now().UnixMilli(), h[0].Timestamp)

		seen := make(map[history.VerseKey]bool)
		for j, got := range h {
			require.False(t, seen[got.Key()], "duplicate %v", got.Key())
			seen[got.Key()] = true
			if j > 0 {
				require.Less(t, got.Timestamp, h[j-1].Timestamp)
			}
		}
	}
}

func TestAddBookmark_DuplicateIsNoop(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	bm := history.Bookmark{ID: "2-47", ChapterID: 2, VerseNumber: 47, VerseText: "karmaṇy-evādhikāras te"}
	s.AddBookmark(ctx, bm)
	s.AddBookmark(ctx, history.Bookmark{ID: "2-47", ChapterID: 2, VerseNumber: 47, Note: "changed"})

	bookmarks := s.Bookmarks()
	require.Len(t, bookmarks, 1)
	assert.Empty(t, bookmarks[0].Note)
}

func TestAddBookmark_Prepends(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	s.AddBookmark(ctx, history.Bookmark{ID: "a"})
	s.AddBookmark(ctx, history.Bookmark{ID: "b"})

	bookmarks := s.Bookmarks()
	require.Len(t, bookmarks, 2)
	assert.Equal(t, "b", bookmarks[0].ID)
	assert.Equal(t, "a", bookmarks[1].ID)

	var persisted []history.Bookmark
	stored(t, kv, history.KeyBookmarks, &persisted)
	assert.Equal(t, bookmarks, persisted)
}

func TestRemoveBookmark(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	s.AddBookmark(ctx, history.Bookmark{ID: "a"})
	s.AddBookmark(ctx, history.Bookmark{ID: "b"})

	s.RemoveBookmark(ctx, "a")
	s.RemoveBookmark(ctx, "missing")

	bookmarks := s.Bookmarks()
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "b", bookmarks[0].ID)

	var persisted []history.Bookmark
	stored(t, kv, history.KeyBookmarks, &persisted)
	assert.Len(t, persisted, 1)
}

func TestMarkVerseAsRead(t *testing.T) {
	s, _, _ := setupTestStore(t)

	s.MarkVerseAsRead(context.Background(), 1, 1)

	assert.True(t, s.IsVerseRead(1, 1))
	assert.False(t, s.IsVerseRead(1, 2))
	assert.False(t, s.IsVerseRead(11, 1))
}

func TestMarkVerseAsRead_Streak(t *testing.T) {
	tests := []struct {
		name         string
		lastReadDate string
		streak       int
		want         int
	}{
		{name: "yesterday increments", lastReadDate: "2026-10-18", streak: 4, want: 5},
		{name: "two days ago resets", lastReadDate: "2026-10-17", streak: 4, want: 1},
		{name: "today unchanged", lastReadDate: "2026-10-19", streak: 4, want: 4},
		{name: "first read ever", lastReadDate: "2026-10-19", streak: 0, want: 0},
		{name: "future date resets", lastReadDate: "2026-10-25", streak: 2, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			ctx := context.Background()
			raw := `{"versesRead":[],"totalTimeSpent":0,"lastReadDate":"` + tt.lastReadDate + `","readingStreak":` + itoa(tt.streak) + `}`
			require.NoError(t, kv.Set(ctx, history.KeyStats, []byte(raw)))

			now := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
			s := history.New(kv, nil, history.WithClock(func() time.Time { return now }))
			s.LoadFromStorage(ctx)

			s.MarkVerseAsRead(ctx, 2, 47)

			stats := s.Stats()
			assert.Equal(t, tt.want, stats.ReadingStreak)
			assert.Equal(t, "2026-10-19", stats.LastReadDate)
		})
	}
}

func TestMarkVerseAsRead_StreakAcrossDays(t *testing.T) {
	s, _, clk := setupTestStore(t)
	ctx := context.Background()

	s.MarkVerseAsRead(ctx, 1, 1)
	assert.Equal(t, 0, s.Stats().ReadingStreak)

	clk.Advance(24 * time.Hour)
	s.MarkVerseAsRead(ctx, 1, 2)
	assert.Equal(t, 1, s.Stats().ReadingStreak)

	clk.Advance(24 * time.Hour)
	s.MarkVerseAsRead(ctx, 1, 3)
	s.MarkVerseAsRead(ctx, 1, 4)
	assert.Equal(t, 2, s.Stats().ReadingStreak)

	clk.Advance(72 * time.Hour)
	s.MarkVerseAsRead(ctx, 1, 5)
	assert.Equal(t, 1, s.Stats().ReadingStreak)
	assert.Equal(t, 5, s.Stats().VersesRead.Len())
}

func TestMarkVerseAsRead_RoundTrip(t *testing.T) {
	s, kv, clk := setupTestStore(t)
	ctx := context.Background()

	s.MarkVerseAsRead(ctx, 3, 5)
	s.MarkVerseAsRead(ctx, 1, 2)
	s.MarkVerseAsRead(ctx, 3, 5)

	var raw struct {
		VersesRead []string `json:"versesRead"`
	}
	stored(t, kv, history.KeyStats, &raw)
	assert.Equal(t, []string{"1-2", "3-5"}, raw.VersesRead)

	reloaded := history.New(kv, nil, history.WithClock(clk.Now))
	reloaded.LoadFromStorage(ctx)
	assert.True(t, reloaded.IsVerseRead(3, 5))
	assert.True(t, reloaded.IsVerseRead(1, 2))
	assert.False(t, reloaded.IsVerseRead(5, 3))
	assert.Equal(t, 2, reloaded.Stats().VersesRead.Len())
}

func TestMarkVerseAsRead_RoundTripNegativeNumbers(t *testing.T) {
	s, kv, clk := setupTestStore(t)
	ctx := context.Background()

	s.MarkVerseAsRead(ctx, -1, 2)
	s.MarkVerseAsRead(ctx, 3, 5)
	s.MarkVerseAsRead(ctx, 4, -7)
	s.MarkVerseAsRead(ctx, -2, -3)
	require.True(t, s.IsVerseRead(-1, 2))

	reloaded := history.New(kv, nil, history.WithClock(clk.Now))
	reloaded.LoadFromStorage(ctx)

	assert.True(t, reloaded.IsVerseRead(-1, 2))
	assert.True(t, reloaded.IsVerseRead(3, 5))
	assert.True(t, reloaded.IsVerseRead(4, -7))
	assert.True(t, reloaded.IsVerseRead(-2, -3))
	assert.False(t, reloaded.IsVerseRead(1, 2))
	assert.Equal(t, 4, reloaded.Stats().VersesRead.Len())
}

func TestStats_ReturnsCopy(t *testing.T) {
	s, _, _ := setupTestStore(t)
	s.MarkVerseAsRead(context.Background(), 1, 1)

	stats := s.Stats()
	stats.VersesRead.Add(history.VerseKey{Chapter: 9, Verse: 9})

	assert.False(t, s.IsVerseRead(9, 9))
}

func TestAddReadingTime(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	s.MarkVerseAsRead(ctx, 1, 1)
	s.AddReadingTime(ctx, 90*time.Second+500*time.Millisecond)
	s.AddReadingTime(ctx, 400*time.Millisecond)
	s.AddReadingTime(ctx, 30*time.Second)

	assert.Equal(t, 120, s.Stats().TotalTimeSpent)
	assert.True(t, s.IsVerseRead(1, 1))

	var raw struct {
		TotalTimeSpent int      `json:"totalTimeSpent"`
		VersesRead     []string `json:"versesRead"`
	}
	stored(t, kv, history.KeyStats, &raw)
	assert.Equal(t, 120, raw.TotalTimeSpent)
	assert.Equal(t, []string{"1-1"}, raw.VersesRead)
}

func TestClearHistory(t *testing.T) {
	s, kv, _ := setupTestStore(t)
	ctx := context.Background()

	s.AddToHistory(ctx, entry(1, 1))
	s.AddBookmark(ctx, history.Bookmark{ID: "1-1"})
	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 1, VerseNumber: 1})

	s.ClearHistory(ctx)

	assert.Empty(t, s.History())
	assert.Len(t, s.Bookmarks(), 1)
	assert.NotNil(t, s.LastPosition())

	raw, err := kv.Get(ctx, history.KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestReset(t *testing.T) {
	s, kv, clk := setupTestStore(t)
	ctx := context.Background()

	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 2, VerseNumber: 47})
	s.AddToHistory(ctx, entry(2, 47))
	s.AddBookmark(ctx, history.Bookmark{ID: "2-47", ChapterID: 2, VerseNumber: 47})
	s.MarkVerseAsRead(ctx, 2, 47)
	s.AddReadingTime(ctx, time.Minute)

	s.Reset(ctx)

	assert.Nil(t, s.LastPosition())
	assert.Empty(t, s.History())
	assert.Empty(t, s.Bookmarks())
	assert.Zero(t, s.Stats().VersesRead.Len())
	assert.Zero(t, s.Stats().TotalTimeSpent)

	for _, key := range []string{history.KeyLastPosition, history.KeyHistory, history.KeyBookmarks, history.KeyStats} {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}

	reloaded := history.New(kv, nil, history.WithClock(clk.Now))
	reloaded.LoadFromStorage(ctx)
	assert.Nil(t, reloaded.LastPosition())
	assert.False(t, reloaded.IsVerseRead(2, 47))
}

func TestLoadFromStorage_WebClientData(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, history.KeyLastPosition, []byte(`{"chapterId":2,"verseNumber":47,"chapterName":"सांख्ययोग","chapterNameTranslated":"Sankhya Yoga","timestamp":1760860800000}`)))
	require.NoError(t, kv.Set(ctx, history.KeyHistory, []byte(`[{"chapterId":2,"verseNumber":47,"chapterName":"सांख्ययोग","chapterNameTranslated":"Sankhya Yoga","timestamp":1760860800000,"versePreview":"कर्मण्येवाधिकारस्ते"}]`)))
	require.NoError(t, kv.Set(ctx, history.KeyBookmarks, []byte(`[{"id":"bm-1","chapterId":2,"verseNumber":47,"chapterName":"सांख्ययोग","verseText":"कर्मण्येवाधिकारस्ते","timestamp":1760860800000,"note":"daily"}]`)))
	require.NoError(t, kv.Set(ctx, history.KeyStats, []byte(`{"versesRead":["2-47","1-1"],"totalTimeSpent":0,"lastReadDate":"2026-10-18","readingStreak":3}`)))

	s := history.New(kv, nil)
	s.LoadFromStorage(ctx)

	require.NotNil(t, s.LastPosition())
	assert.Equal(t, "Sankhya Yoga", s.LastPosition().ChapterNameTranslated)
	require.Len(t, s.History(), 1)
	assert.Equal(t, "कर्मण्येवाधिकारस्ते", s.History()[0].VersePreview)
	require.Len(t, s.Bookmarks(), 1)
	assert.Equal(t, "daily", s.Bookmarks()[0].Note)
	assert.True(t, s.IsVerseRead(2, 47))
	assert.True(t, s.IsVerseRead(1, 1))
	assert.Equal(t, 3, s.Stats().ReadingStreak)
}

func TestLoadFromStorage_CorruptValuesUseDefaults(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, history.KeyHistory, []byte(`{not json`)))
	require.NoError(t, kv.Set(ctx, history.KeyBookmarks, []byte(`null`)))
	require.NoError(t, kv.Set(ctx, history.KeyStats, []byte(`{"versesRead":["2-47","garbage","3-x"],"readingStreak":2,"lastReadDate":"2026-10-18"}`)))

	s := history.New(kv, nil)
	s.LoadFromStorage(ctx)

	assert.NotNil(t, s.History())
	assert.Empty(t, s.History())
	assert.NotNil(t, s.Bookmarks())
	assert.Empty(t, s.Bookmarks())
	assert.Equal(t, 1, s.Stats().VersesRead.Len())
	assert.True(t, s.IsVerseRead(2, 47))
}

type brokenStorage struct{}

var errDiskFull = errors.New("disk full")

func (brokenStorage) Get(context.Context, string) ([]byte, error) { return nil, errDiskFull }

func (brokenStorage) Set(context.Context, string, []byte) error { return errDiskFull }

func (brokenStorage) Delete(context.Context, string) error { return errDiskFull }

func TestStorageFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	s := history.New(brokenStorage{}, nil, history.WithClock(func() time.Time { return now }))

	s.LoadFromStorage(ctx)
	assert.Nil(t, s.LastPosition())
	assert.Equal(t, "2026-10-19", s.Stats().LastReadDate)

	s.SetLastPosition(ctx, history.ReadingPosition{ChapterID: 4, VerseNumber: 7})
	s.AddToHistory(ctx, entry(4, 7))
	s.AddBookmark(ctx, history.Bookmark{ID: "4-7"})
	s.MarkVerseAsRead(ctx, 4, 7)
	s.AddReadingTime(ctx, time.Minute)

	assert.Equal(t, 4, s.LastPosition().ChapterID)
	assert.Len(t, s.History(), 1)
	assert.Len(t, s.Bookmarks(), 1)
	assert.True(t, s.IsVerseRead(4, 7))
	assert.Equal(t, 60, s.Stats().TotalTimeSpent)

	s.Reset(ctx)
	assert.Nil(t, s.LastPosition())
	assert.Empty(t, s.Bookmarks())
}

func TestParseVerseKey(t *testing.T) {
	k, err := history.ParseVerseKey("18-66")
	require.NoError(t, err)
	assert.Equal(t, history.VerseKey{Chapter: 18, Verse: 66}, k)
	assert.Equal(t, "18-66", k.String())

	tests := []struct {
		raw  string
		want history.VerseKey
	}{
		{"-1-2", history.VerseKey{Chapter: -1, Verse: 2}},
		{"3--5", history.VerseKey{Chapter: 3, Verse: -5}},
		{"-2--3", history.VerseKey{Chapter: -2, Verse: -3}},
	}
	for _, tt := range tests {
		got, err := history.ParseVerseKey(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.raw, got.String())
	}

	for _, bad := range []string{"", "-", "18", "-18", "a-1", "1-b", "1-", "1-2-3"} {
		_, err := history.ParseVerseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestVerseKey_Ordering(t *testing.T) {
	set := history.VerseSet{}
	set.Add(history.VerseKey{Chapter: 10, Verse: 1})
	set.Add(history.VerseKey{Chapter: 2, Verse: 10})
	set.Add(history.VerseKey{Chapter: 2, Verse: 9})

	assert.Equal(t, []history.VerseKey{
		{Chapter: 2, Verse: 9},
		{Chapter: 2, Verse: 10},
		{Chapter: 10, Verse: 1},
	}, set.Sorted())
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
