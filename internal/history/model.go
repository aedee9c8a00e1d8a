package history

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Storage keys. They match the keys the web client wrote to localStorage so
// exported data can be loaded unchanged.
const (
	KeyLastPosition = "gita_last_position"
	KeyHistory      = "gita_reading_history"
	KeyBookmarks    = "gita_bookmarks"
	KeyStats        = "gita_reading_stats"
)

// MaxHistory bounds the history list.
const MaxHistory = 20

type ReadingPosition struct {
	ChapterID             int    `json:"chapterId"`
	VerseNumber           int    `json:"verseNumber"`
	ChapterName           string `json:"chapterName"`
	ChapterNameTranslated string `json:"chapterNameTranslated"`
	Timestamp             int64  `json:"timestamp"` // epoch millis
}

// Key returns the verse this position points at.
func (p ReadingPosition) Key() VerseKey {
	return VerseKey{Chapter: p.ChapterID, Verse: p.VerseNumber}
}

type HistoryEntry struct {
	ReadingPosition
	VersePreview string `json:"versePreview,omitempty"`
}

type Bookmark struct {
	ID          string `json:"id"`
	ChapterID   int    `json:"chapterId"`
	VerseNumber int    `json:"verseNumber"`
	ChapterName string `json:"chapterName"`
	VerseText   string `json:"verseText"`
	Timestamp   int64  `json:"timestamp"`
	Note        string `json:"note,omitempty"`
}

// VerseKey identifies a verse. Keys order by chapter, then verse.
type VerseKey struct {
	Chapter int
	Verse   int
}

func (k VerseKey) Compare(other VerseKey) int {
	if c := cmp.Compare(k.Chapter, other.Chapter); c != 0 {
		return c
	}
	return cmp.Compare(k.Verse, other.Verse)
}

// String renders the storage form "chapter-verse".
func (k VerseKey) String() string {
	return strconv.Itoa(k.Chapter) + "-" + strconv.Itoa(k.Verse)
}

// ParseVerseKey reads the "chapter-verse" form. Either number may carry a
// leading minus sign, so the separator is the first '-' after position 0.
func ParseVerseKey(s string) (VerseKey, error) {
	if s == "" {
		return VerseKey{}, fmt.Errorf("invalid verse key %q", s)
	}
	i := strings.IndexByte(s[1:], '-')
	if i < 0 {
		return VerseKey{}, fmt.Errorf("invalid verse key %q", s)
	}
	chapter, verse := s[:i+1], s[i+2:]
	c, err := strconv.Atoi(chapter)
	if err != nil {
		return VerseKey{}, fmt.Errorf("invalid verse key %q: %w", s, err)
	}
	v, err := strconv.Atoi(verse)
	if err != nil {
		return VerseKey{}, fmt.Errorf("invalid verse key %q: %w", s, err)
	}
	return VerseKey{Chapter: c, Verse: v}, nil
}

// VerseSet is a set of verse keys.
type VerseSet map[VerseKey]struct{}

func (s VerseSet) Has(k VerseKey) bool {
	_, ok := s[k]
	return ok
}

func (s VerseSet) Add(k VerseKey) {
	s[k] = struct{}{}
}

func (s VerseSet) Len() int {
	return len(s)
}

// Sorted returns the keys in VerseKey order.
func (s VerseSet) Sorted() []VerseKey {
	keys := slices.Collect(maps.Keys(s))
	slices.SortFunc(keys, VerseKey.Compare)
	return keys
}

func (s VerseSet) Clone() VerseSet {
	if s == nil {
		return VerseSet{}
	}
	return maps.Clone(s)
}

type ReadingStats struct {
	VersesRead     VerseSet
	TotalTimeSpent int    // seconds
	LastReadDate   string // YYYY-MM-DD, UTC
	ReadingStreak  int
}

// serializedStats is the stored form of ReadingStats.
type serializedStats struct {
	VersesRead     []string `json:"versesRead"`
	TotalTimeSpent int      `json:"totalTimeSpent"`
	LastReadDate   string   `json:"lastReadDate"`
	ReadingStreak  int      `json:"readingStreak"`
}

func (s ReadingStats) serialize() serializedStats {
	keys := s.VersesRead.Sorted()
	read := make([]string, 0, len(keys))
	for _, k := range keys {
		read = append(read, k.String())
	}
	return serializedStats{
		VersesRead:     read,
		TotalTimeSpent: s.TotalTimeSpent,
		LastReadDate:   s.LastReadDate,
		ReadingStreak:  s.ReadingStreak,
	}
}

// deserialize rebuilds the set, returning the entries it could not parse.
func (s serializedStats) deserialize() (ReadingStats, []string) {
	set := make(VerseSet, len(s.VersesRead))
	var bad []string
	for _, raw := range s.VersesRead {
		k, err := ParseVerseKey(raw)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		set.Add(k)
	}
	return ReadingStats{
		VersesRead:     set,
		TotalTimeSpent: s.TotalTimeSpent,
		LastReadDate:   s.LastReadDate,
		ReadingStreak:  s.ReadingStreak,
	}, bad
}
