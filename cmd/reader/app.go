package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/gita"
	"github.com/taiwoajasa245/gita-reader-api/internal/history"
	"github.com/taiwoajasa245/gita-reader-api/internal/storage"
)

const (
	previewLength   = 100
	recentEntries   = 5
	wordsPerMinute  = 200
	minReadingSpent = 5 * time.Second
)

// app ties the Gita API wrapper to the reading-history store for one profile.
type app struct {
	reader *gita.Reader
	store  *history.Store
	kv     storage.KV
	logger *zap.Logger
}

func newApp(f gita.Fetcher, kv storage.KV, logger *zap.Logger, opts ...history.Option) *app {
	return &app{
		reader: gita.NewReader(f),
		store:  history.New(kv, logger.Named("history"), opts...),
		kv:     kv,
		logger: logger,
	}
}

func (a *app) close() error {
	return a.kv.Close()
}

func (a *app) listChapters(ctx context.Context, w io.Writer, skip, limit int) error {
	chapters, err := a.reader.Chapters(ctx, skip, limit)
	if err != nil {
		return err
	}

	tbl := newTable("#", "NAME", "MEANING", "VERSES")
	for _, ch := range chapters {
		tbl.addRow(strconv.Itoa(ch.ChapterNumber), ch.NameTransliterated, ch.NameMeaning, strconv.Itoa(ch.VersesCount))
	}
	return tbl.render(w)
}

func (a *app) showChapter(ctx context.Context, w io.Writer, chapterID int) error {
	ch, err := a.reader.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}

	read := 0
	for v := 1; v <= ch.VersesCount; v++ {
		if a.store.IsVerseRead(ch.ChapterNumber, v) {
			read++
		}
	}

	fmt.Fprintf(w, "Chapter %d: %s (%s)\n", ch.ChapterNumber, ch.Name, ch.NameTranslated)
	fmt.Fprintf(w, "%s\n\n", ch.NameMeaning)
	fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(ch.ChapterSummary))
	fmt.Fprintf(w, "Verses read: %d/%d\n", read, ch.VersesCount)
	return nil
}

// listVerses prints one line per verse of a chapter, marking verses already
// read.
func (a *app) listVerses(ctx context.Context, w io.Writer, chapterID int) error {
	verses, err := a.reader.Verses(ctx, chapterID)
	if err != nil {
		return err
	}

	for _, v := range verses {
		mark := " "
		if a.store.IsVerseRead(chapterID, v.VerseNumber) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s\n", mark, v.VerseNumber, truncate(v.Text, 60))
	}
	return nil
}

// readVerse prints a verse and records the read: last position, history
// entry, read set and streak, reading time. spent <= 0 estimates the time
// from the translation length.
func (a *app) readVerse(ctx context.Context, w io.Writer, chapterID, verseNumber int, lang string, spent time.Duration) error {
	verse, err := a.reader.Verse(ctx, chapterID, verseNumber)
	if err != nil {
		return err
	}
	ch, err := a.reader.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}

	translation, _ := verse.Translation(lang)

	pos := history.ReadingPosition{
		ChapterID:             chapterID,
		VerseNumber:           verseNumber,
		ChapterName:           ch.Name,
		ChapterNameTranslated: ch.NameTranslated,
		Timestamp:             time.Now().UnixMilli(),
	}
	a.store.SetLastPosition(ctx, pos)
	a.store.AddToHistory(ctx, history.HistoryEntry{
		ReadingPosition: pos,
		VersePreview:    verse.Preview(previewLength),
	})
	a.store.MarkVerseAsRead(ctx, chapterID, verseNumber)

	if spent <= 0 {
		spent = estimateReadingTime(translation.Description)
	}
	a.store.AddReadingTime(ctx, spent)

	fmt.Fprintf(w, "%s  %d.%d\n\n", ch.NameTranslated, chapterID, verseNumber)
	fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(verse.Text))
	if verse.Transliteration != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(verse.Transliteration))
	}
	if translation.Description != "" {
		fmt.Fprintf(w, "%s\n  - %s\n", strings.TrimSpace(translation.Description), translation.AuthorName)
	}
	return nil
}

func estimateReadingTime(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(words) * time.Minute / wordsPerMinute
	return max(d, minReadingSpent)
}

func (a *app) showHistory(w io.Writer) {
	entries := a.store.History()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No reading history yet.")
		return
	}

	tbl := newTable("VERSE", "CHAPTER", "READ AT")
	for _, e := range entries {
		tbl.addRow(e.Key().String(), e.ChapterNameTranslated, formatMillis(e.Timestamp))
	}
	tbl.render(w)
}

func (a *app) clearHistory(ctx context.Context, w io.Writer) {
	a.store.ClearHistory(ctx)
	fmt.Fprintln(w, "Reading history cleared.")
}

// reset forgets the whole profile: position, history, bookmarks and stats.
func (a *app) reset(ctx context.Context, w io.Writer) {
	a.store.Reset(ctx)
	fmt.Fprintln(w, "Reading data for this profile was reset.")
}

// addBookmark bookmarks a verse. The ID is the verse key, so bookmarking the
// same verse twice keeps the first bookmark.
func (a *app) addBookmark(ctx context.Context, w io.Writer, chapterID, verseNumber int, lang, note string) error {
	verse, err := a.reader.Verse(ctx, chapterID, verseNumber)
	if err != nil {
		return err
	}
	ch, err := a.reader.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}

	text := verse.Text
	if t, ok := verse.Translation(lang); ok {
		text = t.Description
	}

	key := history.VerseKey{Chapter: chapterID, Verse: verseNumber}
	a.store.AddBookmark(ctx, history.Bookmark{
		ID:          key.String(),
		ChapterID:   chapterID,
		VerseNumber: verseNumber,
		ChapterName: ch.NameTranslated,
		VerseText:   strings.TrimSpace(text),
		Timestamp:   time.Now().UnixMilli(),
		Note:        note,
	})

	fmt.Fprintf(w, "Bookmarked %s.\n", key)
	return nil
}

func (a *app) removeBookmark(ctx context.Context, w io.Writer, id string) {
	a.store.RemoveBookmark(ctx, id)
	fmt.Fprintf(w, "Removed bookmark %s.\n", id)
}

func (a *app) listBookmarks(w io.Writer) {
	bookmarks := a.store.Bookmarks()
	if len(bookmarks) == 0 {
		fmt.Fprintln(w, "No bookmarks yet.")
		return
	}

	for _, b := range bookmarks {
		fmt.Fprintf(w, "[%s] %s\n", b.ID, b.ChapterName)
		fmt.Fprintf(w, "    %s\n", truncate(b.VerseText, previewLength))
		if b.Note != "" {
			fmt.Fprintf(w, "    note: %s\n", b.Note)
		}
	}
}

func (a *app) showStats(w io.Writer) {
	stats := a.store.Stats()

	tbl := newTable()
	tbl.addRow("Verses read", strconv.Itoa(stats.VersesRead.Len()))
	tbl.addRow("Reading streak", fmt.Sprintf("%d day(s)", stats.ReadingStreak))
	tbl.addRow("Time spent", (time.Duration(stats.TotalTimeSpent) * time.Second).String())
	tbl.addRow("Last read", stats.LastReadDate)
	tbl.render(w)
}

// continueReading shows where the reader left off and the most recent
// history entries with their previews.
func (a *app) continueReading(w io.Writer) {
	last := a.store.LastPosition()
	if last == nil {
		fmt.Fprintln(w, "Start reading with: reader read 1 1")
		return
	}

	fmt.Fprintf(w, "Continue: %s, verse %d  (reader read %d %d)\n",
		last.ChapterNameTranslated, last.VerseNumber, last.ChapterID, last.VerseNumber)

	entries := a.store.History()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecently read:")
	for _, e := range entries[:min(recentEntries, len(entries))] {
		fmt.Fprintf(w, "  %s  %s\n", e.Key(), e.ChapterNameTranslated)
		if e.VersePreview != "" {
			fmt.Fprintf(w, "      %s...\n", e.VersePreview)
		}
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
