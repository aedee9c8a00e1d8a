// Package gita holds the pass-through chapter and verse records and a typed
// reader over the resilient fetch client.
package gita

import (
	"context"
	"fmt"

	"github.com/taiwoajasa245/gita-reader-api/internal/fetch"
)

const DefaultChapterLimit = 18

// Fetcher is satisfied by *fetch.Client. FetchJSON decodes the body of
// endpoint into v.
type Fetcher interface {
	FetchJSON(ctx context.Context, endpoint string, v any, opts ...fetch.RequestOption) error
}

type Reader struct {
	fetcher Fetcher
}

func NewReader(fetcher Fetcher) *Reader {
	return &Reader{fetcher: fetcher}
}

func (r *Reader) Chapters(ctx context.Context, skip, limit int) ([]Chapter, error) {
	var chapters []Chapter
	if err := r.get(ctx, ChaptersPath(skip, limit), &chapters); err != nil {
		return nil, fmt.Errorf("failed to load chapters: %w", err)
	}
	return chapters, nil
}

func (r *Reader) Chapter(ctx context.Context, chapterID int) (*Chapter, error) {
	var chapter Chapter
	if err := r.get(ctx, ChapterPath(chapterID), &chapter); err != nil {
		return nil, fmt.Errorf("failed to load chapter %d: %w", chapterID, err)
	}
	return &chapter, nil
}

func (r *Reader) Verses(ctx context.Context, chapterID int) ([]Verse, error) {
	var verses []Verse
	if err := r.get(ctx, VersesPath(chapterID), &verses); err != nil {
		return nil, fmt.Errorf("failed to load verses for chapter %d: %w", chapterID, err)
	}
	return verses, nil
}

func (r *Reader) Verse(ctx context.Context, chapterID, verseNumber int) (*Verse, error) {
	var verse Verse
	if err := r.get(ctx, VersePath(chapterID, verseNumber), &verse); err != nil {
		return nil, fmt.Errorf("failed to load verse %d.%d: %w", chapterID, verseNumber, err)
	}
	return &verse, nil
}

func (r *Reader) get(ctx context.Context, endpoint string, dest any) error {
	return r.fetcher.FetchJSON(ctx, endpoint, dest)
}

// Upstream paths. The proxy serves the same paths under /api.

func ChaptersPath(skip, limit int) string {
	return fmt.Sprintf("/chapters/?skip=%d&limit=%d", skip, limit)
}

func ChapterPath(chapterID int) string {
	return fmt.Sprintf("/chapters/%d/", chapterID)
}

func VersesPath(chapterID int) string {
	return fmt.Sprintf("/chapters/%d/verses", chapterID)
}

func VersePath(chapterID, verseNumber int) string {
	return fmt.Sprintf("/chapters/%d/verses/%d/", chapterID, verseNumber)
}
