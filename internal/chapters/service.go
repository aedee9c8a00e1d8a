package chapters

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/cache"
	"github.com/taiwoajasa245/gita-reader-api/internal/gita"
)

// Cache is satisfied by *cache.RedisCache. Get returns cache.ErrMiss for
// absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type ChapterService struct {
	upstream Upstream
	cache    Cache
	logger   *zap.Logger
}

// NewChapterService wires the upstream client with an optional cache. A nil
// cache disables caching.
func NewChapterService(upstream Upstream, c Cache, logger *zap.Logger) ChapterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ChapterService{
		upstream: upstream,
		cache:    c,
		logger:   logger,
	}
}

func (s *ChapterService) GetChapters(ctx context.Context, skip, limit int) ([]byte, error) {
	return s.fetch(ctx, gita.ChaptersPath(skip, limit))
}

func (s *ChapterService) GetChapter(ctx context.Context, chapterID int) ([]byte, error) {
	return s.fetch(ctx, gita.ChapterPath(chapterID))
}

func (s *ChapterService) GetVerses(ctx context.Context, chapterID int) ([]byte, error) {
	return s.fetch(ctx, gita.VersesPath(chapterID))
}

func (s *ChapterService) GetVerse(ctx context.Context, chapterID, verseNumber int) ([]byte, error) {
	return s.fetch(ctx, gita.VersePath(chapterID, verseNumber))
}

// fetch serves endpoint from the cache when possible. Cache errors are
// logged and otherwise ignored.
func (s *ChapterService) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	key := cache.Key(endpoint)

	if s.cache != nil {
		body, err := s.cache.Get(ctx, key)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	return s.refresh(ctx, endpoint)
}

// refresh always goes upstream and stores the result. An upstream 404
// evicts whatever the cache still holds for endpoint.
func (s *ChapterService) refresh(ctx context.Context, endpoint string) ([]byte, error) {
	body, err := s.upstream.Get(ctx, endpoint)
	if err != nil {
		s.logger.Error("Upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))

		var upErr *UpstreamError
		if s.cache != nil && errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound {
			if derr := s.cache.Delete(ctx, cache.Key(endpoint)); derr != nil {
				s.logger.Warn("Cache eviction failed", zap.String("endpoint", endpoint), zap.Error(derr))
			}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.Key(endpoint), body); err != nil {
			s.logger.Warn("Cache write failed", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}

	return body, nil
}
