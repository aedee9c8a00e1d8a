package chapters

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/gita"
)

// StartScheduler keeps the cache warm: it refreshes the chapter list and
// every chapter's details once at start and then on each tick.
func (s *ChapterService) StartScheduler(ctx context.Context, interval time.Duration) {
	if s.cache == nil {
		s.logger.Info("Cache warmer disabled: no cache configured")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Cache warmer started", zap.Duration("interval", interval))
	s.warmCache(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cache warmer stopped gracefully")
			return
		case <-ticker.C:
			s.warmCache(ctx)
		}
	}
}

// warmCache returns the number of endpoints refreshed.
func (s *ChapterService) warmCache(ctx context.Context) int {
	body, err := s.refresh(ctx, gita.ChaptersPath(0, gita.DefaultChapterLimit))
	if err != nil {
		s.logger.Warn("Failed to warm chapter list", zap.Error(err))
		return 0
	}

	var list []gita.Chapter
	if err := json.Unmarshal(body, &list); err != nil {
		s.logger.Warn("Chapter list has unexpected shape", zap.Error(err))
		return 1
	}

	warmed := 1
	for _, ch := range list {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.refresh(ctx, gita.ChapterPath(ch.ID)); err != nil {
			s.logger.Warn("Failed to warm chapter", zap.Int("chapter_id", ch.ID), zap.Error(err))
			continue
		}
		warmed++
	}

	s.logger.Info("Cache warmed", zap.Int("endpoints", warmed))
	return warmed
}
