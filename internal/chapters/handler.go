package chapters

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
	"github.com/taiwoajasa245/gita-reader-api/pkg/response"
)

type ChapterHandler struct {
	service ChapterService
	cfg     *config.Config
}

func NewChapterHandler(service ChapterService, cfg *config.Config) ChapterHandler {
	return ChapterHandler{service: service, cfg: cfg}
}

func (h *ChapterHandler) GetChaptersHandler(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 18)
	if !ok {
		return
	}

	body, err := h.service.GetChapters(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, "fetch chapters", err)
		return
	}

	response.Raw(w, http.StatusOK, body)
}

func (h *ChapterHandler) GetChapterHandler(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathInt(w, r, "chapterId")
	if !ok {
		return
	}

	body, err := h.service.GetChapter(r.Context(), chapterID)
	if err != nil {
		h.fail(w, "fetch chapter", err)
		return
	}

	response.Raw(w, http.StatusOK, body)
}

func (h *ChapterHandler) GetVersesHandler(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathInt(w, r, "chapterId")
	if !ok {
		return
	}

	body, err := h.service.GetVerses(r.Context(), chapterID)
	if err != nil {
		h.fail(w, "fetch verses", err)
		return
	}

	response.Raw(w, http.StatusOK, body)
}

func (h *ChapterHandler) GetVerseHandler(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathInt(w, r, "chapterId")
	if !ok {
		return
	}
	verseNumber, ok := pathInt(w, r, "verseNumber")
	if !ok {
		return
	}

	body, err := h.service.GetVerse(r.Context(), chapterID, verseNumber)
	if err != nil {
		h.fail(w, "fetch verse", err)
		return
	}

	response.Raw(w, http.StatusOK, body)
}

func (h *ChapterHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	response.Plain(w, http.StatusOK, map[string]interface{}{
		"message":   "API is working!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"method":    r.Method,
		"query":     query,
		"env_vars": map[string]bool{
			"has_rapidapi_host":     h.cfg.RapidAPIHost != "",
			"has_rapidapi_key":      h.cfg.RapidAPIKey != "",
			"has_rapidapi_base_url": h.cfg.RapidAPIBaseURL != "",
		},
		"cache_enabled": h.service.cache != nil,
	})
}

func (h *ChapterHandler) fail(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, config.ErrMissingConfig) {
		response.ProxyError(w, action, err, map[string]bool{
			"has_host": h.cfg.RapidAPIHost != "",
			"has_key":  h.cfg.RapidAPIKey != "",
			"has_url":  h.cfg.RapidAPIBaseURL != "",
		})
		return
	}
	response.ProxyError(w, action, err, nil)
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+name, map[string]string{
			name: name + " must be a positive integer",
		})
		return 0, false
	}
	return n, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+name, map[string]string{
			name: name + " must be a non-negative integer",
		})
		return 0, false
	}
	return n, true
}
