package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taiwoajasa245/gita-reader-api/internal/chapters"
	"github.com/taiwoajasa245/gita-reader-api/pkg/response"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
		AllowedHeaders: []string{
			"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version",
			"Content-Length", "Content-MD5", "Content-Type", "Date", "X-Api-Version",
		},
		AllowCredentials:   true,
		MaxAge:             300,
		OptionsPassthrough: true,
	}))

	r.Use(optionsOK)

	r.Get("/", s.ServerIsWorking)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		s.loadChapterRoutes(r)
	})

	return r
}

// optionsOK answers every OPTIONS request, preflight or not, with an empty
// 200 before routing, so mounted sub-routers never turn it into a 405.
func optionsOK(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServerIsWorking(w http.ResponseWriter, r *http.Request) {
	resp := make(map[string]string)
	resp["message"] = "Welcome to the Bhagavad Gita reader api"
	response.Success(w, resp, "Success")
}

func (s *Server) loadChapterRoutes(router chi.Router) {
	chapterHandler := chapters.NewChapterHandler(s.chService, s.cfg)

	router.Get("/health", chapterHandler.HealthHandler)
	router.Get("/chapters/", chapterHandler.GetChaptersHandler)
	router.Get("/chapters/{chapterId}/", chapterHandler.GetChapterHandler)
	router.Get("/chapters/{chapterId}/verses", chapterHandler.GetVersesHandler)
	router.Get("/chapters/{chapterId}/verses/{verseNumber}/", chapterHandler.GetVerseHandler)
}
