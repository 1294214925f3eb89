package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	DocumentService service.DocumentService
	Version         string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	documentHandler := handlers.NewDocumentHandler(deps.DocumentService)
	healthHandler := handlers.NewHealthHandler(deps.DocumentService, deps.Version)

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", documentHandler.Upload)
			r.Get("/", documentHandler.List)
			r.Delete("/{id}", documentHandler.Delete)
			r.Get("/download/{filename}", documentHandler.Download)
		})

		r.Post("/chat", chatHandler.Chat)
		r.Get("/chat/history", chatHandler.History)
		r.Delete("/chat/history", chatHandler.ClearHistory)
		r.Get("/statistics", chatHandler.Statistics)
		r.Post("/retrieve", chatHandler.Retrieve)

		r.Method(http.MethodGet, "/health", healthHandler)

		r.Get("/debug/chunks/{id}", documentHandler.DebugChunks)
		r.Get("/debug/text/{id}", documentHandler.DebugText)
	})

	return r
}
