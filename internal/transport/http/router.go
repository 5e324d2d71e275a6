package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notes-api/internal/application/auth"
	"github.com/go-notes-api/internal/application/note"
	"github.com/go-notes-api/internal/config"
	"github.com/go-notes-api/internal/transport/http/handler"
	appmiddleware "github.com/go-notes-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authDeps := auth.ServiceDeps{
		UserRepo: deps.UserRepo,
		Hasher:   deps.Hasher,
		Issuer:   deps.JWTProvider,
		Events:   deps.Events,
		Mailer:   deps.Mailer,
	}
	if deps.GoogleVerifier != nil {
		authDeps.Google = deps.GoogleVerifier
	}
	authSvc := auth.NewService(authDeps)

	noteDeps := note.ServiceDeps{
		NoteRepo:       deps.NoteRepo,
		AttachmentRepo: deps.AttachmentRepo,
		Objects:        deps.S3Store,
	}
	if deps.Summarizer != nil {
		noteDeps.Summarizer = deps.Summarizer
	}
	noteSvc := note.NewService(noteDeps)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	noteH := handler.NewNoteHandler(noteSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/google", authH.GoogleLogin)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/me", authH.Me)

			r.Get("/notes", noteH.List)
			r.Post("/notes", noteH.Create)
			r.Get("/notes/{id}", noteH.Get)
			r.Put("/notes/{id}", noteH.Update)
			r.Delete("/notes/{id}", noteH.Delete)
			r.Post("/notes/{id}/summarize", noteH.Summarize)

			r.Post("/notes/{id}/attachments", noteH.UploadAttachment)
			r.Get("/notes/{id}/attachments", noteH.ListAttachments)
			r.Get("/notes/{id}/attachments/{attID}", noteH.GetAttachment)
			r.Get("/notes/{id}/attachments/{attID}/download", noteH.DownloadAttachment)
			r.Delete("/notes/{id}/attachments/{attID}", noteH.DeleteAttachment)
		})
	})

	return r
}
