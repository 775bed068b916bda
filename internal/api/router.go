// Package api wires the HTTP handlers into a chi router.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/opsconsole/internal/api/handlers"
	"github.com/dvloznov/opsconsole/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Imports      *handlers.ImportsHandler
	Transactions *handlers.TransactionsHandler
	Categories   *handlers.CategoriesHandler
	Jobs         *handlers.JobsHandler
}

// Options tunes the router's middleware.
type Options struct {
	// AllowedOrigin is the CORS origin; empty allows any.
	AllowedOrigin string
}

// NewRouter builds the console's HTTP routes behind the middleware chain.
// RequestID runs first so panics and access logs carry the id.
func NewRouter(h Handlers, opts Options, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.AllowedOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Route("/import", func(r chi.Router) {
				r.Post("/", h.Imports.Submit)
				r.Get("/", h.Imports.Get)
				r.Post("/commit", h.Imports.Commit)
				r.Post("/cancel", h.Imports.Cancel)
				r.Put("/rows/{localID}/category", h.Imports.SetCategory)
				r.Delete("/rows/{localID}", h.Imports.Remove)
				r.Get("/rows/{localID}/suggestion", h.Imports.Suggestion)
			})
			r.Get("/transactions", h.Transactions.ListTransactions)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.ListCategories)
			r.Post("/", h.Categories.CreateCategory)
			r.Put("/{id}", h.Categories.UpdateCategory)
			r.Delete("/{id}", h.Categories.DeleteCategory)
		})

		if h.Jobs != nil {
			r.Get("/jobs", h.Jobs.ListJobs)
			r.Get("/jobs/{jobID}", h.Jobs.GetJob)
		}
	})

	return r
}
