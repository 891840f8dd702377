package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/reconciler/internal/http/auth"
	"github.com/MrJamesThe3rd/reconciler/internal/http/batch"
	"github.com/MrJamesThe3rd/reconciler/internal/http/export"
	"github.com/MrJamesThe3rd/reconciler/internal/http/importcsv"
	"github.com/MrJamesThe3rd/reconciler/internal/http/matching"
)

type Options struct {
	AllowedOrigins []string
	// JWTSecret enables bearer authentication when set.
	JWTSecret string
}

func New(
	opts Options,
	batchesV1 *batch.Handler,
	importV1 *importcsv.Handler,
	matchingV1 *matching.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.JWTSecret))

		r.Route("/batches", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("multipart/form-data"))
				importV1.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				batchesV1.Routes(r)
				matchingV1.Routes(r)
			})

			exportV1.Routes(r)
		})
	})

	return router
}
