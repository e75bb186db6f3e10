/**
 * @description
 * This file sets up the HTTP router for the application-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ApplicationRoutes creates and returns a new router for the application service.
func ApplicationRoutes(h *ApplicationHandlers, jwksURL string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Applicant-facing endpoints.
	r.Post("/applications", h.CreateApplicationHandler)
	r.Get("/applications", h.ListApplicationsHandler)
	r.Get("/scholarships/{id}", h.GetScholarshipHandler)
	r.Post("/checkout/sessions", h.InitiateCheckoutHandler)
	r.Post("/payments/confirm", h.ConfirmPaymentHandler)

	// Group routes that require staff authentication.
	r.Group(func(r chi.Router) {
		r.Use(StaffAuthMiddleware(jwksURL))

		r.Get("/applications/all", h.ListAllApplicationsHandler)
		r.Patch("/applications/{id}/status", h.SetApplicationStatusHandler)
		r.Patch("/applications/{id}/feedback", h.SetFeedbackHandler)
		r.Delete("/applications/{id}", h.DeleteApplicationHandler)
		r.Get("/stats", h.StatsHandler)
	})

	return r
}
