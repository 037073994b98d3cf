// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/centraldescuentos/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware

	// distance and notifications keep their legacy {"error": ...} bodies
	// and handle method checks themselves.
	distance      http.Handler
	notifications http.Handler
}

// NewRouter creates a Router. distance and notifications may be nil, in
// which case their routes are not registered.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, distance, notifications http.Handler) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		distance:      distance,
		notifications: notifications,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chimiddleware.SetHeader("X-Content-Type-Options", "nosniff"))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// App endpoints with the legacy error shape
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitUpstream())
		if router.distance != nil {
			r.Handle("/api/distance", router.distance)
		}
		if router.notifications != nil {
			r.Handle("/api/notifications/send", router.notifications)
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitHealth())
			r.Get("/health", router.handler.Health)
			r.Get("/health/live", router.handler.HealthLive)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/discounts", router.handler.ListDiscounts)
			r.Get("/discounts/{id}", router.handler.GetDiscount)
			r.Get("/categories", router.handler.Categories)
			r.Get("/geo/distance", router.handler.GeoDistance)

			r.Get("/users/{userID}/preferences", router.handler.GetPreferences)
			r.Put("/users/{userID}/preferences", router.handler.PutPreferences)
			r.Get("/users/{userID}/routes/{date}", router.handler.GetDailyRoute)
			r.Put("/users/{userID}/routes/{date}", router.handler.PutDailyRoute)
			r.Get("/users/{userID}/fuel-recommendations/latest", router.handler.GetFuelRecommendation)
			r.Put("/users/{userID}/fuel-recommendations/latest", router.handler.PutFuelRecommendation)

			r.Get("/support/{kind}", router.handler.ListSupport)

			r.With(router.chiMiddleware.RateLimitUpstream()).
				Get("/recommendations/{userID}", router.handler.Recommendations)
			r.Delete("/recommendations/{userID}/cache", router.handler.ClearUserRecommendations)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Use(router.chiMiddleware.RequireAdmin())

			r.Post("/discounts", router.handler.CreateDiscount)
			r.Patch("/discounts/{id}", router.handler.UpdateDiscount)
			r.Delete("/discounts/{id}", router.handler.DeleteDiscount)
			r.Post("/discounts/bulk-delete", router.handler.BulkDeleteDiscounts)
			r.Post("/discounts/delete-by-criteria", router.handler.DeleteByCriteria)
			r.Post("/discounts/import", router.handler.ImportDiscounts)
			r.Post("/discounts/{id}/approval", router.handler.SetApproval)
			r.Post("/discounts/{id}/visibility", router.handler.SetVisibility)
			r.Delete("/recommendations/cache", router.handler.ClearAllRecommendations)
			r.Get("/audit", router.handler.AuditLog)

			r.Put("/support/{kind}/{id}", router.handler.PutSupport)
			r.Delete("/support/{kind}/{id}", router.handler.DeleteSupport)

			r.Get("/backups", router.handler.ListBackups)
			r.Post("/backups", router.handler.CreateBackup)
			r.Delete("/backups/{id}", router.handler.DeleteBackup)
			r.Post("/backups/{id}/restore", router.handler.RestoreBackup)
		})
	})

	return r
}
