/*
 * @module api/routes
 * @description API route configuration: middleware chain, CORS, and all HTTP routes
 * @architecture RESTful API
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow stateless HTTP request handling
 * @rules uniform JSON envelope on every endpoint; OCR-heavy routes sit behind the rate limiter
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/
 */

package api

import (
	"controlflow-service/api/controllers"
	apimw "controlflow-service/api/middleware"
	"controlflow-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute wires every HTTP route onto the mux.
func InitRoute(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	eventController := controllers.NewEventController()
	r.Get("/sse/{user_name}", eventController.HandleSSE)

	limiter := apimw.NewRateLimiter(
		service.GlobalConfigService.GetUploadRateLimit(),
		service.GlobalConfigService.GetRateWindowSeconds(),
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/etiqueta-questions", func(r chi.Router) {
			etiquetaController := controllers.NewEtiquetaController()

			if limiter != nil {
				r.With(limiter.Handler).Post("/", etiquetaController.CreateQuestion)
				r.With(limiter.Handler).Post("/{id}/inspect", etiquetaController.Inspect)
			} else {
				r.Post("/", etiquetaController.CreateQuestion)
				r.Post("/{id}/inspect", etiquetaController.Inspect)
			}

			r.Get("/{id}", etiquetaController.GetQuestion)
			r.Get("/{id}/results", etiquetaController.ListResults)
			r.Post("/{id}/results/{resultId}/rnc", etiquetaController.CreateRNCFromResult)
		})

		r.Route("/products", func(r chi.Router) {
			productController := controllers.NewProductController()
			r.Post("/", productController.CreateProduct)
			r.Get("/", productController.GetProducts)
			r.Get("/{id}", productController.GetProduct)
			r.Put("/{id}", productController.UpdateProduct)
			r.Delete("/{id}", productController.DeleteProduct)
		})

		r.Route("/inspection-plans", func(r chi.Router) {
			planController := controllers.NewInspectionPlanController()
			r.Post("/", planController.CreatePlan)
			r.Get("/", planController.GetPlans)
			r.Get("/{id}", planController.GetPlan)
			r.Put("/{id}", planController.UpdatePlan)
			r.Delete("/{id}", planController.DeletePlan)
			r.Post("/{id}/steps", planController.AddStep)
		})

		r.Route("/rnc", func(r chi.Router) {
			rncController := controllers.NewRNCController()
			r.Post("/", rncController.CreateRNC)
			r.Get("/", rncController.GetRNCs)
			r.Get("/{id}", rncController.GetRNC)
			r.Post("/{id}/resolve", rncController.ResolveRNC)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/broadcast", eventController.BroadcastEvent)
			r.Get("/history", eventController.GetEventHistory)
		})
	})
}
