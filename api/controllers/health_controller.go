/*
 * @module api/controllers/health_controller
 * @description Health check controller for container probes and load balancers
 * @architecture MVC - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow HTTP request -> static response
 * @rules health checks never touch the database
 * @dependencies net/http
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthController serves liveness and readiness probes.
type HealthController struct{}

// NewHealthController creates the controller instance.
func NewHealthController() *HealthController {
	return &HealthController{}
}

// HealthResponse is the probe response body.
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"controlflow-service"`
}

// Health liveness probe
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "controlflow-service",
	})
}

// Ready readiness probe
// @Summary Readiness check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "controlflow-service",
	})
}
