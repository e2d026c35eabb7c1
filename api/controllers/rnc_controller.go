/*
 * @module api/controllers/rnc_controller
 * @description Non-conformance (RNC) API controller
 * @architecture MVC - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow HTTP request -> RNC service -> JSON envelope
 * @rules RNC codes are generated server side; resolved records are immutable
 * @dependencies controlflow-service/service, github.com/go-chi/render
 * @refs service/rnc_service.go
 */

package controllers

import (
	"fmt"
	"net/http"

	"controlflow-service/service"
	"controlflow-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// RNCController handles non-conformance endpoints.
type RNCController struct {
	service *service.RNCService
}

// NewRNCController creates the controller instance.
func NewRNCController() *RNCController {
	return &RNCController{service: service.GlobalRNCService}
}

// CreateRNC opens a non-conformance report
// @Summary Create a non-conformance report
// @Tags rnc
// @Accept json
// @Produce json
// @Param rnc body models.NonConformance true "Non-conformance"
// @Success 200 {object} APIResponse{data=models.NonConformance}
// @Failure 400 {object} APIResponse
// @Router /api/rnc [post]
func (c *RNCController) CreateRNC(w http.ResponseWriter, r *http.Request) {
	var req models.NonConformance
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.CreateRNC(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("non-conformance created", &req))
}

// GetRNC returns one non-conformance record
// @Summary Get a non-conformance report
// @Tags rnc
// @Produce json
// @Param id path string true "RNC id"
// @Success 200 {object} APIResponse{data=models.NonConformance}
// @Failure 404 {object} APIResponse
// @Router /api/rnc/{id} [get]
func (c *RNCController) GetRNC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rnc, err := c.service.GetRNC(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("non-conformance not found", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("ok", rnc))
}

// GetRNCs lists non-conformance records
// @Summary List non-conformance reports
// @Tags rnc
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param size query int false "Page size"
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Success 200 {object} PaginatedResponse{data=[]models.NonConformance}
// @Router /api/rnc [get]
func (c *RNCController) GetRNCs(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	rncs, total, err := c.service.GetRNCs(page, size,
		r.URL.Query().Get("status"), r.URL.Query().Get("severity"))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to list non-conformances", nil))
		return
	}

	render.JSON(w, r, SuccessPaginatedResponse("ok", rncs, total, page, size))
}

// ResolveRNC closes a non-conformance with a resolution
// @Summary Resolve a non-conformance report
// @Tags rnc
// @Accept json
// @Produce json
// @Param id path string true "RNC id"
// @Param resolution body object true "Resolution text"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /api/rnc/{id}/resolve [post]
func (c *RNCController) ResolveRNC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Resolution string `json:"resolution"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.ResolveRNC(id, body.Resolution); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("non-conformance resolved", nil))
}
