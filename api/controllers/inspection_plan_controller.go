/*
 * @module api/controllers/inspection_plan_controller
 * @description Inspection plan API controller: plans and their ordered steps
 * @architecture MVC - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow HTTP request -> plan service -> JSON envelope
 * @rules steps keep their ordinal order; plan status transitions are draft -> active -> archived
 * @dependencies controlflow-service/service, github.com/go-chi/render
 * @refs service/inspection_plan_service.go
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

// InspectionPlanController handles plan endpoints.
type InspectionPlanController struct {
	service *service.InspectionPlanService
}

// NewInspectionPlanController creates the controller instance.
func NewInspectionPlanController() *InspectionPlanController {
	return &InspectionPlanController{service: service.GlobalInspectionPlanService}
}

// CreatePlan registers an inspection plan with its steps
// @Summary Create an inspection plan
// @Tags inspection-plans
// @Accept json
// @Produce json
// @Param plan body models.InspectionPlan true "Plan with steps"
// @Success 200 {object} APIResponse{data=models.InspectionPlan}
// @Failure 400 {object} APIResponse
// @Router /api/inspection-plans [post]
func (c *InspectionPlanController) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req models.InspectionPlan
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.CreatePlan(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("inspection plan created", &req))
}

// GetPlan returns one plan with ordered steps
// @Summary Get an inspection plan
// @Tags inspection-plans
// @Produce json
// @Param id path string true "Plan id"
// @Success 200 {object} APIResponse{data=models.InspectionPlan}
// @Failure 404 {object} APIResponse
// @Router /api/inspection-plans/{id} [get]
func (c *InspectionPlanController) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := c.service.GetPlan(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("inspection plan not found", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("ok", plan))
}

// GetPlans lists plans with pagination
// @Summary List inspection plans
// @Tags inspection-plans
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param size query int false "Page size"
// @Param product_id query string false "Filter by product"
// @Param status query string false "Filter by status"
// @Success 200 {object} PaginatedResponse{data=[]models.InspectionPlan}
// @Router /api/inspection-plans [get]
func (c *InspectionPlanController) GetPlans(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	plans, total, err := c.service.GetPlans(page, size,
		r.URL.Query().Get("product_id"), r.URL.Query().Get("status"))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to list inspection plans", nil))
		return
	}

	render.JSON(w, r, SuccessPaginatedResponse("ok", plans, total, page, size))
}

// UpdatePlan applies a partial update
// @Summary Update an inspection plan
// @Tags inspection-plans
// @Accept json
// @Produce json
// @Param id path string true "Plan id"
// @Param updates body object true "Fields to update"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /api/inspection-plans/{id} [put]
func (c *InspectionPlanController) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var updates map[string]interface{}
	if err := render.DecodeJSON(r.Body, &updates); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.UpdatePlan(id, updates); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("inspection plan updated", nil))
}

// DeletePlan removes a plan and its steps
// @Summary Delete an inspection plan
// @Tags inspection-plans
// @Produce json
// @Param id path string true "Plan id"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /api/inspection-plans/{id} [delete]
func (c *InspectionPlanController) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.service.DeletePlan(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("inspection plan deleted", nil))
}

// AddStep appends a step to a plan
// @Summary Add a step to an inspection plan
// @Tags inspection-plans
// @Accept json
// @Produce json
// @Param id path string true "Plan id"
// @Param step body models.PlanStep true "Step"
// @Success 200 {object} APIResponse{data=models.PlanStep}
// @Failure 400 {object} APIResponse
// @Router /api/inspection-plans/{id}/steps [post]
func (c *InspectionPlanController) AddStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var step models.PlanStep
	if err := render.DecodeJSON(r.Body, &step); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.AddStep(id, &step); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("step added", &step))
}
