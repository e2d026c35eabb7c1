/*
 * @module api/controllers/product_controller
 * @description Product catalog API controller
 * @architecture MVC - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow HTTP request -> product service -> JSON envelope
 * @rules product codes are unique; deletion is blocked while active plans reference the product
 * @dependencies controlflow-service/service, github.com/go-chi/render
 * @refs service/product_service.go
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

// ProductController handles product catalog endpoints.
type ProductController struct {
	service *service.ProductService
}

// NewProductController creates the controller instance.
func NewProductController() *ProductController {
	return &ProductController{service: service.GlobalProductService}
}

// CreateProduct registers a product
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.Product true "Product"
// @Success 200 {object} APIResponse{data=models.Product}
// @Failure 400 {object} APIResponse
// @Router /api/products [post]
func (c *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.Product
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.CreateProduct(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("product created", &req))
}

// GetProduct returns one product with its inspection plans
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} APIResponse{data=models.Product}
// @Failure 404 {object} APIResponse
// @Router /api/products/{id} [get]
func (c *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := c.service.GetProduct(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("product not found", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("ok", product))
}

// GetProducts lists products with pagination
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param size query int false "Page size"
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status"
// @Success 200 {object} PaginatedResponse{data=[]models.Product}
// @Router /api/products [get]
func (c *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	products, total, err := c.service.GetProducts(page, size,
		r.URL.Query().Get("category"), r.URL.Query().Get("status"))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to list products", nil))
		return
	}

	render.JSON(w, r, SuccessPaginatedResponse("ok", products, total, page, size))
}

// UpdateProduct applies a partial update
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param updates body object true "Fields to update"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /api/products/{id} [put]
func (c *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var updates map[string]interface{}
	if err := render.DecodeJSON(r.Body, &updates); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}

	if err := c.service.UpdateProduct(id, updates); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("product updated", nil))
}

// DeleteProduct removes a product
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /api/products/{id} [delete]
func (c *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.service.DeleteProduct(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("product deleted", nil))
}
