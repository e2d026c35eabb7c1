/*
 * @module api/controllers/etiqueta_controller
 * @description Etiqueta compliance API: reference upload, scoring submissions, result queries
 * @architecture MVC - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow HTTP request -> multipart parsing -> etiqueta service -> JSON envelope
 * @rules uploaded files are copied to a temp file that is always removed before the handler returns
 * @dependencies controlflow-service/service, github.com/go-chi/render, github.com/spf13/cast
 * @refs service/etiqueta/service.go
 */

package controllers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"controlflow-service/service"
	"controlflow-service/service/etiqueta"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// maxUploadBytes caps multipart memory before spilling to disk.
const maxUploadBytes = 32 << 20

// EtiquetaController handles the compliance check endpoints.
type EtiquetaController struct {
	service *etiqueta.Service
	rncSvc  *service.RNCService
	tempDir string
}

// NewEtiquetaController creates the controller instance.
func NewEtiquetaController() *EtiquetaController {
	return &EtiquetaController{
		service: service.GlobalEtiquetaService,
		rncSvc:  service.GlobalRNCService,
		tempDir: service.TempUploadDir,
	}
}

// CreateQuestion registers an etiqueta compliance check
// @Summary Create an etiqueta compliance check
// @Description Registers a label compliance check with its reference image. The form fields inspection_plan_id, step_id, tipo_etiqueta, limite_aprovacao and the file arquivo_referencia are required.
// @Tags etiqueta
// @Accept multipart/form-data
// @Produce json
// @Param inspection_plan_id formData string true "Inspection plan id"
// @Param step_id formData string true "Plan step id"
// @Param tipo_etiqueta formData string true "Label type"
// @Param limite_aprovacao formData number true "Approval threshold, 0-100"
// @Param arquivo_referencia formData file true "Reference label image"
// @Success 200 {object} APIResponse{data=models.EtiquetaQuestion}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /api/etiqueta-questions [post]
func (c *EtiquetaController) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("request body is not valid multipart form data", nil))
		return
	}
	defer r.MultipartForm.RemoveAll()

	limite, err := cast.ToFloat64E(r.FormValue("limite_aprovacao"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("limite_aprovacao must be a number between 0 and 100", nil))
		return
	}

	file, header, err := r.FormFile("arquivo_referencia")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("arquivo_referencia file is required", nil))
		return
	}
	defer file.Close()

	req := etiqueta.CreateQuestionRequest{
		InspectionPlanID: r.FormValue("inspection_plan_id"),
		StepID:           r.FormValue("step_id"),
		TipoEtiqueta:     r.FormValue("tipo_etiqueta"),
		LimiteAprovacao:  limite,
		FileName:         header.Filename,
	}

	question, err := c.service.CreateQuestion(req, file)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse("etiqueta question created", question))
}

// GetQuestion returns one compliance check
// @Summary Get an etiqueta compliance check
// @Tags etiqueta
// @Produce json
// @Param id path string true "Question id"
// @Success 200 {object} APIResponse{data=models.EtiquetaQuestion}
// @Failure 404 {object} APIResponse
// @Router /api/etiqueta-questions/{id} [get]
func (c *EtiquetaController) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	question, err := c.service.GetQuestion(id)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse("ok", question))
}

// ListResults returns all results for a question
// @Summary List inspection results for a compliance check
// @Description Returns results most recent first. A question without results yields an empty array; an unknown question id yields 404.
// @Tags etiqueta
// @Produce json
// @Param id path string true "Question id"
// @Success 200 {object} APIResponse{data=[]models.InspectionResult}
// @Failure 404 {object} APIResponse
// @Router /api/etiqueta-questions/{id}/results [get]
func (c *EtiquetaController) ListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := c.service.ListResults(id)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse("ok", results))
}

// Inspect scores a submitted label photo against the reference
// @Summary Score a label photo against a compliance check
// @Description Runs OCR on the submitted image, compares the normalized text with the reference and persists a pass/fail result.
// @Tags etiqueta
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Question id"
// @Param station_id formData string false "Inspection station identifier"
// @Param arquivo_inspecao formData file true "Label photo to score"
// @Success 200 {object} APIResponse{data=models.InspectionResult}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 422 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /api/etiqueta-questions/{id}/inspect [post]
func (c *EtiquetaController) Inspect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("request body is not valid multipart form data", nil))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("arquivo_inspecao")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("arquivo_inspecao file is required", nil))
		return
	}
	defer file.Close()

	// Spool the upload so a client disconnect mid-OCR cannot truncate the read.
	tempPath, err := c.spoolUpload(file)
	if err != nil {
		slog.Error("failed to spool inspection upload", "question_id", id, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to read uploaded file", nil))
		return
	}
	defer os.Remove(tempPath)

	spooled, err := os.Open(tempPath)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to read uploaded file", nil))
		return
	}
	defer spooled.Close()

	result, err := c.service.Score(r.Context(), id, spooled, r.FormValue("station_id"))
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse("inspection scored", result))
}

// CreateRNCFromResult escalates a failed result to a non-conformance report
// @Summary Open a non-conformance report from a failed result
// @Tags etiqueta
// @Accept json
// @Produce json
// @Param id path string true "Question id"
// @Param resultId path string true "Inspection result id"
// @Success 200 {object} APIResponse{data=models.NonConformance}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /api/etiqueta-questions/{id}/results/{resultId}/rnc [post]
func (c *EtiquetaController) CreateRNCFromResult(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")
	resultID := chi.URLParam(r, "resultId")

	var body struct {
		Severity    string `json:"severity"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
	}
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
			return
		}
	}

	result, err := c.service.GetResult(questionID, resultID)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	rnc, err := c.rncSvc.CreateFromResult(result, body.Severity, body.Description, body.CreatedBy)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	render.JSON(w, r, SuccessResponse("non-conformance created", rnc))
}

// spoolUpload copies the multipart file into the temp upload dir and returns
// the path. Callers remove the file.
func (c *EtiquetaController) spoolUpload(src io.Reader) (string, error) {
	path := filepath.Join(c.tempDir, uuid.New().String())
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// renderError maps the service error taxonomy onto HTTP responses.
func (c *EtiquetaController) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, etiqueta.ErrValidation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
	case errors.Is(err, etiqueta.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("etiqueta question not found", nil))
	case errors.Is(err, etiqueta.ErrOcrExtraction):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, &APIResponse{Status: 422, Msg: "text extraction failed: " + err.Error()})
	default:
		slog.Error("etiqueta request failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("internal error", nil))
	}
}
