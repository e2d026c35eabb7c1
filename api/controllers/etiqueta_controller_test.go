/*
 * @module api/controllers/etiqueta_controller_test
 * @description HTTP-level tests for the etiqueta compliance endpoints
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow test setup -> request build -> handler -> response assertions
 * @rules handlers are exercised through a chi router so URL params resolve
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controlflow-service/service"
	"controlflow-service/service/etiqueta"
	"controlflow-service/service/models"
	"controlflow-service/service/ocr"
	"controlflow-service/service/storage"
	"controlflow-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine returns canned OCR output.
type stubEngine struct {
	text string
	err  error
}

func (s *stubEngine) ExtractImage(ctx context.Context, image io.Reader) (*ocr.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	io.Copy(io.Discard, image)
	return &ocr.Result{Text: s.text, Confidence: 0.95, ProcessedAt: time.Now()}, nil
}

type controllerFixture struct {
	router  *chi.Mux
	factory *testutil.TestDataFactory
	planID  string
	stepID  string
	http    *testutil.HTTPTestHelper
}

func setupController(t *testing.T, engine ocr.Engine) *controllerFixture {
	t.Helper()

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	svc := etiqueta.NewService(tdb.DB, engine, store)
	controller := &EtiquetaController{
		service: svc,
		rncSvc:  service.NewRNCService(tdb.DB),
		tempDir: t.TempDir(),
	}

	router := chi.NewRouter()
	router.Post("/api/etiqueta-questions", controller.CreateQuestion)
	router.Get("/api/etiqueta-questions/{id}", controller.GetQuestion)
	router.Get("/api/etiqueta-questions/{id}/results", controller.ListResults)
	router.Post("/api/etiqueta-questions/{id}/inspect", controller.Inspect)
	router.Post("/api/etiqueta-questions/{id}/results/{resultId}/rnc", controller.CreateRNCFromResult)

	factory := testutil.NewTestDataFactory(tdb.DB)
	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID)

	return &controllerFixture{
		router:  router,
		factory: factory,
		planID:  plan.ID,
		stepID:  plan.Steps[0].ID,
		http:    testutil.NewHTTPTestHelper(),
	}
}

func (f *controllerFixture) uploadQuestion(t *testing.T, fields map[string]string, withFile bool) *httptest.ResponseRecorder {
	t.Helper()

	fileField, fileName := "", ""
	var content []byte
	if withFile {
		fileField, fileName = "arquivo_referencia", "reference.png"
		content = []byte("fake image bytes")
	}

	req, err := f.http.CreateMultipartRequest(http.MethodPost, "/api/etiqueta-questions", fields, fileField, fileName, content)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *controllerFixture) defaultFields() map[string]string {
	return map[string]string{
		"inspection_plan_id": f.planID,
		"step_id":            f.stepID,
		"tipo_etiqueta":      "energy_label",
		"limite_aprovacao":   "85",
	}
}

func TestCreateQuestionUpload(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})

	w := f.uploadQuestion(t, f.defaultFields(), true)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, 85.0, data["limite_aprovacao"])
	assert.Equal(t, "energy_label", data["tipo_etiqueta"])
}

func TestCreateQuestionMissingFile(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})

	w := f.uploadQuestion(t, f.defaultFields(), false)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
}

func TestCreateQuestionInvalidThreshold(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})

	fields := f.defaultFields()
	fields["limite_aprovacao"] = "not-a-number"
	w := f.uploadQuestion(t, fields, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fields["limite_aprovacao"] = "150"
	w = f.uploadQuestion(t, fields, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateQuestionMissingFields(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})

	fields := f.defaultFields()
	delete(fields, "tipo_etiqueta")
	w := f.uploadQuestion(t, fields, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListResultsUnknownQuestionReturns404(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/api/etiqueta-questions/00000000-0000-0000-0000-000000000000/results", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 404, response.Status)
}

func TestListResultsEmptyArray(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})
	question := f.factory.CreateQuestion(f.planID, f.stepID)

	req := httptest.NewRequest(http.MethodGet, "/api/etiqueta-questions/"+question.ID+"/results", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.([]interface{})
	require.True(t, ok, "results must serialize as a JSON array")
	assert.Empty(t, data)
}

func TestResultsRouteRejectsWrongMethod(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})
	question := f.factory.CreateQuestion(f.planID, f.stepID)

	req := httptest.NewRequest(http.MethodPost, "/api/etiqueta-questions/"+question.ID+"/results", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestInspectScoresSubmission(t *testing.T) {
	f := setupController(t, &stubEngine{text: "Classe Energetica A"})

	w := f.uploadQuestion(t, f.defaultFields(), true)
	require.Equal(t, http.StatusOK, w.Code)
	var created APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	questionID := created.Data.(map[string]interface{})["id"].(string)

	req, err := f.http.CreateMultipartRequest(http.MethodPost,
		"/api/etiqueta-questions/"+questionID+"/inspect",
		map[string]string{"station_id": "station-01"},
		"arquivo_inspecao", "photo.png", []byte("submitted image"))
	require.NoError(t, err)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, 100.0, data["similarity_score"])
	assert.Equal(t, true, data["passed"])
	assert.Equal(t, "station-01", data["station_id"])
}

func TestInspectMissingFile(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})
	question := f.factory.CreateQuestion(f.planID, f.stepID)

	req, err := f.http.CreateMultipartRequest(http.MethodPost,
		"/api/etiqueta-questions/"+question.ID+"/inspect",
		map[string]string{}, "", "", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRNCFromFailedResult(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})
	question := f.factory.CreateQuestion(f.planID, f.stepID)
	failed := f.factory.CreateResult(question.ID, func(r *models.InspectionResult) {
		r.Passed = false
		r.SimilarityScore = 40
	})

	req, err := f.http.CreateJSONRequest(http.MethodPost,
		"/api/etiqueta-questions/"+question.ID+"/results/"+failed.ID+"/rnc",
		map[string]interface{}{"severity": "major", "created_by": "inspector-1"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response.Data.(map[string]interface{})
	assert.Contains(t, data["code"], "RNC-")
	assert.Equal(t, "major", data["severity"])
}

func TestCreateRNCFromPassedResultRejected(t *testing.T) {
	f := setupController(t, &stubEngine{text: "ok"})
	question := f.factory.CreateQuestion(f.planID, f.stepID)
	passed := f.factory.CreateResult(question.ID)

	req, err := f.http.CreateJSONRequest(http.MethodPost,
		"/api/etiqueta-questions/"+question.ID+"/results/"+passed.ID+"/rnc",
		map[string]interface{}{"severity": "major"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
