/*
 * @module testutil/test_helper
 * @description Test utilities: in-memory database, data factories, HTTP helpers
 * @architecture test infrastructure
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow test setup -> data creation -> test execution -> cleanup
 * @rules factories panic on failure so broken fixtures fail loudly
 * @dependencies gorm, sqlite, testify
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controlflow-service/service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB wraps an in-memory sqlite database.
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB creates and migrates the test database.
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&models.Product{},
		&models.InspectionPlan{},
		&models.PlanStep{},
		&models.EtiquetaQuestion{},
		&models.InspectionResult{},
		&models.NonConformance{},
		&models.SystemConfig{},
		&models.SSEEvent{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB truncates every table.
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"inspection_results",
		"etiqueta_questions",
		"plan_steps",
		"inspection_plans",
		"non_conformances",
		"products",
		"system_configs",
		"sse_events",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close closes the database connection.
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory creates model fixtures.
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory creates the factory.
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// ProductOption mutates a product fixture.
type ProductOption func(*models.Product)

// CreateProduct creates a test product.
func (f *TestDataFactory) CreateProduct(opts ...ProductOption) *models.Product {
	product := &models.Product{
		ID:          uuid.New().String(),
		Code:        "PRD-" + generateSuffix(),
		Name:        "Test product",
		Description: "A product used in tests",
		Category:    "electronics",
		Status:      "active",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(product)
	}

	if err := f.DB.Create(product).Error; err != nil {
		panic(fmt.Sprintf("failed to create test product: %v", err))
	}
	return product
}

// PlanOption mutates a plan fixture.
type PlanOption func(*models.InspectionPlan)

// CreatePlan creates a test inspection plan with one etiqueta step.
func (f *TestDataFactory) CreatePlan(productID string, opts ...PlanOption) *models.InspectionPlan {
	plan := &models.InspectionPlan{
		ID:        uuid.New().String(),
		ProductID: productID,
		Name:      "Test plan",
		Version:   "1.0.0",
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	plan.Steps = []models.PlanStep{
		{
			ID:       uuid.New().String(),
			PlanID:   plan.ID,
			Ordinal:  1,
			Name:     "Etiqueta check",
			Type:     "etiqueta",
			Required: true,
			Config:   models.JSONB{},
		},
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := f.DB.Create(plan).Error; err != nil {
		panic(fmt.Sprintf("failed to create test plan: %v", err))
	}
	return plan
}

// QuestionOption mutates a question fixture.
type QuestionOption func(*models.EtiquetaQuestion)

// CreateQuestion creates a test etiqueta question bound to a plan step.
func (f *TestDataFactory) CreateQuestion(planID, stepID string, opts ...QuestionOption) *models.EtiquetaQuestion {
	question := &models.EtiquetaQuestion{
		ID:                uuid.New().String(),
		InspectionPlanID:  planID,
		StepID:            stepID,
		TipoEtiqueta:      "energy_label",
		ArquivoReferencia: "/tmp/test-reference.png",
		LimiteAprovacao:   85,
		CreatedAt:         time.Now(),
	}

	for _, opt := range opts {
		opt(question)
	}

	if err := f.DB.Create(question).Error; err != nil {
		panic(fmt.Sprintf("failed to create test question: %v", err))
	}
	return question
}

// ResultOption mutates a result fixture.
type ResultOption func(*models.InspectionResult)

// CreateResult creates a test inspection result.
func (f *TestDataFactory) CreateResult(questionID string, opts ...ResultOption) *models.InspectionResult {
	result := &models.InspectionResult{
		ID:              uuid.New().String(),
		QuestionID:      questionID,
		ExtractedText:   "sample label text",
		ReferenceText:   "sample label text",
		SimilarityScore: 100,
		Passed:          true,
		OcrConfidence:   0.98,
		StationID:       "station-01",
		ComputedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(result)
	}

	if err := f.DB.Create(result).Error; err != nil {
		panic(fmt.Sprintf("failed to create test result: %v", err))
	}
	return result
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper builds requests and asserts responses.
type HTTPTestHelper struct{}

// NewHTTPTestHelper creates the helper.
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest builds a JSON request.
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// CreateMultipartRequest builds a multipart form request with optional fields
// and one file part.
func (h *HTTPTestHelper) CreateMultipartRequest(method, url string, fields map[string]string, fileField, fileName string, fileContent []byte) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}

	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(fileContent); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// AssertJSONResponse asserts the status code and optionally the body.
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
