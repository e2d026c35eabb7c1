/*
 * @module service/etiqueta/service
 * @description Etiqueta business service: question creation, scoring pipeline and results retrieval
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow create question (store image + persist row); score (OCR reference -> OCR submission -> normalize -> similarity -> persist result)
 * @rules results are immutable; reference text is cached idempotently; OCR failures are never scored as 0
 * @dependencies controlflow-service/service/models, controlflow-service/service/ocr, gorm.io/gorm
 * @refs api/controllers/etiqueta_controller.go
 */

package etiqueta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"controlflow-service/service/metrics"
	"controlflow-service/service/models"
	"controlflow-service/service/ocr"
	"controlflow-service/service/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResultPublisher receives persisted inspection results for downstream
// consumers (Kafka, SSE). Publishing is best-effort.
type ResultPublisher interface {
	PublishResult(event models.ResultEvent)
}

// Service implements the etiqueta question lifecycle and the scoring core.
type Service struct {
	db         *gorm.DB
	engine     ocr.Engine
	store      *storage.FileStore
	publishers []ResultPublisher
}

// NewService creates the etiqueta service.
func NewService(db *gorm.DB, engine ocr.Engine, store *storage.FileStore) *Service {
	return &Service{db: db, engine: engine, store: store}
}

// AddPublisher registers a downstream result consumer.
func (s *Service) AddPublisher(p ResultPublisher) {
	s.publishers = append(s.publishers, p)
}

// CreateQuestionRequest carries the validated upload fields.
type CreateQuestionRequest struct {
	InspectionPlanID string
	StepID           string
	TipoEtiqueta     string
	LimiteAprovacao  float64
	FileName         string
}

// Validate checks required fields and value ranges.
func (r *CreateQuestionRequest) Validate() error {
	if r.InspectionPlanID == "" {
		return validationError("inspection_plan_id is required")
	}
	if r.StepID == "" {
		return validationError("step_id is required")
	}
	if r.TipoEtiqueta == "" {
		return validationError("tipo_etiqueta is required")
	}
	if r.LimiteAprovacao < 0 || r.LimiteAprovacao > 100 {
		return validationError("limite_aprovacao must be between 0 and 100, got %v", r.LimiteAprovacao)
	}
	return nil
}

// CreateQuestion persists a new compliance check with its reference image.
func (s *Service) CreateQuestion(req CreateQuestionRequest, image io.Reader) (*models.EtiquetaQuestion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The plan and step live in the same database, so verify the reference
	// instead of trusting the form blindly.
	var step models.PlanStep
	err := s.db.First(&step, "id = ? AND plan_id = ?", req.StepID, req.InspectionPlanID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationError("step %s does not belong to inspection plan %s", req.StepID, req.InspectionPlanID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	question := &models.EtiquetaQuestion{
		ID:               uuid.New().String(),
		InspectionPlanID: req.InspectionPlanID,
		StepID:           req.StepID,
		TipoEtiqueta:     req.TipoEtiqueta,
		LimiteAprovacao:  req.LimiteAprovacao,
	}

	path, hash, err := s.store.Save(question.ID, req.FileName, image)
	if err != nil {
		return nil, fmt.Errorf("%w: storing reference image: %v", ErrInternal, err)
	}
	question.ArquivoReferencia = path
	question.ReferenceHash = hash

	if err := s.db.Create(question).Error; err != nil {
		// The row failed; do not leave the image orphaned.
		if rmErr := s.store.Remove(path); rmErr != nil {
			slog.Error("failed to remove orphaned reference image", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	slog.Info("etiqueta question created",
		"question_id", question.ID,
		"plan_id", question.InspectionPlanID,
		"tipo", question.TipoEtiqueta,
		"limite_aprovacao", question.LimiteAprovacao)

	return question, nil
}

// GetQuestion fetches one question by id.
func (s *Service) GetQuestion(id string) (*models.EtiquetaQuestion, error) {
	var question models.EtiquetaQuestion
	err := s.db.First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &question, nil
}

// ListResults returns all results for a question, most recent first.
// Unknown question ids are an error, not an empty list.
func (s *Service) ListResults(questionID string) ([]models.InspectionResult, error) {
	if _, err := s.GetQuestion(questionID); err != nil {
		return nil, err
	}

	results := []models.InspectionResult{}
	err := s.db.Where("question_id = ?", questionID).
		Order("computed_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return results, nil
}

// GetResult fetches one result, verifying it belongs to the question.
func (s *Service) GetResult(questionID, resultID string) (*models.InspectionResult, error) {
	var result models.InspectionResult
	err := s.db.First(&result, "id = ? AND question_id = ?", resultID, questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &result, nil
}

// Score evaluates a submitted image against a question's reference and
// persists an immutable InspectionResult.
func (s *Service) Score(ctx context.Context, questionID string, submitted io.Reader, stationID string) (*models.InspectionResult, error) {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}

	referenceText, err := s.referenceText(ctx, question)
	if err != nil {
		return nil, err
	}

	extraction, err := s.extract(ctx, submitted)
	if err != nil {
		return nil, err
	}

	rules := RuleSetFor(question.TipoEtiqueta)
	refNorm := rules.Apply(NormalizeText(referenceText))
	extNorm := rules.Apply(NormalizeText(extraction.Text))

	score := Similarity(refNorm, extNorm)
	passed := score >= question.LimiteAprovacao

	result := &models.InspectionResult{
		QuestionID:      question.ID,
		ExtractedText:   extraction.Text,
		ReferenceText:   referenceText,
		SimilarityScore: score,
		Passed:          passed,
		OcrConfidence:   extraction.Confidence,
		StationID:       stationID,
		ComputedAt:      time.Now(),
	}

	if err := s.db.Create(result).Error; err != nil {
		return nil, fmt.Errorf("%w: persisting inspection result: %v", ErrInternal, err)
	}

	metrics.RecordResult(score, passed)
	slog.Info("inspection scored",
		"question_id", question.ID,
		"result_id", result.ID,
		"score", score,
		"passed", passed,
		"station_id", stationID)

	s.publish(result)

	return result, nil
}

// referenceText returns the cached OCR output of the reference image,
// computing and caching it on first use. Concurrent first computations write
// equal values, so the cache update needs no lock.
func (s *Service) referenceText(ctx context.Context, question *models.EtiquetaQuestion) (string, error) {
	if question.ReferenceText != nil {
		return *question.ReferenceText, nil
	}

	f, err := s.store.Open(question.ArquivoReferencia)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer f.Close()

	extraction, err := s.extract(ctx, f)
	if err != nil {
		return "", err
	}

	err = s.db.Model(&models.EtiquetaQuestion{}).
		Where("id = ?", question.ID).
		Update("reference_text", extraction.Text).Error
	if err != nil {
		// The cache is an optimization; scoring proceeds with the text in hand.
		slog.Warn("failed to cache reference text", "question_id", question.ID, "error", err)
	}

	question.ReferenceText = &extraction.Text
	return extraction.Text, nil
}

// extract runs OCR and maps failures onto the service taxonomy.
func (s *Service) extract(ctx context.Context, image io.Reader) (*ocr.Result, error) {
	start := time.Now()
	result, err := s.engine.ExtractImage(ctx, image)
	metrics.ObserveOCR(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOcrExtraction, err)
	}
	return result, nil
}

// publish fans the result out to registered consumers.
func (s *Service) publish(result *models.InspectionResult) {
	if len(s.publishers) == 0 {
		return
	}

	event := models.ResultEvent{
		EventType:       "inspection_result.created",
		ResultID:        result.ID,
		QuestionID:      result.QuestionID,
		SimilarityScore: result.SimilarityScore,
		Passed:          result.Passed,
		StationID:       result.StationID,
		ComputedAt:      result.ComputedAt,
	}
	for _, p := range s.publishers {
		p.PublishResult(event)
	}
}
