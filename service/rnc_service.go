/*
 * @module service/rnc_service
 * @description Non-conformance record business service, including escalation from failed inspections
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/requirements.md
 * @stateFlow RNC created (manually or from a failed result) -> analyzed -> resolved
 * @rules RNC codes are sequential per year; only open or in_analysis records can be resolved
 * @dependencies controlflow-service/service/models, gorm.io/gorm
 * @refs api/controllers/rnc_controller.go
 */

package service

import (
	"errors"
	"fmt"
	"time"

	"controlflow-service/service/models"

	"gorm.io/gorm"
)

var validSeverities = []string{"minor", "major", "critical"}

// RNCService manages non-conformance records.
type RNCService struct {
	db *gorm.DB
}

// NewRNCService creates the RNC service.
func NewRNCService(db *gorm.DB) *RNCService {
	return &RNCService{db: db}
}

// CreateRNC persists a new non-conformance record with a generated code.
func (s *RNCService) CreateRNC(rnc *models.NonConformance) error {
	if rnc.Description == "" {
		return errors.New("description is required")
	}
	if !contains(validSeverities, rnc.Severity) {
		return errors.New("invalid severity: " + rnc.Severity)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		code, err := s.nextCode(tx)
		if err != nil {
			return err
		}
		rnc.Code = code
		return tx.Create(rnc).Error
	})
}

// CreateFromResult escalates a failed inspection result into an RNC.
func (s *RNCService) CreateFromResult(result *models.InspectionResult, severity, description, createdBy string) (*models.NonConformance, error) {
	if result.Passed {
		return nil, errors.New("cannot open an RNC for a passed inspection result")
	}
	if description == "" {
		description = fmt.Sprintf("Etiqueta inspection failed: similarity %.2f below threshold", result.SimilarityScore)
	}

	// Walk result -> question -> plan to attribute the product.
	var question models.EtiquetaQuestion
	if err := s.db.First(&question, "id = ?", result.QuestionID).Error; err != nil {
		return nil, fmt.Errorf("loading question for result %s: %w", result.ID, err)
	}
	var plan models.InspectionPlan
	if err := s.db.First(&plan, "id = ?", question.InspectionPlanID).Error; err != nil {
		return nil, fmt.Errorf("loading plan for question %s: %w", question.ID, err)
	}

	rnc := &models.NonConformance{
		ProductID:          plan.ProductID,
		InspectionResultID: &result.ID,
		Severity:           severity,
		Description:        description,
		CreatedBy:          createdBy,
	}
	if err := s.CreateRNC(rnc); err != nil {
		return nil, err
	}
	return rnc, nil
}

// GetRNC fetches one record by id.
func (s *RNCService) GetRNC(id string) (*models.NonConformance, error) {
	var rnc models.NonConformance
	if err := s.db.First(&rnc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rnc, nil
}

// GetRNCs lists records with pagination and optional filters.
func (s *RNCService) GetRNCs(page, pageSize int, status, severity string) ([]models.NonConformance, int64, error) {
	var rncs []models.NonConformance
	var total int64

	query := s.db.Model(&models.NonConformance{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&rncs).Error

	return rncs, total, err
}

// ResolveRNC closes an open record with a resolution text.
func (s *RNCService) ResolveRNC(id, resolution string) error {
	if resolution == "" {
		return errors.New("resolution text is required")
	}

	var rnc models.NonConformance
	if err := s.db.First(&rnc, "id = ?", id).Error; err != nil {
		return err
	}
	if rnc.Status == "resolved" {
		return errors.New("RNC is already resolved")
	}

	now := time.Now()
	return s.db.Model(&rnc).Updates(map[string]interface{}{
		"status":      "resolved",
		"resolution":  resolution,
		"resolved_at": &now,
	}).Error
}

// nextCode generates RNC-YYYY-NNNN, sequential within the current year.
func (s *RNCService) nextCode(tx *gorm.DB) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RNC-%d-", year)

	var count int64
	if err := tx.Model(&models.NonConformance{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
