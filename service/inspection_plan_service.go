/*
 * @module service/inspection_plan_service
 * @description Inspection plan business service: plans and their ordered steps
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/requirements.md
 * @stateFlow plan CRUD; steps managed inside their plan
 * @rules a plan belongs to an existing product; step ordinals are unique within a plan
 * @dependencies controlflow-service/service/models, gorm.io/gorm
 * @refs api/controllers/inspection_plan_controller.go
 */

package service

import (
	"errors"

	"controlflow-service/service/models"

	"gorm.io/gorm"
)

var validStepTypes = []string{"etiqueta", "visual", "measurement"}
var validPlanStatuses = []string{"draft", "active", "archived"}

// InspectionPlanService manages inspection plans and steps.
type InspectionPlanService struct {
	db *gorm.DB
}

// NewInspectionPlanService creates the plan service.
func NewInspectionPlanService(db *gorm.DB) *InspectionPlanService {
	return &InspectionPlanService{db: db}
}

// CreatePlan persists a plan with its steps in one transaction.
func (s *InspectionPlanService) CreatePlan(plan *models.InspectionPlan) error {
	if plan.Name == "" {
		return errors.New("plan name is required")
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", plan.ProductID).Error; err != nil {
		return errors.New("product does not exist")
	}

	for i := range plan.Steps {
		if !contains(validStepTypes, plan.Steps[i].Type) {
			return errors.New("invalid step type: " + plan.Steps[i].Type)
		}
		if plan.Steps[i].Ordinal == 0 {
			plan.Steps[i].Ordinal = i + 1
		}
	}

	return s.db.Create(plan).Error
}

// GetPlan fetches a plan with its steps ordered by ordinal.
func (s *InspectionPlanService) GetPlan(id string) (*models.InspectionPlan, error) {
	var plan models.InspectionPlan
	err := s.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("plan_steps.ordinal ASC")
	}).First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlans lists plans with pagination and optional filters.
func (s *InspectionPlanService) GetPlans(page, pageSize int, productID, status string) ([]models.InspectionPlan, int64, error) {
	var plans []models.InspectionPlan
	var total int64

	query := s.db.Model(&models.InspectionPlan{})
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&plans).Error

	return plans, total, err
}

// UpdatePlan applies field updates after validating the status transition.
func (s *InspectionPlanService) UpdatePlan(id string, updates map[string]interface{}) error {
	if status, exists := updates["status"]; exists {
		statusStr, _ := status.(string)
		if !contains(validPlanStatuses, statusStr) {
			return errors.New("invalid plan status: " + statusStr)
		}
	}

	result := s.db.Model(&models.InspectionPlan{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePlan removes a plan and cascades to its steps.
func (s *InspectionPlanService) DeletePlan(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PlanStep{}, "plan_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InspectionPlan{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddStep appends a step to an existing plan.
func (s *InspectionPlanService) AddStep(planID string, step *models.PlanStep) error {
	var plan models.InspectionPlan
	if err := s.db.First(&plan, "id = ?", planID).Error; err != nil {
		return errors.New("inspection plan does not exist")
	}
	if !contains(validStepTypes, step.Type) {
		return errors.New("invalid step type: " + step.Type)
	}

	step.PlanID = planID
	if step.Ordinal == 0 {
		var maxOrdinal int
		s.db.Model(&models.PlanStep{}).Where("plan_id = ?", planID).
			Select("COALESCE(MAX(ordinal), 0)").Scan(&maxOrdinal)
		step.Ordinal = maxOrdinal + 1
	}

	return s.db.Create(step).Error
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
