/*
 * @module service/product_service
 * @description Product catalog business service
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/requirements.md
 * @stateFlow product CRUD over gorm
 * @rules product codes are unique; discontinued products keep their history
 * @dependencies controlflow-service/service/models, gorm.io/gorm
 * @refs api/controllers/product_controller.go
 */

package service

import (
	"errors"

	"controlflow-service/service/models"

	"gorm.io/gorm"
)

// ProductService manages the product catalog.
type ProductService struct {
	db *gorm.DB
}

// NewProductService creates the product service.
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct persists a new product after checking code uniqueness.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Code == "" {
		return errors.New("product code is required")
	}
	if product.Name == "" {
		return errors.New("product name is required")
	}

	var existing models.Product
	if err := s.db.Where("code = ?", product.Code).First(&existing).Error; err == nil {
		return errors.New("product code already exists")
	}

	return s.db.Create(product).Error
}

// GetProduct fetches a product with its plans.
func (s *ProductService) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Plans").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts lists products with pagination and optional filters.
func (s *ProductService) GetProducts(page, pageSize int, category, status string) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := s.db.Model(&models.Product{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&products).Error

	return products, total, err
}

// UpdateProduct applies field updates to a product.
func (s *ProductService) UpdateProduct(id string, updates map[string]interface{}) error {
	if code, exists := updates["code"]; exists {
		var existing models.Product
		if err := s.db.Where("code = ? AND id != ?", code, id).First(&existing).Error; err == nil {
			return errors.New("product code already exists")
		}
	}

	result := s.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProduct removes a product without active plans.
func (s *ProductService) DeleteProduct(id string) error {
	var count int64
	s.db.Model(&models.InspectionPlan{}).Where("product_id = ? AND status = ?", id, "active").Count(&count)
	if count > 0 {
		return errors.New("product has active inspection plans")
	}

	result := s.db.Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
