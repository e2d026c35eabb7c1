/*
 * @module service/models/product
 * @description Product catalog model, the root entity inspection plans attach to
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/model.md
 * @stateFlow product lifecycle: active -> discontinued
 * @rules product codes are unique across the catalog
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/models/inspection_plan.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a manufactured item subject to quality inspection.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code        string    `json:"code" gorm:"not null;unique;size:100"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"size:1000"`
	Category    string    `json:"category" gorm:"size:100"`
	Status      string    `json:"status" gorm:"not null;default:'active';size:20"` // active, discontinued
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Plans []InspectionPlan `json:"plans,omitempty" gorm:"foreignKey:ProductID"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
