/*
 * @module service/models/inspection_plan
 * @description Inspection plan and step models; a plan is an ordered checklist executed against a product
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/model.md
 * @stateFlow plan lifecycle: draft -> active -> archived
 * @rules steps are ordered by ordinal inside a plan; deleting a plan cascades to its steps
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/models/etiqueta.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InspectionPlan groups the checks executed for one product revision.
type InspectionPlan struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"not null;type:varchar(36);index"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Version   string    `json:"version" gorm:"not null;default:'1.0.0';size:20"`
	Status    string    `json:"status" gorm:"not null;default:'draft';size:20"` // draft, active, archived
	CreatedBy string    `json:"created_by" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Product Product    `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Steps   []PlanStep `json:"steps,omitempty" gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// PlanStep is one check inside an inspection plan.
type PlanStep struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PlanID    string    `json:"plan_id" gorm:"not null;type:varchar(36);index"`
	Ordinal   int       `json:"ordinal" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Type      string    `json:"type" gorm:"not null;size:30"` // etiqueta, visual, measurement
	Required  bool      `json:"required" gorm:"not null;default:true"`
	Config    JSONB     `json:"config,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Plan InspectionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

func (ip *InspectionPlan) BeforeCreate(tx *gorm.DB) error {
	if ip.ID == "" {
		ip.ID = uuid.New().String()
	}
	return nil
}

func (ps *PlanStep) BeforeCreate(tx *gorm.DB) error {
	if ps.ID == "" {
		ps.ID = uuid.New().String()
	}
	return nil
}
