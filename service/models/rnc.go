/*
 * @module service/models/rnc
 * @description Non-conformance record (RNC) model for tracking quality deviations
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/model.md
 * @stateFlow RNC lifecycle: open -> in_analysis -> resolved
 * @rules RNC codes are sequential per year (RNC-YYYY-NNNN)
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/etiqueta/service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NonConformance records a quality deviation, optionally escalated from a
// failed inspection result.
type NonConformance struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code               string     `json:"code" gorm:"not null;unique;size:20"` // RNC-YYYY-NNNN
	ProductID          string     `json:"product_id" gorm:"type:varchar(36);index"`
	InspectionResultID *string    `json:"inspection_result_id,omitempty" gorm:"type:varchar(36);index"`
	Severity           string     `json:"severity" gorm:"not null;size:20"` // minor, major, critical
	Description        string     `json:"description" gorm:"not null;size:2000"`
	Status             string     `json:"status" gorm:"not null;default:'open';size:20"` // open, in_analysis, resolved
	Resolution         string     `json:"resolution" gorm:"size:2000"`
	CreatedBy          string     `json:"created_by" gorm:"size:100"`
	CreatedAt          time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

func (nc *NonConformance) BeforeCreate(tx *gorm.DB) error {
	if nc.ID == "" {
		nc.ID = uuid.New().String()
	}
	return nil
}
