/*
 * @module service/models/etiqueta
 * @description Etiqueta (label) compliance check models: question definition and inspection results
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/model.md
 * @stateFlow question created once, read-only afterwards; each inspection attempt appends an immutable result
 * @rules similarity score is deterministic for a given text pair; passed == score >= limite_aprovacao
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/etiqueta/service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EtiquetaQuestion defines one label compliance check: a reference image plus
// the approval threshold submitted images must reach.
type EtiquetaQuestion struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	InspectionPlanID string    `json:"inspection_plan_id" gorm:"not null;type:varchar(36);index"`
	StepID           string    `json:"step_id" gorm:"not null;type:varchar(36);index"`
	TipoEtiqueta     string    `json:"tipo_etiqueta" gorm:"not null;size:50"` // energy_label, ce_label, barcode_label, generic
	ArquivoReferencia string   `json:"arquivo_referencia" gorm:"not null;size:500"` // storage path of the reference image
	ReferenceHash    string    `json:"reference_hash" gorm:"size:64"`
	LimiteAprovacao  float64   `json:"limite_aprovacao" gorm:"not null"`
	// ReferenceText caches the OCR output of the reference image after the
	// first scoring call. Concurrent first computations may both write it;
	// the values are equal so last write wins.
	ReferenceText *string   `json:"reference_text,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Results []InspectionResult `json:"results,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// InspectionResult is one evaluation of a submitted image against a question.
// Rows are immutable: a new attempt creates a new row.
type InspectionResult struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuestionID      string    `json:"question_id" gorm:"not null;type:varchar(36);index"`
	ExtractedText   string    `json:"extracted_text" gorm:"type:text"`
	ReferenceText   string    `json:"reference_text" gorm:"type:text"`
	SimilarityScore float64   `json:"similarity_score" gorm:"not null"`
	Passed          bool      `json:"passed" gorm:"not null"`
	OcrConfidence   float32   `json:"ocr_confidence"`
	StationID       string    `json:"station_id,omitempty" gorm:"size:100"` // set for MQTT station submissions
	ComputedAt      time.Time `json:"computed_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`

	Question EtiquetaQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (q *EtiquetaQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

func (r *InspectionResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
