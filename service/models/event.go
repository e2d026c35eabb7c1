/*
 * @module service/models/event
 * @description Event models: SSE push events and the database change payloads behind them
 * @architecture event-driven - data model layer
 * @documentReference dev_docs/model.md
 * @stateFlow event produced -> dispatched -> consumed by SSE clients
 * @rules events are best-effort; a dropped SSE event is not an inspection failure
 * @dependencies github.com/google/uuid
 * @refs service/event/event_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SSEEvent is one event pushed to connected dashboard clients.
type SSEEvent struct {
	ID        string                 `gorm:"type:uuid;primary_key" json:"id"`
	EventType string                 `gorm:"not null" json:"event_type"` // inspection_result.created, rnc.created, system_notification
	UserName  string                 `gorm:"not null;index" json:"user_name"`
	Data      JSONB                  `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	Sent      bool                   `gorm:"not null;default:false" json:"sent"`
	SentAt    *time.Time             `json:"sent_at"`
}

func (s *SSEEvent) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// DBChangeEvent is the payload delivered over LISTEN/NOTIFY when a watched
// table changes.
type DBChangeEvent struct {
	Table     string                 `json:"table"`
	Operation string                 `json:"operation"` // INSERT, UPDATE, DELETE
	Record    map[string]interface{} `json:"record"`
}

// ResultEvent is the message published to Kafka when an inspection result is
// persisted.
type ResultEvent struct {
	EventType       string    `json:"event_type"`
	ResultID        string    `json:"result_id"`
	QuestionID      string    `json:"question_id"`
	SimilarityScore float64   `json:"similarity_score"`
	Passed          bool      `json:"passed"`
	StationID       string    `json:"station_id,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}
