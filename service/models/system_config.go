/*
 * @module service/models/system_config
 * @description System configuration model backing runtime tunables
 * @architecture data model layer
 * @documentReference dev_docs/model.md
 * @stateFlow config stored -> read -> updated
 * @rules one value per (key, environment)
 * @dependencies gorm.io/gorm
 * @refs service/config/config_service.go
 */

package models

import (
	"time"
)

// SystemConfig stores one runtime setting.
type SystemConfig struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_config_key_env" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"value"`
	Environment string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_config_key_env" json:"environment"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (SystemConfig) TableName() string {
	return "system_configs"
}
