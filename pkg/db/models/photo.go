package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is one uploaded image, visible only through its event's guests or the
// owning photographer.
type Photo struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;not null;index"`
	StoragePath string         `gorm:"column:storage_path;not null"`
	URL         string         `gorm:"column:url;not null"`
	Metadata    map[string]any `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
