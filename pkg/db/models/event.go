package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is one photography engagement, owned by exactly one photographer.
type Event struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PhotographerID uuid.UUID  `gorm:"column:photographer_id;type:uuid;not null;index"`
	Name           string     `gorm:"column:name;not null"`
	Date           time.Time  `gorm:"column:date;not null"`
	Location       *string    `gorm:"column:location"`
	Description    *string    `gorm:"column:description"`
	PriceCents     *int       `gorm:"column:price_cents"`
	Guests         []Guest    `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Photos         []Photo    `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
