package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is one invited attendee of an event. AccessToken is the sole
// credential for gallery access, so it carries a system-wide unique index;
// the column stays NULL until an invite is issued.
type Guest struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID         uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index"`
	Name            string     `gorm:"column:name;not null"`
	Email           string     `gorm:"column:email;not null"`
	AccessToken     *string    `gorm:"column:access_token;uniqueIndex:guests_access_token_key"`
	InvitedAt       *time.Time `gorm:"column:invited_at"`
	InviteExpiresAt *time.Time `gorm:"column:invite_expires_at"`
	RevokedAt       *time.Time `gorm:"column:revoked_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}
