package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/types"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
)

// Order is one checkout attempt. The header is written when the provider
// session is opened; PhotoIDs keeps the guest's selection until the webhook
// materializes OrderItems from the provider's authoritative line items.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GuestID         *uuid.UUID        `gorm:"column:guest_id;type:uuid;index"`
	Guest           *Guest            `gorm:"foreignKey:GuestID"`
	PhotographerID  uuid.UUID         `gorm:"column:photographer_id;type:uuid;not null;index"`
	StripeSessionID string            `gorm:"column:stripe_session_id;not null;uniqueIndex:orders_stripe_session_id_key"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	Currency        string            `gorm:"column:currency;not null"`
	PhotoIDs        dbtypes.UUIDArray `gorm:"column:photo_ids;type:uuid[]"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
