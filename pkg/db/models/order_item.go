package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one purchased photo within an order. The (order_id, photo_id)
// unique index is what makes webhook reconciliation safe to replay.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:order_items_order_photo_key"`
	PhotoID        *uuid.UUID `gorm:"column:photo_id;type:uuid;uniqueIndex:order_items_order_photo_key"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	Quantity       int        `gorm:"column:quantity;not null;default:1"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
