package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction of an inventory mutation.
type Direction string

const (
	DirectionConsume Direction = "consume"
	DirectionRestore Direction = "restore"
)

type MovementReason string

const (
	ReasonOrderCreated   MovementReason = "order_created"
	ReasonOrderCancelled MovementReason = "order_cancelled"
	ReasonOrderDeleted   MovementReason = "order_deleted"
)

// StockMovement records one article quantity change caused by an order.
// QuantityBefore - QuantityAfter is smaller than Delta when a consume was
// clamped at zero.
type StockMovement struct {
	ID             string         `gorm:"primaryKey;size:36"`
	OrderID        uint           `gorm:"not null;index"`
	ArticleID      uint           `gorm:"not null;index"`
	Direction      Direction      `gorm:"size:16;not null"`
	Reason         MovementReason `gorm:"size:32;not null"`
	Delta          int            `gorm:"not null"`
	QuantityBefore int            `gorm:"not null"`
	QuantityAfter  int            `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"not null;index"`
}

func (m *StockMovement) TableName() string {
	return "stock_movements"
}

func NewStockMovement(orderID, articleID uint, dir Direction, reason MovementReason, delta, before, after int) *StockMovement {
	return &StockMovement{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		ArticleID:      articleID,
		Direction:      dir,
		Reason:         reason,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		CreatedAt:      time.Now(),
	}
}
