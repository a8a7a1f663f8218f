package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanMoveTo reports whether an order in status s may be moved to next.
// Cancelled is final, and a completed order never goes back to pending.
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	switch {
	case s == next:
		return true
	case s == OrderStatusCancelled:
		return false
	case s == OrderStatusCompleted && next == OrderStatusPending:
		return false
	}
	return true
}

// Order is a purchase of products. Its lines freeze the unit price at the
// time the order was placed.
type Order struct {
	ID        uint        `gorm:"primaryKey"`
	Code      string      `gorm:"uniqueIndex;not null"`
	Notes     *string     `gorm:"type:text"`
	Status    OrderStatus `gorm:"size:16;not null;default:pending;index"`
	CreatedBy *uint
	Lines     []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"not null;index"`
	UpdatedAt time.Time   `gorm:"not null"`
}

func (o *Order) TableName() string {
	return "orders"
}

// Total sums the frozen line totals, in cents.
func (o *Order) Total() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.LineTotal
	}
	return total
}

// OrderLine has no foreign key on ProductID: a line outlives the product it
// was sold from so its price snapshot stays readable.
type OrderLine struct {
	ID        uint     `gorm:"primaryKey"`
	OrderID   uint     `gorm:"not null;index"`
	ProductID uint     `gorm:"not null;index"`
	Quantity  int      `gorm:"not null;default:1"`
	UnitPrice int64    `gorm:"<-:create;not null;default:0"`
	LineTotal int64    `gorm:"<-:create;not null;default:0"`
	Product   *Product `gorm:"-"`
}

func (l *OrderLine) TableName() string {
	return "order_products"
}
