package models

import "time"

// Article is an atomic stocked unit. Quantity is the current stock and
// Threshold the reorder point; both are never negative.
type Article struct {
	ID          uint      `gorm:"primaryKey"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	Description *string   `gorm:"type:text"`
	Category    string    `gorm:"not null;index"`
	Quantity    int       `gorm:"not null;default:0"`
	Threshold   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (a *Article) TableName() string {
	return "articles"
}

// Validate checks the fields a caller supplies on create or full update.
func (a *Article) Validate() error {
	if a.Code == "" || a.Name == "" || a.Category == "" {
		return Validationf("code, name and category are required")
	}
	if a.Quantity < 0 {
		return Validationf("quantity must be non-negative, got %d", a.Quantity)
	}
	if a.Threshold < 0 {
		return Validationf("threshold must be non-negative, got %d", a.Threshold)
	}
	return nil
}
