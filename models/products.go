package models

import (
	"time"
)

// Product represents a sellable bundle in the catalog.
// It includes a unique code, a price in cents and the articles it consumes.
type Product struct {
	ID           uint          `gorm:"primaryKey"`
	Code         string        `gorm:"uniqueIndex;not null"`
	Name         string        `gorm:"not null"`
	Description  *string       `gorm:"type:text"`
	Category     string        `gorm:"not null;index"`
	Price        int64         `gorm:"not null;default:0"`
	Compositions []Composition `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"not null"`
	UpdatedAt    time.Time     `gorm:"not null"`
}

func (p *Product) TableName() string {
	return "products"
}

func (p *Product) Validate() error {
	if p.Code == "" || p.Name == "" || p.Category == "" {
		return Validationf("code, name and category are required")
	}
	if p.Price < 0 {
		return Validationf("price must be non-negative, got %d", p.Price)
	}
	return nil
}

// Composition links a product to one article it requires.
// RequiredQuantity units of the article are consumed per unit of product.
type Composition struct {
	ID               uint     `gorm:"primaryKey"`
	ProductID        uint     `gorm:"not null;index"`
	ArticleID        uint     `gorm:"not null;index"`
	RequiredQuantity int      `gorm:"not null;default:1"`
	Article          *Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

func (c *Composition) TableName() string {
	return "product_articles"
}

// CompositionInput is one requested composition row.
type CompositionInput struct {
	ArticleID        uint
	RequiredQuantity int
}

func (in CompositionInput) Validate() error {
	if in.RequiredQuantity < 1 {
		return Validationf("required quantity must be at least 1, got %d", in.RequiredQuantity)
	}
	return nil
}
