package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// CompositionsRepository owns the product-article and order-product links.
// It never touches article quantities.
type CompositionsRepository struct {
	db *gorm.DB
}

func NewCompositionsRepository(db *gorm.DB) *CompositionsRepository {
	return &CompositionsRepository{
		db: db,
	}
}

func (r *CompositionsRepository) LinkArticleToProduct(ctx context.Context, productID, articleID uint, requiredQuantity int) (*Composition, error) {
	in := CompositionInput{ArticleID: articleID, RequiredQuantity: requiredQuantity}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	if err := exists(db, &Product{}, productID, ErrProductNotFound); err != nil {
		return nil, err
	}
	if err := exists(db, &Article{}, articleID, ErrArticleNotFound); err != nil {
		return nil, err
	}

	composition := &Composition{
		ProductID:        productID,
		ArticleID:        articleID,
		RequiredQuantity: requiredQuantity,
	}
	if err := db.Create(composition).Error; err != nil {
		return nil, Persistence("link article to product", err)
	}
	return composition, nil
}

// LinkProductToOrder stores an order line with its price snapshot. The line
// total is computed here and never recomputed.
func (r *CompositionsRepository) LinkProductToOrder(ctx context.Context, orderID, productID uint, quantity int, unitPrice int64) (*OrderLine, error) {
	if quantity < 1 {
		return nil, Validationf("order quantity must be at least 1, got %d", quantity)
	}
	if unitPrice < 0 {
		return nil, Validationf("unit price must be non-negative, got %d", unitPrice)
	}

	db := r.db.WithContext(ctx)
	if err := exists(db, &Order{}, orderID, ErrOrderNotFound); err != nil {
		return nil, err
	}

	line := &OrderLine{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: unitPrice * int64(quantity),
	}
	if err := db.Create(line).Error; err != nil {
		return nil, Persistence("link product to order", err)
	}
	return line, nil
}

// ReplaceProductCompositions swaps the whole composition list of a product in
// one transaction, so readers see either the old list or the new one.
func (r *CompositionsRepository) ReplaceProductCompositions(ctx context.Context, productID uint, items []CompositionInput) ([]Composition, error) {
	for _, in := range items {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	compositions := make([]Composition, 0, len(items))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &Product{}, productID, ErrProductNotFound); err != nil {
			return err
		}
		for _, in := range items {
			if err := exists(tx, &Article{}, in.ArticleID, ErrArticleNotFound); err != nil {
				return err
			}
		}

		if err := tx.Where("product_id = ?", productID).Delete(&Composition{}).Error; err != nil {
			return err
		}
		for _, in := range items {
			compositions = append(compositions, Composition{
				ProductID:        productID,
				ArticleID:        in.ArticleID,
				RequiredQuantity: in.RequiredQuantity,
			})
		}
		if len(compositions) == 0 {
			return nil
		}
		return tx.Create(&compositions).Error
	})
	if err != nil {
		return nil, Persistence("replace product compositions", err)
	}
	return compositions, nil
}

func (r *CompositionsRepository) RemoveAllForProduct(ctx context.Context, productID uint) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&Composition{}).Error; err != nil {
		return Persistence("remove product compositions", err)
	}
	return nil
}

func (r *CompositionsRepository) RemoveAllForOrder(ctx context.Context, orderID uint) error {
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&OrderLine{}).Error; err != nil {
		return Persistence("remove order lines", err)
	}
	return nil
}

// CompositionsForProduct returns the product's compositions with their
// articles preloaded. Article is nil when the referenced row is gone.
func (r *CompositionsRepository) CompositionsForProduct(ctx context.Context, productID uint) ([]Composition, error) {
	var compositions []Composition
	if err := r.db.WithContext(ctx).
		Preload("Article").
		Where("product_id = ?", productID).
		Order("id").
		Find(&compositions).Error; err != nil {
		return nil, Persistence("load product compositions", err)
	}
	return compositions, nil
}

func (r *CompositionsRepository) LinesForOrder(ctx context.Context, orderID uint) ([]OrderLine, error) {
	var lines []OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&lines).Error; err != nil {
		return nil, Persistence("load order lines", err)
	}
	return lines, nil
}

func exists(db *gorm.DB, model any, id uint, notFound error) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return Persistence("check existence", err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
