package models

import (
	"context"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	Category      string
	PriceLessThan *int64
	Search        string
}

// ProductUpdate carries a partial product edit. Compositions, when non-nil,
// replaces the whole article list; an empty slice clears it.
type ProductUpdate struct {
	Code         *string
	Name         *string
	Description  *string
	Category     *string
	Price        *int64
	Compositions []CompositionInput
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// Create stores the product and its compositions atomically.
func (r *ProductsRepository) Create(ctx context.Context, product *Product, compositions []CompositionInput) error {
	if err := product.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Compositions").Create(product).Error; err != nil {
			return err
		}
		links := NewCompositionsRepository(tx)
		for _, in := range compositions {
			if _, err := links.LinkArticleToProduct(ctx, product.ID, in.ArticleID, in.RequiredQuantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Persistence("create product", err)
	}
	return nil
}

func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("price < ?", *filters.PriceLessThan)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, Persistence("count products", err)
	}

	// Apply pagination
	if err := query.
		Preload("Compositions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Compositions.Article").
		Order("code").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, Persistence("list products", err)
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProductsRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *ProductsRepository) first(ctx context.Context, cond string, arg any) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Compositions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Compositions.Article").
		Where(cond, arg).
		First(&product).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, Persistence("find product", err)
	}
	return &product, nil
}

func (r *ProductsRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Count(&total).Error; err != nil {
		return 0, Persistence("count products", err)
	}
	return total, nil
}

// Update edits the product row and, when requested, replaces its
// compositions in the same transaction. Existing order lines keep their
// frozen prices.
func (r *ProductsRepository) Update(ctx context.Context, id uint, upd ProductUpdate) (*Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.First(&product, id).Error; err != nil {
			if isRecordNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}

		if upd.Code != nil {
			product.Code = *upd.Code
		}
		if upd.Name != nil {
			product.Name = *upd.Name
		}
		if upd.Description != nil {
			product.Description = upd.Description
		}
		if upd.Category != nil {
			product.Category = *upd.Category
		}
		if upd.Price != nil {
			product.Price = *upd.Price
		}
		if err := product.Validate(); err != nil {
			return err
		}
		if err := tx.Omit("Compositions").Save(&product).Error; err != nil {
			return err
		}

		if upd.Compositions != nil {
			if _, err := NewCompositionsRepository(tx).ReplaceProductCompositions(ctx, id, upd.Compositions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Persistence("update product", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the product and its compositions. Order lines that sold the
// product are left in place.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewCompositionsRepository(tx).RemoveAllForProduct(ctx, id); err != nil {
			return err
		}
		result := tx.Delete(&Product{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	return Persistence("delete product", err)
}
