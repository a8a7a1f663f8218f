package models

import (
	"context"

	"gorm.io/gorm"
)

type MovementsRepository struct {
	db *gorm.DB
}

func NewMovementsRepository(db *gorm.DB) *MovementsRepository {
	return &MovementsRepository{
		db: db,
	}
}

func (r *MovementsRepository) Record(ctx context.Context, m *StockMovement) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return Persistence("record stock movement", err)
	}
	return nil
}

func (r *MovementsRepository) ListByOrder(ctx context.Context, orderID uint) ([]StockMovement, error) {
	return r.list(ctx, "order_id = ?", orderID)
}

func (r *MovementsRepository) ListByArticle(ctx context.Context, articleID uint) ([]StockMovement, error) {
	return r.list(ctx, "article_id = ?", articleID)
}

func (r *MovementsRepository) list(ctx context.Context, cond string, arg any) ([]StockMovement, error) {
	var movements []StockMovement
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at").
		Find(&movements).Error; err != nil {
		return nil, Persistence("list stock movements", err)
	}
	return movements, nil
}
