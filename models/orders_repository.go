package models

import (
	"context"

	"gorm.io/gorm"
)

// OrdersRepository is the read side of orders. Every write that has a stock
// effect goes through the inventory coordinator instead.
type OrdersRepository struct {
	db *gorm.DB
}

type OrderFilters struct {
	Status OrderStatus
	Search string
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		db: db,
	}
}

func (r *OrdersRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *OrdersRepository) GetByCode(ctx context.Context, code string) (*Order, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *OrdersRepository) first(ctx context.Context, cond string, arg any) (*Order, error) {
	var order Order
	db := r.db.WithContext(ctx)
	if err := db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where(cond, arg).
		First(&order).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, Persistence("find order", err)
	}
	orders := []Order{order}
	if err := attachProducts(db, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns orders newest first.
func (r *OrdersRepository) List(ctx context.Context, filters OrderFilters) ([]Order, error) {
	query := r.db.WithContext(ctx).Model(&Order{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("code LIKE ? OR notes LIKE ?", like, like)
	}
	return r.find(ctx, query)
}

// Recent returns the n newest orders.
func (r *OrdersRepository) Recent(ctx context.Context, n int) ([]Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Model(&Order{}).Limit(n))
}

func (r *OrdersRepository) find(ctx context.Context, query *gorm.DB) ([]Order, error) {
	var orders []Order
	if err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, Persistence("list orders", err)
	}
	if err := attachProducts(r.db.WithContext(ctx), orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrdersRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Order{}).Count(&total).Error; err != nil {
		return 0, Persistence("count orders", err)
	}
	return total, nil
}

// TotalValue sums every stored line total, in cents.
func (r *OrdersRepository) TotalValue(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&OrderLine{}).
		Select("COALESCE(SUM(line_total), 0)").
		Scan(&total).Error; err != nil {
		return 0, Persistence("sum order lines", err)
	}
	return total, nil
}

// attachProducts fills OrderLine.Product for lines whose product still exists.
func attachProducts(db *gorm.DB, orders []Order) error {
	var ids []uint
	for _, o := range orders {
		for _, l := range o.Lines {
			ids = append(ids, l.ProductID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var products []Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return Persistence("load order products", err)
	}
	byID := make(map[uint]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for i := range orders {
		for j := range orders[i].Lines {
			orders[i].Lines[j].Product = byID[orders[i].Lines[j].ProductID]
		}
	}
	return nil
}
