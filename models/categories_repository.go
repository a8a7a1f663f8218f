package models

import (
	"context"
	"sort"

	"gorm.io/gorm"
)

// CategoriesRepository lists the category labels in use. Categories are free
// text on articles and products, not rows of their own.
type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]string, error) {
	var fromArticles, fromProducts []string
	db := r.db.WithContext(ctx)
	if err := db.Model(&Article{}).Distinct().Pluck("category", &fromArticles).Error; err != nil {
		return nil, Persistence("list article categories", err)
	}
	if err := db.Model(&Product{}).Distinct().Pluck("category", &fromProducts).Error; err != nil {
		return nil, Persistence("list product categories", err)
	}

	seen := make(map[string]struct{}, len(fromArticles)+len(fromProducts))
	categories := make([]string, 0, len(fromArticles)+len(fromProducts))
	for _, c := range append(fromArticles, fromProducts...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}
