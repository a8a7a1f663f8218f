package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticlesRepository struct {
	db *gorm.DB
}

type ArticleFilters struct {
	Category string
	Search   string
}

// ArticleUpdate carries a partial article edit. A non-nil Quantity replaces
// the stored stock outright; no order effect is involved.
type ArticleUpdate struct {
	Code        *string
	Name        *string
	Description *string
	Category    *string
	Quantity    *int
	Threshold   *int
}

func NewArticlesRepository(db *gorm.DB) *ArticlesRepository {
	return &ArticlesRepository{
		db: db,
	}
}

func (r *ArticlesRepository) Create(ctx context.Context, article *Article) error {
	if err := article.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return Persistence("create article", err)
	}
	return nil
}

func (r *ArticlesRepository) GetByID(ctx context.Context, id uint) (*Article, error) {
	var article Article
	if err := r.db.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, Persistence("find article", err)
	}
	return &article, nil
}

// GetByCode returns ErrArticleNotFound when no article carries the code.
func (r *ArticlesRepository) GetByCode(ctx context.Context, code string) (*Article, error) {
	var article Article
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, Persistence("find article", err)
	}
	return &article, nil
}

func (r *ArticlesRepository) List(ctx context.Context, filters ArticleFilters) ([]Article, error) {
	var articles []Article

	query := r.db.WithContext(ctx).Model(&Article{})
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}

	if err := query.Order("code").Find(&articles).Error; err != nil {
		return nil, Persistence("list articles", err)
	}
	return articles, nil
}

func (r *ArticlesRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Article{}).Count(&total).Error; err != nil {
		return 0, Persistence("count articles", err)
	}
	return total, nil
}

// Update locks the row and writes only the columns present in upd, so an
// edit that leaves Quantity nil never overwrites stock moved by an order.
func (r *ArticlesRepository) Update(ctx context.Context, id uint, upd ArticleUpdate) (*Article, error) {
	var article Article
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArticleNotFound
			}
			return err
		}

		updates := map[string]any{}
		if upd.Code != nil {
			article.Code = *upd.Code
			updates["code"] = article.Code
		}
		if upd.Name != nil {
			article.Name = *upd.Name
			updates["name"] = article.Name
		}
		if upd.Description != nil {
			article.Description = upd.Description
			updates["description"] = *upd.Description
		}
		if upd.Category != nil {
			article.Category = *upd.Category
			updates["category"] = article.Category
		}
		if upd.Quantity != nil {
			article.Quantity = *upd.Quantity
			updates["quantity"] = article.Quantity
		}
		if upd.Threshold != nil {
			article.Threshold = *upd.Threshold
			updates["threshold"] = article.Threshold
		}
		if err := article.Validate(); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&Article{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&article, id).Error
	})
	if err != nil {
		return nil, Persistence("update article", err)
	}
	return &article, nil
}

// Delete removes the article and every composition that references it.
func (r *ArticlesRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&Composition{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Article{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrArticleNotFound
		}
		return nil
	})
	return Persistence("delete article", err)
}
