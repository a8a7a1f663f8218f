package inventory

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mytheresa/go-warehouse/models"
)

type Direction = models.Direction

const (
	Consume = models.DirectionConsume
	Restore = models.DirectionRestore
)

// Outcome tags what happened to one composition row during a pass.
type Outcome string

const (
	OutcomeApplied               Outcome = "applied"
	OutcomeSkippedMissingProduct Outcome = "skipped_missing_product"
	OutcomeSkippedMissingArticle Outcome = "skipped_missing_article"
)

// EffectEntry describes one composition row of one order line. For a
// skipped product there is a single entry with ArticleID zero.
type EffectEntry struct {
	LineID         uint
	ProductID      uint
	ArticleID      uint
	Delta          int
	QuantityBefore int
	QuantityAfter  int
	Outcome        Outcome
}

// Clamped reports whether a consume hit zero before the full delta was taken.
func (e EffectEntry) Clamped() bool {
	return e.Outcome == OutcomeApplied && e.QuantityBefore-e.QuantityAfter < e.Delta &&
		e.QuantityAfter <= e.QuantityBefore
}

type EffectResult struct {
	OrderID   uint
	Direction Direction
	Entries   []EffectEntry
}

func (r *EffectResult) Applied() int {
	return r.count(func(e EffectEntry) bool { return e.Outcome == OutcomeApplied })
}

func (r *EffectResult) Skipped() int {
	return r.count(func(e EffectEntry) bool { return e.Outcome != OutcomeApplied })
}

func (r *EffectResult) count(match func(EffectEntry) bool) int {
	n := 0
	for _, e := range r.Entries {
		if match(e) {
			n++
		}
	}
	return n
}

// Engine applies and reverses the stock effect of an order. It is the only
// component that changes article quantities on behalf of orders.
type Engine struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *Metrics
}

func NewEngine(db *gorm.DB, logger *zap.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// ApplyOrderEffect runs one pass over the order in its own transaction.
// Either every article update of the pass commits or none does.
func (e *Engine) ApplyOrderEffect(ctx context.Context, orderID uint, dir Direction, reason models.MovementReason) (*EffectResult, error) {
	var res *EffectResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = e.ApplyOrderEffectTx(tx, orderID, dir, reason)
		return err
	})
	if err != nil {
		return nil, models.Persistence("apply order effect", err)
	}
	e.Observe(res)
	return res, nil
}

// ApplyOrderEffectTx runs one pass inside a transaction owned by the caller.
// The caller reports the result with Observe once the transaction commits.
func (e *Engine) ApplyOrderEffectTx(tx *gorm.DB, orderID uint, dir Direction, reason models.MovementReason) (*EffectResult, error) {
	if dir != Consume && dir != Restore {
		return nil, models.Validationf("unknown direction %q", dir)
	}

	ctx := tx.Statement.Context
	links := models.NewCompositionsRepository(tx)
	movements := models.NewMovementsRepository(tx)

	var order models.Order
	if err := tx.Select("id").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, models.Persistence("load order", err)
	}

	lines, err := links.LinesForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	res := &EffectResult{OrderID: orderID, Direction: dir}
	for _, line := range lines {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", line.ProductID).Count(&count).Error; err != nil {
			return nil, models.Persistence("load product", err)
		}
		if count == 0 {
			e.logger.Warn("skipping order line with missing product",
				zap.Uint("order_id", orderID),
				zap.Uint("line_id", line.ID),
				zap.Uint("product_id", line.ProductID))
			res.Entries = append(res.Entries, EffectEntry{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Outcome:   OutcomeSkippedMissingProduct,
			})
			continue
		}

		compositions, err := links.CompositionsForProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		for _, c := range compositions {
			res.Entries = append(res.Entries, EffectEntry{
				LineID:    line.ID,
				ProductID: line.ProductID,
				ArticleID: c.ArticleID,
				Delta:     c.RequiredQuantity * line.Quantity,
			})
		}
	}

	if err := lockArticles(tx, articleIDs(res.Entries)); err != nil {
		return nil, err
	}

	for i := range res.Entries {
		entry := &res.Entries[i]
		if entry.Outcome == OutcomeSkippedMissingProduct {
			continue
		}
		if err := e.move(tx, entry, dir); err != nil {
			return nil, err
		}
		if entry.Outcome != OutcomeApplied {
			e.logger.Warn("skipping composition with missing article",
				zap.Uint("order_id", orderID),
				zap.Uint("product_id", entry.ProductID),
				zap.Uint("article_id", entry.ArticleID))
			continue
		}
		m := models.NewStockMovement(orderID, entry.ArticleID, dir, reason,
			entry.Delta, entry.QuantityBefore, entry.QuantityAfter)
		if err := movements.Record(ctx, m); err != nil {
			return nil, err
		}
	}

	e.logger.Info("order effect applied",
		zap.Uint("order_id", orderID),
		zap.String("direction", string(dir)),
		zap.String("reason", string(reason)),
		zap.Int("applied", res.Applied()),
		zap.Int("skipped", res.Skipped()))
	return res, nil
}

// Observe records a committed pass in the metrics.
func (e *Engine) Observe(res *EffectResult) {
	e.metrics.observeEffect(res)
}

// move reads the article under its row lock and updates it relative to the
// stored value, so concurrent passes on the same article serialize instead
// of losing updates.
func (e *Engine) move(tx *gorm.DB, entry *EffectEntry, dir Direction) error {
	var article models.Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "quantity").
		First(&article, entry.ArticleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry.Outcome = OutcomeSkippedMissingArticle
		return nil
	}
	if err != nil {
		return models.Persistence("lock article", err)
	}

	entry.QuantityBefore = article.Quantity
	var expr clause.Expr
	if dir == Consume {
		expr = gorm.Expr("CASE WHEN quantity > ? THEN quantity - ? ELSE 0 END", entry.Delta, entry.Delta)
		entry.QuantityAfter = max(0, article.Quantity-entry.Delta)
	} else {
		expr = gorm.Expr("quantity + ?", entry.Delta)
		entry.QuantityAfter = article.Quantity + entry.Delta
	}

	if err := tx.Model(&models.Article{}).
		Where("id = ?", entry.ArticleID).
		Update("quantity", expr).Error; err != nil {
		return models.Persistence("update article quantity", err)
	}
	entry.Outcome = OutcomeApplied
	return nil
}

// lockArticles takes the row locks of a whole pass up front in ascending id
// order. Two passes over the same articles then queue instead of deadlocking.
func lockArticles(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []models.Article
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id IN ?", ids).
		Order("id").
		Find(&locked).Error; err != nil {
		return models.Persistence("lock articles", err)
	}
	return nil
}

// articleIDs returns the distinct article ids a pass will touch, sorted.
func articleIDs(entries []EffectEntry) []uint {
	seen := make(map[uint]struct{}, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		if e.Outcome == OutcomeSkippedMissingProduct {
			continue
		}
		if _, ok := seen[e.ArticleID]; ok {
			continue
		}
		seen[e.ArticleID] = struct{}{}
		ids = append(ids, e.ArticleID)
	}
	slices.Sort(ids)
	return ids
}
