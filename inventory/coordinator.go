package inventory

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mytheresa/go-warehouse/models"
)

const tracerName = "github.com/mytheresa/go-warehouse/inventory"

// OrderInput is a new order as submitted by a caller. Status is always
// pending on creation.
type OrderInput struct {
	Code      string
	Notes     *string
	CreatedBy *uint
	Lines     []LineInput
}

type LineInput struct {
	ProductID uint
	Quantity  int
}

// OrderUpdate is a partial order edit. A nil field is left unchanged.
type OrderUpdate struct {
	Notes  *string
	Status *models.OrderStatus
}

// Coordinator sequences order persistence and the engine so that each
// lifecycle event commits as a single transaction.
type Coordinator struct {
	db      *gorm.DB
	engine  *Engine
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

func NewCoordinator(db *gorm.DB, engine *Engine, logger *zap.Logger, metrics *Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		db:      db,
		engine:  engine,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// OnOrderCreated stores the order with its lines, snapshotting each
// product's current price, and consumes stock for it.
func (c *Coordinator) OnOrderCreated(ctx context.Context, in OrderInput) (*models.Order, *EffectResult, error) {
	ctx, span := c.tracer.Start(ctx, "order.create", trace.WithAttributes(
		attribute.String("order.code", in.Code),
		attribute.Int("order.lines", len(in.Lines)),
	))
	defer span.End()

	if in.Code == "" {
		return nil, nil, c.fail(span, models.Validationf("order code is required"))
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return nil, nil, c.fail(span, models.Validationf("order quantity must be at least 1, got %d", l.Quantity))
		}
	}

	order := &models.Order{
		Code:      in.Code,
		Notes:     in.Notes,
		Status:    models.OrderStatusPending,
		CreatedBy: in.CreatedBy,
	}
	var res *EffectResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(order).Error; err != nil {
			return models.Persistence("create order", err)
		}

		links := models.NewCompositionsRepository(tx)
		for _, l := range in.Lines {
			var product models.Product
			if err := tx.Select("id", "price").First(&product, l.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrProductNotFound
				}
				return models.Persistence("load product", err)
			}
			if _, err := links.LinkProductToOrder(ctx, order.ID, product.ID, l.Quantity, product.Price); err != nil {
				return err
			}
		}

		var err error
		res, err = c.engine.ApplyOrderEffectTx(tx, order.ID, Consume, models.ReasonOrderCreated)
		return err
	})
	if err != nil {
		return nil, nil, c.fail(span, models.Persistence("create order", err))
	}

	c.committed(span, res, "create")
	c.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("code", order.Code),
		zap.Int("lines", len(in.Lines)))

	created, err := models.NewOrdersRepository(c.db).GetByID(ctx, order.ID)
	if err != nil {
		return nil, res, err
	}
	return created, res, nil
}

// OnOrderStatusChanged moves the order to status. Moving into cancelled
// restores the order's stock; since cancelled is final that happens at most
// once. Every other allowed change is stored without touching stock.
func (c *Coordinator) OnOrderStatusChanged(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, *EffectResult, error) {
	return c.OnOrderUpdated(ctx, orderID, OrderUpdate{Status: &status})
}

// OnOrderUpdated applies a partial edit. The previous status is read under a
// row lock so that two concurrent cancellations restore stock only once.
// The returned result is nil when the edit had no stock effect.
func (c *Coordinator) OnOrderUpdated(ctx context.Context, orderID uint, upd OrderUpdate) (*models.Order, *EffectResult, error) {
	ctx, span := c.tracer.Start(ctx, "order.status", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
	))
	defer span.End()

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, nil, c.fail(span, models.Validationf("unknown order status %q", *upd.Status))
	}

	var res *EffectResult
	var transition string
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if upd.Notes != nil {
			updates["notes"] = *upd.Notes
		}
		if upd.Status != nil && !order.Status.CanMoveTo(*upd.Status) {
			return models.Validationf("order %d cannot move from %s to %s", orderID, order.Status, *upd.Status)
		}
		if upd.Status != nil && *upd.Status != order.Status {
			span.SetAttributes(
				attribute.String("order.status.old", string(order.Status)),
				attribute.String("order.status.new", string(*upd.Status)),
			)
			if *upd.Status == models.OrderStatusCancelled {
				res, err = c.engine.ApplyOrderEffectTx(tx, orderID, Restore, models.ReasonOrderCancelled)
				if err != nil {
					return err
				}
			}
			updates["status"] = *upd.Status
			transition = string(order.Status) + "->" + string(*upd.Status)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return models.Persistence("update order", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, c.fail(span, models.Persistence("update order", err))
	}

	if transition != "" {
		c.committed(span, res, transition)
		c.logger.Info("order status changed",
			zap.Uint("order_id", orderID),
			zap.String("transition", transition))
	}

	updated, err := models.NewOrdersRepository(c.db).GetByID(ctx, orderID)
	if err != nil {
		return nil, res, err
	}
	return updated, res, nil
}

// OnOrderDeleted restores the order's stock and removes it with its lines.
// The restore runs whatever the current status is, including cancelled.
func (c *Coordinator) OnOrderDeleted(ctx context.Context, orderID uint) (*EffectResult, error) {
	ctx, span := c.tracer.Start(ctx, "order.delete", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
	))
	defer span.End()

	var res *EffectResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			c.logger.Warn("restoring stock for an order that was already cancelled",
				zap.Uint("order_id", orderID))
		}

		res, err = c.engine.ApplyOrderEffectTx(tx, orderID, Restore, models.ReasonOrderDeleted)
		if err != nil {
			return err
		}
		if err := models.NewCompositionsRepository(tx).RemoveAllForOrder(ctx, orderID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return models.Persistence("delete order", err)
		}
		return nil
	})
	if err != nil {
		return nil, c.fail(span, models.Persistence("delete order", err))
	}

	c.committed(span, res, "delete")
	c.logger.Info("order deleted", zap.Uint("order_id", orderID))
	return res, nil
}

func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, models.Persistence("lock order", err)
	}
	return &order, nil
}

func (c *Coordinator) committed(span trace.Span, res *EffectResult, transition string) {
	c.engine.Observe(res)
	c.metrics.observeTransition(transition)
	if res != nil {
		span.SetAttributes(
			attribute.Int("inventory.applied", res.Applied()),
			attribute.Int("inventory.skipped", res.Skipped()),
		)
	}
}

func (c *Coordinator) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
