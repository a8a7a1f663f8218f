package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/app/api"
	"github.com/mytheresa/go-warehouse/inventory"
	"github.com/mytheresa/go-warehouse/models"
)

type Order struct {
	ID        uint      `json:"id"`
	Code      string    `json:"code"`
	Notes     *string   `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Total     float64   `json:"total"`
	Lines     []Line    `json:"products"`
}

type Line struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductCode string  `json:"product_code,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type LineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateInput struct {
	Code      string      `json:"code"`
	Notes     *string     `json:"notes"`
	CreatedBy *uint       `json:"created_by"`
	Products  []LineInput `json:"products"`
}

type UpdateInput struct {
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

type OrderProvider interface {
	List(ctx context.Context, filters models.OrderFilters) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByCode(ctx context.Context, code string) (*models.Order, error)
}

// Lifecycle is the write side of orders; every call carries a stock effect.
type Lifecycle interface {
	OnOrderCreated(ctx context.Context, in inventory.OrderInput) (*models.Order, *inventory.EffectResult, error)
	OnOrderUpdated(ctx context.Context, orderID uint, upd inventory.OrderUpdate) (*models.Order, *inventory.EffectResult, error)
	OnOrderDeleted(ctx context.Context, orderID uint) (*inventory.EffectResult, error)
}

type OrderHandler struct {
	repo      OrderProvider
	lifecycle Lifecycle
	logger    *zap.Logger
}

func NewOrderHandler(r OrderProvider, l Lifecycle, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{
		repo:      r,
		lifecycle: l,
		logger:    logger,
	}
}

func ToOrder(o models.Order) Order {
	lines := make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		line := Line{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: api.Money(l.UnitPrice),
			LineTotal: api.Money(l.LineTotal),
		}
		if l.Product != nil {
			line.ProductCode = l.Product.Code
			line.ProductName = l.Product.Name
		}
		lines[i] = line
	}

	return Order{
		ID:        o.ID,
		Code:      o.Code,
		Notes:     o.Notes,
		Status:    string(o.Status),
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		Total:     api.Money(o.Total()),
		Lines:     lines,
	}
}

func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filters := models.OrderFilters{
		Status: models.OrderStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	if filters.Status != "" && !filters.Status.Valid() {
		api.ErrorResponse(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	res, err := h.repo.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	orders := make([]Order, len(res))
	for i, o := range res {
		orders[i] = ToOrder(o)
	}
	api.OKResponse(w, http.StatusOK, orders)
}

func (h *OrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.logger, err, "Order not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToOrder(*order))
}

func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Code == "" {
		api.ErrorResponse(w, http.StatusBadRequest, "Missing order code")
		return
	}

	_, err := h.repo.GetByCode(r.Context(), input.Code)
	switch {
	case err == nil:
		api.ErrorResponse(w, http.StatusBadRequest, "Order code already exists")
		return
	case !errors.Is(err, models.ErrNotFound):
		api.WriteError(w, h.logger, err, "")
		return
	}

	in := inventory.OrderInput{
		Code:      input.Code,
		Notes:     input.Notes,
		CreatedBy: input.CreatedBy,
		Lines:     make([]inventory.LineInput, len(input.Products)),
	}
	for i, p := range input.Products {
		in.Lines[i] = inventory.LineInput{ProductID: p.ProductID, Quantity: p.Quantity}
	}

	order, _, err := h.lifecycle.OnOrderCreated(r.Context(), in)
	if err != nil {
		api.WriteError(w, h.logger, err, "Referenced product not found")
		return
	}
	api.OKResponse(w, http.StatusCreated, ToOrder(*order))
}

// HandleUpdate edits notes and status. Cancelling returns the order's stock.
func (h *OrderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	upd := inventory.OrderUpdate{Notes: input.Notes}
	if input.Status != nil {
		status := models.OrderStatus(*input.Status)
		upd.Status = &status
	}

	order, _, err := h.lifecycle.OnOrderUpdated(r.Context(), id, upd)
	if err != nil {
		api.WriteError(w, h.logger, err, "Order not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToOrder(*order))
}

// HandleDelete returns the order's stock and removes it.
func (h *OrderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	if _, err := h.lifecycle.OnOrderDeleted(r.Context(), id); err != nil {
		api.WriteError(w, h.logger, err, "Order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
