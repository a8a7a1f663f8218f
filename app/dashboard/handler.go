package dashboard

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/app/api"
	"github.com/mytheresa/go-warehouse/app/articles"
	"github.com/mytheresa/go-warehouse/app/orders"
	"github.com/mytheresa/go-warehouse/inventory"
	"github.com/mytheresa/go-warehouse/models"
)

// recentOrders is how many orders the summary lists.
const recentOrders = 5

type Summary struct {
	TotalArticles    int64              `json:"total_articles"`
	TotalProducts    int64              `json:"total_products"`
	TotalOrders      int64              `json:"total_orders"`
	TotalOrdersValue float64            `json:"total_orders_value"`
	LowStockArticles []articles.Article `json:"low_stock_articles"`
	RecentOrders     []orders.Order     `json:"recent_orders"`
}

type ArticleSource interface {
	List(ctx context.Context, filters models.ArticleFilters) ([]models.Article, error)
}

type ProductSource interface {
	Count(ctx context.Context) (int64, error)
}

type OrderSource interface {
	Count(ctx context.Context) (int64, error)
	TotalValue(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]models.Order, error)
}

type DashboardHandler struct {
	articles ArticleSource
	products ProductSource
	orders   OrderSource
	logger   *zap.Logger
}

func NewDashboardHandler(a ArticleSource, p ProductSource, o OrderSource, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		articles: a,
		products: p,
		orders:   o,
		logger:   logger,
	}
}

func (h *DashboardHandler) Summarize(ctx context.Context) (*Summary, error) {
	all, err := h.articles.List(ctx, models.ArticleFilters{})
	if err != nil {
		return nil, err
	}
	totalProducts, err := h.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalOrders, err := h.orders.Count(ctx)
	if err != nil {
		return nil, err
	}
	value, err := h.orders.TotalValue(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := h.orders.Recent(ctx, recentOrders)
	if err != nil {
		return nil, err
	}

	low := inventory.LowStock(all)
	summary := &Summary{
		TotalArticles:    int64(len(all)),
		TotalProducts:    totalProducts,
		TotalOrders:      totalOrders,
		TotalOrdersValue: api.Money(value),
		LowStockArticles: make([]articles.Article, len(low)),
		RecentOrders:     make([]orders.Order, len(recent)),
	}
	for i, a := range low {
		summary.LowStockArticles[i] = articles.ToArticle(a)
	}
	for i, o := range recent {
		summary.RecentOrders[i] = orders.ToOrder(o)
	}
	return summary, nil
}

func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Summarize(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch dashboard")
		return
	}
	api.OKResponse(w, http.StatusOK, summary)
}
