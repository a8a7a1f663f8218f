// Package app wires the HTTP handlers onto a ServeMux.
package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mytheresa/go-warehouse/app/api"
	"github.com/mytheresa/go-warehouse/app/articles"
	"github.com/mytheresa/go-warehouse/app/categories"
	"github.com/mytheresa/go-warehouse/app/dashboard"
	"github.com/mytheresa/go-warehouse/app/orders"
	"github.com/mytheresa/go-warehouse/app/products"
)

type Handlers struct {
	Articles   *articles.ArticleHandler
	Products   *products.ProductHandler
	Orders     *orders.OrderHandler
	Categories *categories.CategoryHandler
	Dashboard  *dashboard.DashboardHandler
	Metrics    prometheus.Gatherer
}

func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		api.OKResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if h.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /articles", h.Articles.HandleList)
	mux.HandleFunc("GET /articles/low-stock", h.Articles.HandleLowStock)
	mux.HandleFunc("POST /articles", h.Articles.HandleCreate)
	mux.HandleFunc("GET /articles/{id}", h.Articles.HandleGet)
	mux.HandleFunc("PUT /articles/{id}", h.Articles.HandleUpdate)
	mux.HandleFunc("DELETE /articles/{id}", h.Articles.HandleDelete)

	mux.HandleFunc("GET /products", h.Products.HandleGet)
	mux.HandleFunc("POST /products", h.Products.HandleCreate)
	mux.HandleFunc("GET /products/{id}", h.Products.HandleGetProduct)
	mux.HandleFunc("PUT /products/{id}", h.Products.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.Products.HandleDelete)

	mux.HandleFunc("GET /orders", h.Orders.HandleList)
	mux.HandleFunc("POST /orders", h.Orders.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", h.Orders.HandleGet)
	mux.HandleFunc("PUT /orders/{id}", h.Orders.HandleUpdate)
	mux.HandleFunc("DELETE /orders/{id}", h.Orders.HandleDelete)

	mux.HandleFunc("GET /categories", h.Categories.HandleGetAll)
	mux.HandleFunc("GET /dashboard", h.Dashboard.HandleGet)

	return mux
}
