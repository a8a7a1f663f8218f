package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/app/api"
	"github.com/mytheresa/go-warehouse/inventory"
	"github.com/mytheresa/go-warehouse/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Product struct {
	ID           uint             `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	Category     string           `json:"category"`
	Price        float64          `json:"price"`
	Availability string           `json:"availability"`
	Articles     []ProductArticle `json:"articles"`
}

type ProductArticle struct {
	ArticleID        uint   `json:"article_id"`
	Code             string `json:"code,omitempty"`
	Name             string `json:"name,omitempty"`
	RequiredQuantity int    `json:"required_quantity"`
	Quantity         int    `json:"quantity"`
	Status           string `json:"status"`
}

type CompositionInput struct {
	ArticleID        uint `json:"article_id"`
	RequiredQuantity int  `json:"required_quantity"`
}

type ProductInput struct {
	Code        *string             `json:"code"`
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Category    *string             `json:"category"`
	Price       *float64            `json:"price"`
	Articles    *[]CompositionInput `json:"articles"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product, compositions []models.CompositionInput) error
	Update(ctx context.Context, id uint, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
}

type ProductHandler struct {
	repo   ProductProvider
	logger *zap.Logger
}

func NewProductHandler(r ProductProvider, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		repo:   r,
		logger: logger,
	}
}

// ToProduct maps a product with preloaded compositions to its payload.
func ToProduct(p models.Product) Product {
	articles := make([]ProductArticle, len(p.Compositions))
	for i, c := range p.Compositions {
		pa := ProductArticle{
			ArticleID:        c.ArticleID,
			RequiredQuantity: c.RequiredQuantity,
			Status:           string(inventory.StatusOut),
		}
		if c.Article != nil {
			pa.Code = c.Article.Code
			pa.Name = c.Article.Name
			pa.Quantity = c.Article.Quantity
			pa.Status = string(inventory.ClassifyArticle(*c.Article))
		}
		articles[i] = pa
	}

	return Product{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Price:        api.Money(p.Price),
		Availability: string(inventory.ClassifyProduct(p.Compositions)),
		Articles:     articles,
	}
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	filters := models.ProductFilters{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			cents := api.Cents(val)
			filters.PriceLessThan = &cents
		}
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = ToProduct(p)
	}

	api.OKResponse(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.logger, err, "Product not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToProduct(*product))
}

func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Code == nil || input.Name == nil || input.Category == nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Missing code, name or category")
		return
	}
	if !h.codeAvailable(w, r, *input.Code, 0) {
		return
	}

	product := &models.Product{
		Code:        *input.Code,
		Name:        *input.Name,
		Description: input.Description,
		Category:    *input.Category,
	}
	if input.Price != nil {
		product.Price = api.Cents(*input.Price)
	}

	if err := h.repo.Create(r.Context(), product, toCompositions(input.Articles)); err != nil {
		api.WriteError(w, h.logger, err, "Referenced article not found")
		return
	}

	created, err := h.repo.GetByID(r.Context(), product.ID)
	if err != nil {
		api.WriteError(w, h.logger, err, "Product not found")
		return
	}
	api.OKResponse(w, http.StatusCreated, ToProduct(*created))
}

// HandleUpdate edits the product. When "articles" is present the whole
// composition list is replaced.
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Code != nil && !h.codeAvailable(w, r, *input.Code, id) {
		return
	}

	upd := models.ProductUpdate{
		Code:         input.Code,
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Compositions: toCompositions(input.Articles),
	}
	if input.Price != nil {
		cents := api.Cents(*input.Price)
		upd.Price = &cents
	}

	product, err := h.repo.Update(r.Context(), id, upd)
	if err != nil {
		api.WriteError(w, h.logger, err, "Product not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToProduct(*product))
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		api.WriteError(w, h.logger, err, "Product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) codeAvailable(w http.ResponseWriter, r *http.Request, code string, selfID uint) bool {
	existing, err := h.repo.GetByCode(r.Context(), code)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return true
	case err != nil:
		api.WriteError(w, h.logger, err, "")
		return false
	case existing.ID != selfID:
		api.ErrorResponse(w, http.StatusBadRequest, "Product code already exists")
		return false
	}
	return true
}

// toCompositions keeps nil distinct from empty: nil leaves compositions
// untouched on update, empty clears them.
func toCompositions(in *[]CompositionInput) []models.CompositionInput {
	if in == nil {
		return nil
	}
	out := make([]models.CompositionInput, len(*in))
	for i, c := range *in {
		out[i] = models.CompositionInput{ArticleID: c.ArticleID, RequiredQuantity: c.RequiredQuantity}
	}
	return out
}
