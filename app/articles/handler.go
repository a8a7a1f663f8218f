package articles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/app/api"
	"github.com/mytheresa/go-warehouse/inventory"
	"github.com/mytheresa/go-warehouse/models"
)

type Article struct {
	ID          uint    `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	Threshold   int     `json:"threshold"`
	Status      string  `json:"status"`
}

type ArticleInput struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Quantity    *int    `json:"quantity"`
	Threshold   *int    `json:"threshold"`
}

type ArticleProvider interface {
	List(ctx context.Context, filters models.ArticleFilters) ([]models.Article, error)
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	GetByCode(ctx context.Context, code string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, id uint, upd models.ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, id uint) error
}

type ArticleHandler struct {
	repo   ArticleProvider
	logger *zap.Logger
}

func NewArticleHandler(r ArticleProvider, logger *zap.Logger) *ArticleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleHandler{
		repo:   r,
		logger: logger,
	}
}

// ToArticle maps an article to its payload with the derived status.
func ToArticle(a inventory.ArticleWithStatus) Article {
	return Article{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		Quantity:    a.Quantity,
		Threshold:   a.Threshold,
		Status:      string(a.Status),
	}
}

func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filters := models.ArticleFilters{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}

	res, err := h.repo.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list articles", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch articles")
		return
	}

	articles := make([]Article, len(res))
	for i, a := range res {
		articles[i] = ToArticle(inventory.WithStatus(a))
	}
	api.OKResponse(w, http.StatusOK, articles)
}

func (h *ArticleHandler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.List(r.Context(), models.ArticleFilters{})
	if err != nil {
		h.logger.Error("failed to list articles", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch articles")
		return
	}

	low := inventory.LowStock(res)
	articles := make([]Article, len(low))
	for i, a := range low {
		articles[i] = ToArticle(a)
	}
	api.OKResponse(w, http.StatusOK, articles)
}

func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	article, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.logger, err, "Article not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToArticle(inventory.WithStatus(*article)))
}

func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ArticleInput
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

	article := &models.Article{
		Code:        *input.Code,
		Name:        *input.Name,
		Description: input.Description,
		Category:    *input.Category,
	}
	if input.Quantity != nil {
		article.Quantity = *input.Quantity
	}
	if input.Threshold != nil {
		article.Threshold = *input.Threshold
	}

	if err := h.repo.Create(r.Context(), article); err != nil {
		api.WriteError(w, h.logger, err, "Failed to create article")
		return
	}
	api.OKResponse(w, http.StatusCreated, ToArticle(inventory.WithStatus(*article)))
}

// HandleUpdate applies a partial edit. A quantity in the body overwrites the
// stored stock directly.
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	var input ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Code != nil && !h.codeAvailable(w, r, *input.Code, id) {
		return
	}

	article, err := h.repo.Update(r.Context(), id, models.ArticleUpdate{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Quantity:    input.Quantity,
		Threshold:   input.Threshold,
	})
	if err != nil {
		api.WriteError(w, h.logger, err, "Article not found")
		return
	}
	api.OKResponse(w, http.StatusOK, ToArticle(inventory.WithStatus(*article)))
}

func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		api.WriteError(w, h.logger, err, "Article not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// codeAvailable writes a 400 and returns false when another article owns code.
func (h *ArticleHandler) codeAvailable(w http.ResponseWriter, r *http.Request, code string, selfID uint) bool {
	existing, err := h.repo.GetByCode(r.Context(), code)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return true
	case err != nil:
		api.WriteError(w, h.logger, err, "")
		return false
	case existing.ID != selfID:
		api.ErrorResponse(w, http.StatusBadRequest, "Article code already exists")
		return false
	}
	return true
}
