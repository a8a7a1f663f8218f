package categories

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/app/api"
)

type CategoryResponse struct {
	Name string `json:"name"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]string, error)
}

type CategoryHandler struct {
	repo   CategoryProvider
	logger *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, logger *zap.Logger) *CategoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryHandler{
		repo:   r,
		logger: logger,
	}
}

// HandleGetAll lists the category labels used by articles and products.
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			Name: c,
		}
	}

	api.OKResponse(w, http.StatusOK, response)
}
