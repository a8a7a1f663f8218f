package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mytheresa/go-warehouse/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Err            error
	SaveErr        error

	// Fields to capture call arguments
	lastCalledOffset       int
	lastCalledLimit        int
	lastCalledFilters      models.ProductFilters
	lastCreated            *models.Product
	lastCreateCompositions []models.CompositionInput
	lastUpdate             *models.ProductUpdate
	lastDeletedID          uint
}

func (m *MockProductRepo) GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error) {
	m.lastCalledOffset = offset
	m.lastCalledLimit = limit
	m.lastCalledFilters = filters

	if m.Err != nil {
		return nil, 0, m.Err
	}

	// Simulate filtering
	var filteredProducts []models.Product
	for _, p := range m.SourceProducts {
		match := true
		if filters.Category != "" && p.Category != filters.Category {
			match = false
		}
		if filters.PriceLessThan != nil && p.Price >= *filters.PriceLessThan {
			match = false
		}
		if match {
			filteredProducts = append(filteredProducts, p)
		}
	}

	total := int64(len(filteredProducts))

	// Simulate pagination
	start := min(offset, len(filteredProducts))
	end := min(offset+limit, len(filteredProducts))
	return filteredProducts[start:end], total, nil
}

func (m *MockProductRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.SourceProducts {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.SourceProducts {
		if p.Code == code {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) Create(ctx context.Context, product *models.Product, compositions []models.CompositionInput) error {
	m.lastCreated = product
	m.lastCreateCompositions = compositions
	if m.SaveErr != nil {
		return m.SaveErr
	}
	product.ID = uint(len(m.SourceProducts) + 1)
	m.SourceProducts = append(m.SourceProducts, *product)
	return nil
}

func (m *MockProductRepo) Update(ctx context.Context, id uint, upd models.ProductUpdate) (*models.Product, error) {
	m.lastUpdate = &upd
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	product, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	return product, nil
}

func (m *MockProductRepo) Delete(ctx context.Context, id uint) error {
	m.lastDeletedID = id
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, err := m.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// --- Helpers ---

func newTestProduct(id uint, code, category string, price int64) models.Product {
	return models.Product{
		ID:       id,
		Code:     code,
		Name:     "Product " + code,
		Category: category,
		Price:    price,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	var errResp map[string]string
	err := json.NewDecoder(rec.Body).Decode(&errResp)
	assert.NoError(t, err)
	return errResp["error"]
}

// --- Tests ---

func TestHandleGet(t *testing.T) {
	allMockProducts := []models.Product{
		newTestProduct(1, "PROD001", "shelves", 1999),
		newTestProduct(2, "PROD002", "tables", 2499),
		newTestProduct(3, "PROD003", "lamps", 1000),
		newTestProduct(4, "PROD004", "tables", 9550),
	}

	testCases := []struct {
		name               string
		url                string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name: "Success with default pagination",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, 4, resp.Total)
				assert.Len(t, resp.Products, 4)
				assert.Equal(t, "PROD001", resp.Products[0].Code)
				assert.Equal(t, 19.99, resp.Products[0].Price)
				assert.Equal(t, "available", resp.Products[0].Availability)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 0, repo.lastCalledOffset, "Expected default offset 0")
				assert.Equal(t, 10, repo.lastCalledLimit, "Expected default limit 10")
				assert.Empty(t, repo.lastCalledFilters.Category)
				assert.Nil(t, repo.lastCalledFilters.PriceLessThan)
			},
		},
		{
			name: "Success with custom pagination",
			url:  "/products?offset=1&limit=2",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, 4, resp.Total)
				assert.Len(t, resp.Products, 2)
				assert.Equal(t, "PROD002", resp.Products[0].Code)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 1, repo.lastCalledOffset)
				assert.Equal(t, 2, repo.lastCalledLimit)
			},
		},
		{
			name: "Pagination with out-of-bounds values",
			url:  "/products?offset=-10&limit=200",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 0, repo.lastCalledOffset, "Offset should be clamped to 0")
				assert.Equal(t, 100, repo.lastCalledLimit, "Limit should be clamped to 100")
			},
		},
		{
			name: "Pagination with lower bound limit",
			url:  "/products?limit=0",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 1, repo.lastCalledLimit, "Limit should be clamped to 1")
			},
		},
		{
			name: "Filter by category and search",
			url:  "/products?category=tables&search=PROD",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, 2, resp.Total)
				assert.Equal(t, "PROD002", resp.Products[0].Code)
				assert.Equal(t, "PROD004", resp.Products[1].Code)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "tables", repo.lastCalledFilters.Category)
				assert.Equal(t, "PROD", repo.lastCalledFilters.Search)
			},
		},
		{
			name: "Filter by price less than in cents",
			url:  "/products?price_lt=20",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, 2, resp.Total)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				if assert.NotNil(t, repo.lastCalledFilters.PriceLessThan) {
					assert.Equal(t, int64(2000), *repo.lastCalledFilters.PriceLessThan)
				}
			},
		},
		{
			name: "Invalid price filter is ignored",
			url:  "/products?price_lt=abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastCalledFilters.PriceLessThan)
			},
		},
		{
			name: "Repository error",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("database is down")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "failed to fetch products", decodeError(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewProductHandler(mockRepo, nil)
			req := httptest.NewRequest("GET", tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGet(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo)
			}
		})
	}
}

func TestHandleGetProduct(t *testing.T) {
	withArticles := newTestProduct(1, "TABLE", "tables", 15000)
	withArticles.Compositions = []models.Composition{
		{ArticleID: 10, RequiredQuantity: 4, Article: &models.Article{ID: 10, Code: "LEG", Name: "Leg", Quantity: 40, Threshold: 8}},
		{ArticleID: 11, RequiredQuantity: 1, Article: &models.Article{ID: 11, Code: "TOP", Name: "Top", Quantity: 3, Threshold: 5}},
	}
	dangling := newTestProduct(2, "BROKEN", "tables", 100)
	dangling.Compositions = []models.Composition{{ArticleID: 99, RequiredQuantity: 1}}

	testCases := []struct {
		name               string
		id                 string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with article availability",
			id:   "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: []models.Product{withArticles, dangling}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "TABLE", resp.Code)
				assert.Equal(t, 150.0, resp.Price)
				assert.Equal(t, "limited", resp.Availability)
				if assert.Len(t, resp.Articles, 2) {
					assert.Equal(t, "LEG", resp.Articles[0].Code)
					assert.Equal(t, "available", resp.Articles[0].Status)
					assert.Equal(t, "low", resp.Articles[1].Status)
				}
			},
		},
		{
			name: "Dangling article makes product unavailable",
			id:   "2",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: []models.Product{withArticles, dangling}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "unavailable", resp.Availability)
				assert.Equal(t, "out", resp.Articles[0].Status)
			},
		},
		{
			name: "Product not found",
			id:   "7",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", decodeError(t, rec))
			},
		},
		{
			name: "Invalid id",
			id:   "abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid product id", decodeError(t, rec))
			},
		},
		{
			name: "Repository error",
			id:   "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("connection failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Internal server error", decodeError(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := tc.mockRepoSetup()
			handler := NewProductHandler(mockRepo, nil)
			req := httptest.NewRequest("GET", "/products/"+tc.id, nil)
			req.SetPathValue("id", tc.id)
			rec := httptest.NewRecorder()

			handler.HandleGetProduct(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:        "Success",
			requestBody: `{"code":"DESK","name":"Desk","category":"tables","price":120.5,"articles":[{"article_id":3,"required_quantity":4}]}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "DESK", resp.Code)
				assert.Equal(t, 120.5, resp.Price)
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				if assert.NotNil(t, repo.lastCreated) {
					assert.Equal(t, int64(12050), repo.lastCreated.Price)
				}
				assert.Equal(t, []models.CompositionInput{{ArticleID: 3, RequiredQuantity: 4}}, repo.lastCreateCompositions)
			},
		},
		{
			name:        "Invalid JSON body",
			requestBody: `{invalid json`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid JSON body", decodeError(t, rec))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastCreated, "Create should not be called with invalid JSON")
			},
		},
		{
			name:        "Missing required fields",
			requestBody: `{"name":"Desk"}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Missing code, name or category", decodeError(t, rec))
			},
		},
		{
			name:        "Duplicate code",
			requestBody: `{"code":"DESK","name":"Desk","category":"tables"}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: []models.Product{newTestProduct(1, "DESK", "tables", 100)}}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product code already exists", decodeError(t, rec))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastCreated)
			},
		},
		{
			name:        "Unknown article",
			requestBody: `{"code":"DESK","name":"Desk","category":"tables","articles":[{"article_id":9,"required_quantity":1}]}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SaveErr: models.ErrArticleNotFound}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Referenced article not found", decodeError(t, rec))
			},
		},
		{
			name:        "Invalid required quantity",
			requestBody: `{"code":"DESK","name":"Desk","category":"tables","articles":[{"article_id":9,"required_quantity":0}]}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SaveErr: models.Validationf("required quantity must be at least 1, got 0")}
			},
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := tc.mockRepoSetup()
			handler := NewProductHandler(mockRepo, nil)
			req := httptest.NewRequest("POST", "/products", strings.NewReader(tc.requestBody))
			rec := httptest.NewRecorder()

			handler.HandleCreate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	source := func() *MockProductRepo {
		return &MockProductRepo{SourceProducts: []models.Product{
			newTestProduct(1, "DESK", "tables", 10000),
			newTestProduct(2, "LAMP", "lamps", 2000),
		}}
	}

	testCases := []struct {
		name               string
		id                 string
		requestBody        string
		expectedStatusCode int
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:               "Price change without articles keeps compositions",
			id:                 "1",
			requestBody:        `{"price":99.99}`,
			expectedStatusCode: http.StatusOK,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				if assert.NotNil(t, repo.lastUpdate) {
					assert.Equal(t, int64(9999), *repo.lastUpdate.Price)
					assert.Nil(t, repo.lastUpdate.Compositions)
				}
			},
		},
		{
			name:               "Empty articles clears compositions",
			id:                 "1",
			requestBody:        `{"articles":[]}`,
			expectedStatusCode: http.StatusOK,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				if assert.NotNil(t, repo.lastUpdate) {
					assert.NotNil(t, repo.lastUpdate.Compositions)
					assert.Empty(t, repo.lastUpdate.Compositions)
				}
			},
		},
		{
			name:               "Keeping its own code is allowed",
			id:                 "1",
			requestBody:        `{"code":"DESK"}`,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Taking another product's code is rejected",
			id:                 "1",
			requestBody:        `{"code":"LAMP"}`,
			expectedStatusCode: http.StatusBadRequest,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastUpdate)
			},
		},
		{
			name:               "Unknown product",
			id:                 "42",
			requestBody:        `{"name":"Ghost"}`,
			expectedStatusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := source()
			handler := NewProductHandler(mockRepo, nil)
			req := httptest.NewRequest("PUT", "/products/"+tc.id, strings.NewReader(tc.requestBody))
			req.SetPathValue("id", tc.id)
			rec := httptest.NewRecorder()

			handler.HandleUpdate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	mockRepo := &MockProductRepo{SourceProducts: []models.Product{newTestProduct(1, "DESK", "tables", 100)}}
	handler := NewProductHandler(mockRepo, nil)

	req := httptest.NewRequest("DELETE", "/products/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(1), mockRepo.lastDeletedID)

	req = httptest.NewRequest("DELETE", "/products/5", nil)
	req.SetPathValue("id", "5")
	rec = httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
