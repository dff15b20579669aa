package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anufa/anufa-backend/internal/app/model"
)

func TestProductController_ListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/products?page=2&page_size=4", "", nil)
	expectStatus(t, w, http.StatusOK)

	page := decode(t, w)
	assert.EqualValues(t, 10, page["total"])
	assert.EqualValues(t, 2, page["page"])
	assert.Len(t, page["products"], 4)

	var books model.Category
	require.NoError(t, env.db.Where("slug = ?", "books").First(&books).Error)
	page = decode(t, env.do(http.MethodGet, fmt.Sprintf("/products?category_id=%d", books.ID), "", nil))
	assert.EqualValues(t, 2, page["total"])

	w = env.do(http.MethodGet, "/products?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"page"`)
}

func TestProductController_GetProduct(t *testing.T) {
	env := newTestEnv(t)
	id := env.productID(t, "WATCH-001")

	w := env.do(http.MethodGet, fmt.Sprintf("/products/%d", id), "", nil)
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "WATCH-001", decode(t, w)["sku"])

	w = env.do(http.MethodGet, "/products/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PRODUCT_NOT_FOUND")

	w = env.do(http.MethodGet, "/products/0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_ID")
}

func TestProductController_FeaturedSearchCategories(t *testing.T) {
	env := newTestEnv(t)

	featured := decode(t, env.do(http.MethodGet, "/products/featured?limit=2", "", nil))
	assert.EqualValues(t, 2, featured["count"])

	found := decode(t, env.do(http.MethodGet, "/products/search?q=book", "", nil))
	assert.EqualValues(t, 1, found["count"])

	w := env.do(http.MethodGet, "/products/search?q=+", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"q"`)

	categories := decode(t, env.do(http.MethodGet, "/categories", "", nil))
	assert.Len(t, categories["categories"], 5)
}

func TestProductController_AdminWrites(t *testing.T) {
	env := newTestEnv(t)
	_, customer := env.register(t, "alice")
	admin := env.registerAdmin(t)

	var sports model.Category
	require.NoError(t, env.db.Where("slug = ?", "sports").First(&sports).Error)

	body := map[string]interface{}{
		"name":           "Yoga Mat",
		"price":          35.5,
		"category_id":    sports.ID,
		"sku":            "YOGA-001",
		"stock_quantity": 12,
	}

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/products", "", body).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/products", customer, body).Code)

	w := env.do(http.MethodPost, "/products", admin, body)
	expectStatus(t, w, http.StatusCreated)
	created := decode(t, w)
	assert.Equal(t, "YOGA-001", created["sku"])

	w = env.do(http.MethodPost, "/products", admin, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PRODUCT_SKU_EXISTS")

	body["price"] = 29.99
	w = env.do(http.MethodPut, fmt.Sprintf("/products/%v", created["id"]), admin, body)
	expectStatus(t, w, http.StatusOK)
	assert.InDelta(t, 29.99, decode(t, w)["price"], 1e-9)

	body["category_id"] = 9999
	w = env.do(http.MethodPut, fmt.Sprintf("/products/%v", created["id"]), admin, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"category_id"`)
}
