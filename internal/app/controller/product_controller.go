package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/service"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ListProducts returns a page of products
// GET /api/v1/products?page=&page_size=&category_id=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}
	pageSize, err := parseIntQuery(c, "page_size", 0)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}
	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}

	result, err := ctrl.productService.ListProducts(service.ProductListOptions{
		CategoryID: categoryID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, err, "product", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFeaturedProducts
// GET /api/v1/products/featured?limit=
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}

	products, err := ctrl.productService.GetFeaturedProducts(limit)
	if err != nil {
		respondError(c, err, "product", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// SearchProducts
// GET /api/v1/products/search?q=
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	query := c.Query("q")

	products, err := ctrl.productService.SearchProducts(query)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"query": query,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"query":    query,
	})
}

// GetProductByID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListCategories
// GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories()
	if err != nil {
		respondError(c, err, "category", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// CreateProduct (admin)
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.CreateProduct(req)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"sku": req.SKU,
		})
		return
	}

	middleware.GetLoggerFromContext(c).Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct (admin)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.UpdateProduct(id, req)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}
