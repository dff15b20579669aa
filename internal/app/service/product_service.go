package service

import (
	"errors"
	"strings"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize     = 20
	maxPageSize         = 100
	defaultFeaturedSize = 10
	searchResultLimit   = 50
)

type ProductListOptions struct {
	CategoryID *uint
	Page       int
	PageSize   int
}

type ProductPage struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    uint            `json:"category_id" validate:"required"`
	SKU           string          `json:"sku" validate:"required,max=50"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	IsFeatured    bool            `json:"is_featured"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) (*ProductPage, error)
	GetProductByID(id uint) (*model.Product, error)
	GetFeaturedProducts(limit int) ([]model.Product, error)
	SearchProducts(query string) ([]model.Product, error)
	ListCategories() ([]model.Category, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) ListProducts(opts ProductListOptions) (*ProductPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	products, total, err := s.productRepo.FindAll(repository.ProductFilter{
		CategoryID:  opts.CategoryID,
		InStockOnly: true,
		Limit:       size,
		Offset:      (page - 1) * size,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, apperrors.FromDB("list products", err)
	}

	return &ProductPage{Products: products, Total: total, Page: page, PageSize: size}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, apperrors.Storage("find product", err)
	}
	return product, nil
}

func (s *productService) GetFeaturedProducts(limit int) ([]model.Product, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultFeaturedSize
	}
	products, err := s.productRepo.FindFeatured(limit)
	if err != nil {
		logger.Error("Failed to fetch featured products", err)
		return nil, apperrors.Storage("featured products", err)
	}
	return products, nil
}

func (s *productService) SearchProducts(query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidation("q", "search query is required")
	}

	products, err := s.productRepo.Search(query, searchResultLimit)
	if err != nil {
		return nil, apperrors.Storage("search products", err)
	}

	logger.Debug("Products searched", map[string]interface{}{
		"query":   query,
		"results": len(products),
	})
	return products, nil
}

func (s *productService) ListCategories() ([]model.Category, error) {
	categories, err := s.productRepo.FindCategories()
	if err != nil {
		return nil, apperrors.Storage("list categories", err)
	}
	return categories, nil
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{}
	applyProductInput(product, input)
	if err := s.productRepo.Create(product); err != nil {
		return nil, skuConflict(apperrors.FromDB("create product", err))
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return product, nil
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, input)
	product.Category = nil
	if err := s.productRepo.Update(product); err != nil {
		return nil, skuConflict(apperrors.FromDB("update product", err))
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

func (s *productService) checkInput(input ProductInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return apperrors.NewValidation("price", "must be at least 0")
	}
	if _, err := s.productRepo.FindCategoryByID(input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewValidation("category_id", "category does not exist")
		}
		return apperrors.Storage("find category", err)
	}
	return nil
}

// skuConflict names the only unique column a product write can collide on.
func skuConflict(err error) error {
	if errors.Is(err, apperrors.ErrConflict) {
		return ErrSKUTaken
	}
	return err
}

func applyProductInput(p *model.Product, in ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = roundCents(in.Price)
	p.CategoryID = in.CategoryID
	p.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	p.StockQuantity = in.StockQuantity
	p.IsFeatured = in.IsFeatured
	p.ImageURL = in.ImageURL
}
