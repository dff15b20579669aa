package repository

import (
	"strings"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	CategoryID   *uint
	FeaturedOnly bool
	InStockOnly  bool
	Limit        int
	Offset       int
}

type ProductRepository interface {
	FindAll(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindFeatured(limit int) ([]model.Product, error)
	Search(query string, limit int) ([]model.Product, error)
	Create(product *model.Product) error
	Update(product *model.Product) error
	// UpsertBySKU inserts products, overwriting catalog fields of existing SKUs.
	UpsertBySKU(products []model.Product) error

	FindCategories() ([]model.Category, error)
	FindCategoryByID(id uint) (*model.Category, error)
	FindOrCreateCategory(category *model.Category) error

	// Candidate sources for recommendations
	FindCoPurchased(userID uint, limit int) ([]model.Product, error)
	FindSimilar(productID uint, limit int) ([]model.Product, error)
	FindTopInCategory(categoryID uint, limit int) ([]model.Product, error)
	FindPopular(limit int) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindAll(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products in database", map[string]interface{}{
		"category_id":   filter.CategoryID,
		"featured_only": filter.FeaturedOnly,
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	})

	query := r.db.Model(&model.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}
	if filter.InStockOnly {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	var products []model.Product
	query = query.Preload("Category").Order("id")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products in database", err)
		return nil, 0, err
	}

	logger.Debug("Products found in database", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		logger.Debug("Product not found by ID", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindFeatured(limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Category").
		Where("is_featured = ?", true).
		Order("rating DESC").Order("id").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Search(query string, limit int) ([]model.Product, error) {
	logger.Debug("Searching products in database", map[string]interface{}{
		"query": query,
	})

	pattern := "%" + strings.ToLower(query) + "%"
	var products []model.Product
	err := r.db.Preload("Category").
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("id").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to search products", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"sku": product.SKU,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"sku": product.SKU,
		})
		return err
	}
	return nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Omit(clause.Associations).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) UpsertBySKU(products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "price", "category_id", "stock_quantity",
			"is_featured", "rating", "review_count", "image_url", "updated_at",
		}),
	}).CreateInBatches(&products, 100).Error
	if err != nil {
		logger.Error("Failed to upsert products by SKU", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}
	return nil
}

func (r *productRepository) FindCategories() ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Order("id").Find(&categories).Error
	return categories, err
}

func (r *productRepository) FindCategoryByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *productRepository) FindOrCreateCategory(category *model.Category) error {
	return r.db.Where(model.Category{Slug: category.Slug}).
		Attrs(model.Category{Name: category.Name, Description: category.Description}).
		FirstOrCreate(category).Error
}

// purchasedBy selects the product ids bought by userID in non-cancelled orders.
func (r *productRepository) purchasedBy(userID uint) *gorm.DB {
	return r.db.Table("order_items").
		Select("order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status <> ?", userID, model.OrderStatusCancelled)
}

// FindCoPurchased ranks products bought by users who share at least one
// purchase with userID, excluding what userID already bought.
func (r *productRepository) FindCoPurchased(userID uint, limit int) ([]model.Product, error) {
	logger.Debug("Finding co-purchased products", map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	})

	peers := r.db.Table("orders").
		Select("DISTINCT orders.user_id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.product_id IN (?) AND orders.user_id <> ?", r.purchasedBy(userID), userID)

	var products []model.Product
	err := r.db.Model(&model.Product{}).
		Select("products.*").
		Joins("JOIN order_items oi ON oi.product_id = products.id").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.user_id IN (?)", peers).
		Where("o.status <> ?", model.OrderStatusCancelled).
		Where("products.id NOT IN (?)", r.purchasedBy(userID)).
		Group("products.id").
		Order("COUNT(oi.id) DESC").Order("products.id").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find co-purchased products", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindSimilar(productID uint, limit int) ([]model.Product, error) {
	category := r.db.Model(&model.Product{}).Select("category_id").Where("id = ?", productID)

	var products []model.Product
	err := r.db.Where("category_id IN (?) AND id <> ?", category, productID).
		Where("stock_quantity > 0").
		Order("rating DESC").Order("review_count DESC").Order("id").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepository) FindTopInCategory(categoryID uint, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("category_id = ?", categoryID).
		Where("stock_quantity > 0").
		Order("is_featured DESC").Order("price ASC").Order("id").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepository) FindPopular(limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("stock_quantity > 0").
		Order("is_featured DESC").Order("review_count DESC").Order("rating DESC").Order("id").
		Limit(limit).
		Find(&products).Error
	return products, err
}
