package db

import (
	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts the reference catalog when the tables are empty
func Seed() error {
	return SeedCatalog(DB)
}

// SeedCatalog is idempotent: existing categories or products are left alone.
func SeedCatalog(conn *gorm.DB) error {
	logger.Info("Seeding catalog...")

	var count int64
	if err := conn.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := conn.Create(DefaultCategories()).Error; err != nil {
			logger.Error("Failed to seed categories", err)
			return err
		}
	}

	if err := conn.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Products already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	var categories []model.Category
	if err := conn.Find(&categories).Error; err != nil {
		return err
	}
	bySlug := make(map[string]uint, len(categories))
	for _, c := range categories {
		bySlug[c.Slug] = c.ID
	}

	products := DefaultProducts(bySlug)
	if err := conn.Create(&products).Error; err != nil {
		logger.Error("Failed to seed products", err)
		return err
	}

	logger.Info("Catalog seeded successfully", map[string]interface{}{
		"categories": len(categories),
		"products":   len(products),
	})
	return nil
}

func DefaultCategories() []model.Category {
	return []model.Category{
		{Name: "Electronics", Slug: "electronics", Description: "Latest gadgets and electronic devices"},
		{Name: "Clothing", Slug: "clothing", Description: "Fashion and apparel for all ages"},
		{Name: "Books", Slug: "books", Description: "Books, e-books and educational materials"},
		{Name: "Home & Garden", Slug: "home_garden", Description: "Home improvement and garden supplies"},
		{Name: "Sports", Slug: "sports", Description: "Sports equipment and fitness gear"},
	}
}

// DefaultProducts builds the sample catalog; categoryIDs maps slug to id.
func DefaultProducts(categoryIDs map[string]uint) []model.Product {
	type row struct {
		name, desc, slug, sku string
		price                 float64
		stock                 int
		featured              bool
	}
	rows := []row{
		{"Smartphone Pro Max", "Latest flagship smartphone", "electronics", "PHONE-001", 999.99, 50, true},
		{"Wireless Headphones", "Premium noise-cancelling headphones", "electronics", "AUDIO-001", 299.99, 25, true},
		{"Ultra-Slim Laptop", "High-performance laptop", "electronics", "LAPTOP-001", 1299.99, 15, true},
		{"Smart Watch", "Advanced smartwatch", "electronics", "WATCH-001", 399.99, 30, false},
		{"Organic Cotton T-Shirt", "Comfortable organic cotton t-shirt", "clothing", "SHIRT-001", 29.99, 100, false},
		{"Designer Jeans", "Premium denim jeans", "clothing", "JEANS-001", 89.99, 75, false},
		{"Running Shoes Pro", "Professional running shoes", "sports", "SHOES-001", 149.99, 60, true},
		{"Programming Book", "Learn modern programming", "books", "BOOK-001", 49.99, 40, false},
		{"AI Guide", "Complete AI guide", "books", "BOOK-002", 59.99, 35, false},
		{"Garden Tools Set", "Professional gardening tools", "home_garden", "GARDEN-001", 129.99, 20, false},
	}

	products := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, model.Product{
			Name:          r.name,
			Description:   r.desc,
			Price:         decimal.NewFromFloat(r.price),
			CategoryID:    categoryIDs[r.slug],
			SKU:           r.sku,
			StockQuantity: r.stock,
			IsFeatured:    r.featured,
			Rating:        4.0,
		})
	}
	return products
}
