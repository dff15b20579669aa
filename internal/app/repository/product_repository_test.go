package repository

import (
	"fmt"
	"testing"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupCatalogTest returns a database seeded with the default catalog.
func setupCatalogTest(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedCatalog(testDB))
	return testDB
}

func productBySKU(t *testing.T, conn *gorm.DB, sku string) model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, conn.Where("sku = ?", sku).First(&p).Error)
	return p
}

func createTestUser(t *testing.T, conn *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func placeOrder(t *testing.T, conn *gorm.DB, userID uint, products ...model.Product) {
	t.Helper()
	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusCompleted,
		PaymentMethod:   "credit_card",
		PaymentStatus:   model.PaymentStatusPaid,
		ShippingAddress: "1 Main St",
	}
	for _, p := range products {
		order.TotalAmount = order.TotalAmount.Add(p.Price)
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    1,
			UnitPrice:   p.Price,
			TotalPrice:  p.Price,
		})
	}
	require.NoError(t, conn.Create(order).Error)
}

func TestProductRepository_FindAll(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)

	products, total, err := repo.FindAll(ProductFilter{InStockOnly: true, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
	assert.Len(t, products, 4)
	assert.NotNil(t, products[0].Category)

	electronics := productBySKU(t, conn, "PHONE-001").CategoryID
	products, total, err = repo.FindAll(ProductFilter{CategoryID: &electronics})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, products, 4)
}

func TestProductRepository_Search(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)

	products, err := repo.Search("LAPTOP", 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "LAPTOP-001", products[0].SKU)

	products, err = repo.Search("guide", 10)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestProductRepository_FindFeatured(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)

	products, err := repo.FindFeatured(10)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	for _, p := range products {
		assert.True(t, p.IsFeatured)
	}
}

func TestProductRepository_UpsertBySKU(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)

	phone := productBySKU(t, conn, "PHONE-001")
	err := repo.UpsertBySKU([]model.Product{
		{Name: "Smartphone Pro Max 2", SKU: "PHONE-001", Price: decimal.RequireFromString("899.99"), CategoryID: phone.CategoryID, StockQuantity: 5},
		{Name: "Tablet", SKU: "TABLET-001", Price: decimal.RequireFromString("499.99"), CategoryID: phone.CategoryID, StockQuantity: 8},
	})
	require.NoError(t, err)

	updated := productBySKU(t, conn, "PHONE-001")
	assert.Equal(t, phone.ID, updated.ID)
	assert.Equal(t, "Smartphone Pro Max 2", updated.Name)
	assert.True(t, decimal.RequireFromString("899.99").Equal(updated.Price), updated.Price.String())

	var count int64
	conn.Model(&model.Product{}).Count(&count)
	assert.EqualValues(t, 11, count)
}

func TestProductRepository_FindCoPurchased(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)

	alice := createTestUser(t, conn, "alice")
	bob := createTestUser(t, conn, "bob")
	carol := createTestUser(t, conn, "carol")

	phone := productBySKU(t, conn, "PHONE-001")
	headphones := productBySKU(t, conn, "AUDIO-001")
	watch := productBySKU(t, conn, "WATCH-001")
	book := productBySKU(t, conn, "BOOK-001")

	placeOrder(t, conn, alice.ID, phone)
	placeOrder(t, conn, bob.ID, phone, headphones, watch)
	placeOrder(t, conn, carol.ID, phone, headphones)
	placeOrder(t, conn, carol.ID, book)

	products, err := repo.FindCoPurchased(alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, products, 3)
	// headphones were bought by both peers
	assert.Equal(t, headphones.ID, products[0].ID)
	for _, p := range products {
		assert.NotEqual(t, phone.ID, p.ID)
	}

	none, err := repo.FindCoPurchased(createTestUser(t, conn, "dave").ID, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProductRepository_CandidateQueries(t *testing.T) {
	conn := setupCatalogTest(t)
	repo := NewProductRepository(conn)
	phone := productBySKU(t, conn, "PHONE-001")

	similar, err := repo.FindSimilar(phone.ID, 10)
	require.NoError(t, err)
	assert.Len(t, similar, 3)
	for _, p := range similar {
		assert.Equal(t, phone.CategoryID, p.CategoryID)
		assert.NotEqual(t, phone.ID, p.ID)
	}

	top, err := repo.FindTopInCategory(phone.CategoryID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.True(t, top[0].IsFeatured)
	assert.True(t, top[0].Price.LessThanOrEqual(top[1].Price))

	popular, err := repo.FindPopular(5)
	require.NoError(t, err)
	require.Len(t, popular, 5)
	assert.True(t, popular[0].IsFeatured)
}
