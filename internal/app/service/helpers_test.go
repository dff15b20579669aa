package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedCatalog(testDB))
	return testDB
}

func createUser(t *testing.T, conn *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
		Age:          35,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func findProduct(t *testing.T, conn *gorm.DB, sku string) model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, conn.Preload("Category").Where("sku = ?", sku).First(&p).Error)
	return p
}

// createPricedProduct adds a product with an exact price to the first category.
func createPricedProduct(t *testing.T, conn *gorm.DB, sku string, price string) model.Product {
	t.Helper()
	var category model.Category
	require.NoError(t, conn.Order("id").First(&category).Error)
	p := model.Product{
		Name:          "Test " + sku,
		Price:         decimal.RequireFromString(price),
		CategoryID:    category.ID,
		SKU:           sku,
		StockQuantity: 10,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

// assertMoney compares an amount exactly, ignoring trailing zeros.
func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(event OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
