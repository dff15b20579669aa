package service

import (
	"testing"

	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB) {
	testDB := setupServiceDB(t)
	cartService := NewCartService(
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
	)
	return cartService, testDB
}

func TestCartService_GetUserCart_Empty(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")

	view, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0.0, view.Total)
	assert.Equal(t, 0, view.ItemCount)
}

func TestCartService_AddToCart_Accumulates(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")
	product := findProduct(t, testDB, "BOOK-001")

	for i := 0; i < 4; i++ {
		_, err := cartService.AddToCart(user.ID, product.ID, 3)
		require.NoError(t, err)
	}

	view, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 12, view.Items[0].Quantity)
	assert.Equal(t, product.Name, view.Items[0].ProductName)
	assert.True(t, lineTotal(product.Price, 12).Equal(view.Total))
}

func TestCartService_AddToCart_Validation(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")
	product := findProduct(t, testDB, "BOOK-001")

	_, err := cartService.AddToCart(user.ID, product.ID, 0)
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "quantity", v.Field)

	_, err = cartService.AddToCart(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_ViewUsesCurrentPrice(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")
	a := createPricedProduct(t, testDB, "A-1", "10")
	b := createPricedProduct(t, testDB, "B-1", "5")

	_, err := cartService.AddToCart(user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = cartService.AddToCart(user.ID, b.ID, 1)
	require.NoError(t, err)

	view, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	assertMoney(t, "25", view.Total)
	assert.Equal(t, 3, view.ItemCount)

	require.NoError(t, testDB.Model(&a).Update("price", 12.5).Error)
	view, err = cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	assertMoney(t, "30", view.Total)
}

func TestCartService_UpdateCartItem(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")
	other := createUser(t, testDB, "bob")
	product := findProduct(t, testDB, "BOOK-002")

	item, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	updated, err := cartService.UpdateCartItem(user.ID, item.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, product.Name, updated.Product.Name)
	view, _ := cartService.GetUserCart(user.ID)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 7, view.Items[0].Quantity)

	_, err = cartService.UpdateCartItem(other.ID, item.ID, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = cartService.UpdateCartItem(user.ID, item.ID, -1)
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)

	removed, err := cartService.UpdateCartItem(user.ID, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)
	view, _ = cartService.GetUserCart(user.ID)
	assert.Empty(t, view.Items)
}

func TestCartService_RemoveFromCart_ForeignLineUntouched(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	owner := createUser(t, testDB, "alice")
	intruder := createUser(t, testDB, "mallory")
	product := findProduct(t, testDB, "SHIRT-001")

	item, err := cartService.AddToCart(owner.ID, product.ID, 2)
	require.NoError(t, err)

	// same result as removing a line that does not exist
	assert.NoError(t, cartService.RemoveFromCart(intruder.ID, item.ID))
	assert.NoError(t, cartService.RemoveFromCart(intruder.ID, 424242))

	view, err := cartService.GetUserCart(owner.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	require.NoError(t, cartService.RemoveFromCart(owner.ID, item.ID))
	view, _ = cartService.GetUserCart(owner.ID)
	assert.Empty(t, view.Items)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, testDB := setupCartServiceTest(t)
	user := createUser(t, testDB, "alice")

	for _, sku := range []string{"BOOK-001", "BOOK-002", "JEANS-001"} {
		_, err := cartService.AddToCart(user.ID, findProduct(t, testDB, sku).ID, 1)
		require.NoError(t, err)
	}
	require.NoError(t, cartService.ClearCart(user.ID))

	view, err := cartService.GetUserCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
