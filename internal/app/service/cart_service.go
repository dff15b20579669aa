package service

import (
	"errors"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/metrics"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLineView is a cart line priced at the product's current price.
type CartLineView struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"name"`
	ImageURL    string          `json:"image_url"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ItemTotal   decimal.Decimal `json:"item_total"`
}

type CartView struct {
	Items     []CartLineView  `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type CartService interface {
	GetUserCart(userID uint) (*CartView, error)
	AddToCart(userID, productID uint, quantity int) (*model.CartItem, error)
	// UpdateCartItem returns the updated line, or nil when quantity 0 removed it.
	UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetUserCart(userID uint) (*CartView, error) {
	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, apperrors.Storage("find cart", err)
	}
	return buildCartView(items), nil
}

func buildCartView(items []model.CartItem) *CartView {
	view := &CartView{Items: make([]CartLineView, 0, len(items))}
	for _, item := range items {
		line := CartLineView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			ImageURL:    item.Product.ImageURL,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
			ItemTotal:   lineTotal(item.Product.Price, item.Quantity),
		}
		view.Items = append(view.Items, line)
		view.Total = view.Total.Add(line.ItemTotal)
		view.ItemCount += item.Quantity
	}
	return view
}

func (s *cartService) AddToCart(userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding product to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, apperrors.NewValidation("quantity", "must be at least 1")
	}
	if productID == 0 {
		return nil, apperrors.NewValidation("product_id", "is required")
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found when adding to cart", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, apperrors.Storage("find product", err)
	}

	item, err := s.cartRepo.AddQuantity(userID, productID, quantity)
	if err != nil {
		logger.Error("Failed to add cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, apperrors.FromDB("add cart item", err)
	}

	metrics.CartOperations.WithLabelValues("add").Inc()
	logger.Info("Cart item saved", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

// UpdateCartItem sets an absolute quantity; zero removes the line.
func (s *cartService) UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidation("quantity", "must be at least 0")
	}

	var affected int64
	var err error
	if quantity == 0 {
		affected, err = s.cartRepo.DeleteForUser(cartItemID, userID)
	} else {
		affected, err = s.cartRepo.UpdateQuantity(cartItemID, userID, quantity)
	}
	if err != nil {
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return nil, apperrors.Storage("update cart item", err)
	}
	if affected == 0 {
		logger.Warn("Cart item not found for user", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return nil, ErrCartItemNotFound
	}

	metrics.CartOperations.WithLabelValues("update").Inc()
	if quantity == 0 {
		return nil, nil
	}

	item, err := s.cartRepo.FindByIDForUser(cartItemID, userID)
	if err != nil {
		// removed by a concurrent request after the update
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, apperrors.Storage("find cart item", err)
	}
	return item, nil
}

// RemoveFromCart is a no-op for lines that are missing or owned by someone else.
func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	affected, err := s.cartRepo.DeleteForUser(cartItemID, userID)
	if err != nil {
		logger.Error("Failed to remove cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return apperrors.Storage("remove cart item", err)
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"removed":      affected,
	})
	metrics.CartOperations.WithLabelValues("remove").Inc()
	return nil
}

func (s *cartService) ClearCart(userID uint) error {
	if _, err := s.cartRepo.DeleteByUserID(userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return apperrors.Storage("clear cart", err)
	}
	metrics.CartOperations.WithLabelValues("clear").Inc()
	return nil
}
