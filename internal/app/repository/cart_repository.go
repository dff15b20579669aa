package repository

import (
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// AddQuantity inserts the (user, product) line or increments its quantity.
	AddQuantity(userID, productID uint, quantity int) (*model.CartItem, error)
	FindByUserID(userID uint) ([]model.CartItem, error)
	FindByIDForUser(id, userID uint) (*model.CartItem, error)
	UpdateQuantity(id, userID uint, quantity int) (int64, error)
	DeleteForUser(id, userID uint) (int64, error)
	DeleteByUserID(userID uint) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) AddQuantity(userID, productID uint, quantity int) (*model.CartItem, error) {
	fields := map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}
	logger.Debug("Upserting cart item in database", fields)

	item := &model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
	if err != nil {
		logger.Error("Failed to upsert cart item in database", err, fields)
		return nil, err
	}

	var stored model.CartItem
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&stored).Error; err != nil {
		return nil, err
	}

	logger.Debug("Cart item upserted in database", map[string]interface{}{
		"cart_item_id": stored.ID,
		"quantity":     stored.Quantity,
	})
	return &stored, nil
}

func (r *cartRepository) FindByUserID(userID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cartItems []model.CartItem
	err := r.db.Where("user_id = ?", userID).
		Preload("Product").
		Order("id").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(cartItems),
	})
	return cartItems, nil
}

func (r *cartRepository) FindByIDForUser(id, userID uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.Preload("Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&cartItem).Error
	if err != nil {
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) UpdateQuantity(id, userID uint, quantity int) (int64, error) {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_item_id": id,
		"user_id":      userID,
		"quantity":     quantity,
	})

	result := r.db.Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if result.Error != nil {
		logger.Error("Failed to update cart item in database", result.Error, map[string]interface{}{
			"cart_item_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteForUser removes the line only when it belongs to userID.
func (r *cartRepository) DeleteForUser(id, userID uint) (int64, error) {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
		"user_id":      userID,
	})

	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, map[string]interface{}{
			"cart_item_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *cartRepository) DeleteByUserID(userID uint) (int64, error) {
	logger.Debug("Deleting cart items by user ID from database", map[string]interface{}{
		"user_id": userID,
	})

	result := r.db.Where("user_id = ?", userID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart items by user ID from database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return 0, result.Error
	}

	logger.Debug("Cart items deleted by user ID from database", map[string]interface{}{
		"user_id": userID,
		"deleted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
