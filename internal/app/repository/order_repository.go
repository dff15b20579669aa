package repository

import (
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/logger"
	"gorm.io/gorm"
)

// StatusChange is applied by CompareAndSetStatus.
type StatusChange struct {
	From          model.OrderStatus
	To            model.OrderStatus
	PaymentStatus model.PaymentStatus // left unchanged when empty
}

type OrderRepository interface {
	// Create inserts the order together with its OrderItems.
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByIDForUser(id, userID uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	// CompareAndSetStatus updates the order only if its status is still change.From.
	CompareAndSetStatus(id uint, change StatusChange) (bool, error)
	WithTx(tx *gorm.DB) OrderRepository
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	})
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount,
		"items":        len(order.OrderItems),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":      order.UserID,
			"total_amount": order.TotalAmount,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Debug("Order not found by ID", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUser(id, userID uint) (*model.Order, error) {
	var order model.Order
	err := r.preloadOrder().
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	err := r.preloadOrder().
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) CompareAndSetStatus(id uint, change StatusChange) (bool, error) {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"from":     change.From,
		"to":       change.To,
	})

	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": time.Now(),
	}
	if change.PaymentStatus != "" {
		updates["payment_status"] = change.PaymentStatus
	}

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, change.From).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
