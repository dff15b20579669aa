package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/metrics"
	"github.com/anufa/anufa-backend/pkg/keylock"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateOrderInput struct {
	PaymentMethod   string `json:"payment_method" validate:"required,max=50"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
}

type OrderService interface {
	CreateOrderFromCart(userID uint, input CreateOrderInput) (*model.Order, error)
	ProcessPayment(userID, orderID uint) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	// UpdateOrderStatus is the admin path; it is the only way to reach shipped.
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	db        *gorm.DB
	locks     *keylock.KeyedMutex[uint]
	events    OrderEventPublisher
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	db *gorm.DB,
	events OrderEventPublisher,
) OrderService {
	if events == nil {
		events = noopPublisher{}
	}
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		db:        db,
		locks:     keylock.New[uint](),
		events:    events,
	}
}

// CreateOrderFromCart snapshots the cart into an order and clears the cart in
// one transaction. Checkouts of the same user are serialized in-process by a
// keyed lock and across processes by locking the user row.
func (s *orderService) CreateOrderFromCart(userID uint, input CreateOrderInput) (order *model.Order, err error) {
	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
	})

	if err := validateStruct(input); err != nil {
		logger.Warn("Order input rejected", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.CheckoutDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	unlock := s.locks.Lock(userID)
	defer unlock()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Storage("begin checkout", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
			order, err = nil, apperrors.Storage("create order", fmt.Errorf("panic: %v", r))
		}
	}()

	var owner model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", userID).
		Find(&owner).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Storage("lock user", err)
	}

	cartItems, err := s.cartRepo.WithTx(tx).FindByUserID(userID)
	if err != nil {
		tx.Rollback()
		return nil, apperrors.Storage("read cart", err)
	}
	if len(cartItems) == 0 {
		tx.Rollback()
		outcome = "empty_cart"
		logger.Warn("Cannot create order: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	order = snapshotOrder(userID, input, cartItems)
	if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
		tx.Rollback()
		return nil, apperrors.FromDB("create order", err)
	}

	if _, err := s.cartRepo.WithTx(tx).DeleteByUserID(userID); err != nil {
		tx.Rollback()
		return nil, apperrors.Storage("clear cart", err)
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, apperrors.Storage("commit order", err)
	}

	outcome = "created"
	metrics.OrdersCreated.Inc()
	logger.Info("Order created", map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      userID,
		"total_amount": order.TotalAmount,
		"items":        len(order.OrderItems),
	})
	s.events.PublishOrderEvent(newOrderEvent(OrderEventCreated, order))
	return order, nil
}

// snapshotOrder freezes the current price and name of every cart line.
func snapshotOrder(userID uint, input CreateOrderInput, cartItems []model.CartItem) *model.Order {
	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		ShippingAddress: input.ShippingAddress,
		OrderItems:      make([]model.OrderItem, 0, len(cartItems)),
	}

	total := decimal.Zero
	for _, item := range cartItems {
		line := model.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
			TotalPrice:  lineTotal(item.Product.Price, item.Quantity),
		}
		order.OrderItems = append(order.OrderItems, line)
		total = total.Add(line.TotalPrice)
	}
	// line totals are already whole cents, so the sum is exact
	order.TotalAmount = total
	return order
}

// ProcessPayment marks a pending order as completed and paid. Paying an
// already paid order returns it unchanged.
func (s *orderService) ProcessPayment(userID, orderID uint) (*model.Order, error) {
	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return order, nil
	}

	updated, err := s.transition(order, model.OrderStatusCompleted, model.PaymentStatusPaid)
	if errors.Is(err, ErrInvalidStatusTransition) {
		// lost a race with another payment of the same order
		if current, findErr := s.GetOrderByID(userID, orderID); findErr == nil && current.PaymentStatus == model.PaymentStatusPaid {
			return current, nil
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Payment processed", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	})
	s.events.PublishOrderEvent(newOrderEvent(OrderEventPaid, updated))
	return updated, nil
}

func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(order, model.OrderStatusCancelled, "")
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	})
	s.events.PublishOrderEvent(newOrderEvent(OrderEventCancelled, updated))
	return updated, nil
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("status", "must be one of: pending completed shipped cancelled")
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, apperrors.Storage("find order", err)
	}

	var payment model.PaymentStatus
	if status == model.OrderStatusCompleted {
		payment = model.PaymentStatusPaid
	}
	updated, err := s.transition(order, status, payment)
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	s.events.PublishOrderEvent(newOrderEvent(OrderEventStatusChanged, updated))
	return updated, nil
}

// transition applies a state machine edge with a compare-and-set so a
// concurrent change is reported as a conflict instead of being overwritten.
func (s *orderService) transition(order *model.Order, to model.OrderStatus, payment model.PaymentStatus) (*model.Order, error) {
	if !order.Status.CanTransitionTo(to) {
		logger.Warn("Order status transition rejected", map[string]interface{}{
			"order_id": order.ID,
			"from":     order.Status,
			"to":       to,
		})
		return nil, ErrInvalidStatusTransition
	}

	ok, err := s.orderRepo.CompareAndSetStatus(order.ID, repository.StatusChange{
		From:          order.Status,
		To:            to,
		PaymentStatus: payment,
	})
	if err != nil {
		return nil, apperrors.Storage("update order status", err)
	}
	if !ok {
		return nil, ErrInvalidStatusTransition
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	updated, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, apperrors.FromDB("find order", err)
	}
	return updated, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, apperrors.Storage("find orders", err)
	}
	return orders, nil
}

// GetOrderByID never distinguishes a missing order from someone else's.
func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found for user", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		return nil, apperrors.Storage("find order", err)
	}
	return order, nil
}
