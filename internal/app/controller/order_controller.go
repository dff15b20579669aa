package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/service"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// GetOrders lists the caller's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, id)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder checks out the caller's cart
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.CreateOrderFromCart(userID, req)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	log.Info("Order created", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.TotalAmount,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"order":   order,
	})
}

// ProcessPayment marks a pending order paid
// POST /api/v1/orders/:id/payment
func (ctrl *OrderController) ProcessPayment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.ProcessPayment(userID, id)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment processed",
		"order":   order,
	})
}

// CancelOrder
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, id)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"order":   order,
	})
}

// UpdateOrderStatus (admin)
// PUT /api/v1/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, req.Status)
	if err != nil {
		respondError(c, err, "order", map[string]interface{}{
			"order_id": id,
			"status":   req.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}
