package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/service"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// UpdateCartRequest uses a pointer so an explicit 0 (remove) differs from a
// missing field.
type UpdateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the cart priced at current product prices
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetUserCart(userID)
	if err != nil {
		respondError(c, err, "cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddToCart adds quantity to the user's line for the product
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err, "cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Item added to cart",
		"cart_item": item,
	})
}

// UpdateCartItem sets the quantity; 0 removes the line
// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := ctrl.cartService.UpdateCartItem(userID, id, *req.Quantity)
	if err != nil {
		respondError(c, err, "cart", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": id,
		})
		return
	}

	if item == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Cart item removed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Cart item updated",
		"cart_item": item,
	})
}

// RemoveFromCart
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(userID, id); err != nil {
		respondError(c, err, "cart", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item removed",
	})
}

// ClearCart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondError(c, err, "cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}
