package router

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anufa/anufa-backend/config"
	"github.com/anufa/anufa-backend/internal/app/controller"
	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type Router struct {
	authController            *controller.AuthController
	productController         *controller.ProductController
	cartController            *controller.CartController
	orderController           *controller.OrderController
	personalizationController *controller.PersonalizationController
	recommendationController  *controller.RecommendationController
	uploadController          *controller.UploadController
	wsController              *controller.WSController
	authMiddleware            *middleware.AuthMiddleware
	rateLimiter               *middleware.RateLimiter
	config                    *config.Config
}

// Controllers groups the HTTP handlers mounted by the router.
type Controllers struct {
	Auth            *controller.AuthController
	Product         *controller.ProductController
	Cart            *controller.CartController
	Order           *controller.OrderController
	Personalization *controller.PersonalizationController
	Recommendation  *controller.RecommendationController
	Upload          *controller.UploadController
	WS              *controller.WSController
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:            controllers.Auth,
		productController:         controllers.Product,
		cartController:            controllers.Cart,
		orderController:           controllers.Order,
		personalizationController: controllers.Personalization,
		recommendationController:  controllers.Recommendation,
		uploadController:          controllers.Upload,
		wsController:              controllers.WS,
		authMiddleware:            authMiddleware,
		rateLimiter:               rateLimiter,
		config:                    cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Anufa API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Browsers cannot set headers on the upgrade request, so the token may
	// also travel as ?token=.
	router.GET("/ws", r.authMiddleware.Authenticate(), r.wsController.Connect)

	adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	if r.rateLimiter != nil {
		v1.Use(r.rateLimiter.Middleware())
	}
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		v1.GET("/categories", r.productController.ListCategories)

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/featured", r.productController.GetFeaturedProducts)
			products.GET("/search", r.productController.SearchProducts)
			products.GET("/:id", r.productController.GetProductByID)

			products.POST("",
				r.authMiddleware.Authenticate(),
				adminOnly,
				r.productController.CreateProduct,
			)
			products.PUT("/:id",
				r.authMiddleware.Authenticate(),
				adminOnly,
				r.productController.UpdateProduct,
			)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/:id", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.POST("", r.orderController.CreateOrder)
			orders.POST("/:id/payment", r.orderController.ProcessPayment)
			orders.POST("/:id/cancel", r.orderController.CancelOrder)

			orders.PUT("/:id/status",
				adminOnly,
				r.orderController.UpdateOrderStatus,
			)
		}

		personalization := v1.Group("/personalization")
		personalization.Use(r.authMiddleware.Authenticate())
		{
			personalization.GET("/profile", r.personalizationController.GetProfile)
			personalization.POST("/interactions", r.personalizationController.RecordInteraction)
			personalization.GET("/pricing/:product_id", r.personalizationController.GetPricing)
			personalization.POST("/analyze", r.personalizationController.Analyze)
			personalization.POST("/conversation", r.personalizationController.Converse)
			personalization.GET("/recommendations", r.personalizationController.GetRecommendations)
		}

		v1.GET("/recommendations",
			r.authMiddleware.OptionalAuthenticate(),
			r.recommendationController.GetRecommendations,
		)

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate(), adminOnly)
		{
			upload.POST("/image", r.uploadController.PresignImage)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && (wildcard || slices.Contains(allowedOrigins, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
