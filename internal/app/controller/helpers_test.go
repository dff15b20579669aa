package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	"github.com/anufa/anufa-backend/internal/app/service"
	"github.com/anufa/anufa-backend/internal/db"
	"github.com/anufa/anufa-backend/internal/middleware"
	"github.com/anufa/anufa-backend/internal/profile"
	"github.com/anufa/anufa-backend/internal/storage"
	"github.com/anufa/anufa-backend/pkg/util"
)

const testJWTSecret = "controller-test-secret"

type memoryRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (r *memoryRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = ttl
	return nil
}

func (r *memoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok, nil
}

type fakePresigner struct {
	lastProductID uint
}

func (f *fakePresigner) PresignProductImage(_ context.Context, productID uint, filename, contentType string) (*storage.PresignedUpload, error) {
	if _, ok := storage.AllowedImageTypes[contentType]; !ok {
		return nil, storage.ErrContentTypeNotAllowed
	}
	f.lastProductID = productID
	key := storage.ObjectKey(productID, filename, ".jpg")
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.example.com/" + key + "?X-Amz-Signature=x",
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

// testEnv wires real services over an in-memory database and mounts the
// controllers with the same middleware chain the server uses.
type testEnv struct {
	db        *gorm.DB
	router    *gin.Engine
	auth      service.AuthService
	profiles  profile.Store
	presigner *fakePresigner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	util.SetBcryptCost(4)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedCatalog(testDB))

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	profiles := profile.NewMemoryStore()
	revoker := &memoryRevoker{ids: map[string]time.Duration{}}

	authService := service.NewAuthService(userRepo, revoker, testJWTSecret, 15*time.Minute, time.Hour)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, testDB, nil)
	personalization := service.NewPersonalizationService(profiles, userRepo, productRepo, service.NewTextAnalyzer(), rand.New(rand.NewSource(1)))
	pricing := service.NewPricingService(productService, personalization)
	recommendations := service.NewRecommendationService(productRepo)
	presigner := &fakePresigner{}

	authCtrl := NewAuthController(authService)
	productCtrl := NewProductController(productService)
	cartCtrl := NewCartController(cartService)
	orderCtrl := NewOrderController(orderService)
	personalizationCtrl := NewPersonalizationController(personalization, pricing)
	recommendationCtrl := NewRecommendationController(recommendations)
	uploadCtrl := NewUploadController(presigner)

	authMW := middleware.NewAuthMiddleware(testJWTSecret, revoker)
	admin := authMW.RequireRole(model.RoleAdmin)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.POST("/auth/register", authCtrl.Register)
	r.POST("/auth/login", authCtrl.Login)
	r.POST("/auth/refresh", authCtrl.RefreshToken)
	r.POST("/auth/logout", authMW.Authenticate(), authCtrl.Logout)
	r.GET("/auth/me", authMW.Authenticate(), authCtrl.GetMe)

	r.GET("/products", productCtrl.ListProducts)
	r.GET("/products/featured", productCtrl.GetFeaturedProducts)
	r.GET("/products/search", productCtrl.SearchProducts)
	r.GET("/products/:id", productCtrl.GetProductByID)
	r.GET("/categories", productCtrl.ListCategories)
	r.POST("/products", authMW.Authenticate(), admin, productCtrl.CreateProduct)
	r.PUT("/products/:id", authMW.Authenticate(), admin, productCtrl.UpdateProduct)

	cart := r.Group("/cart", authMW.Authenticate())
	cart.GET("", cartCtrl.GetCart)
	cart.POST("", cartCtrl.AddToCart)
	cart.DELETE("", cartCtrl.ClearCart)
	cart.PUT("/:id", cartCtrl.UpdateCartItem)
	cart.DELETE("/:id", cartCtrl.RemoveFromCart)

	orders := r.Group("/orders", authMW.Authenticate())
	orders.GET("", orderCtrl.GetOrders)
	orders.POST("", orderCtrl.CreateOrder)
	orders.GET("/:id", orderCtrl.GetOrderByID)
	orders.POST("/:id/payment", orderCtrl.ProcessPayment)
	orders.POST("/:id/cancel", orderCtrl.CancelOrder)
	orders.PUT("/:id/status", admin, orderCtrl.UpdateOrderStatus)

	p := r.Group("/personalization", authMW.Authenticate())
	p.POST("/interactions", personalizationCtrl.RecordInteraction)
	p.GET("/profile", personalizationCtrl.GetProfile)
	p.GET("/pricing/:product_id", personalizationCtrl.GetPricing)
	p.POST("/analyze", personalizationCtrl.Analyze)
	p.POST("/conversation", personalizationCtrl.Converse)
	p.GET("/recommendations", personalizationCtrl.GetRecommendations)

	r.GET("/recommendations", authMW.OptionalAuthenticate(), recommendationCtrl.GetRecommendations)
	r.POST("/upload/image", authMW.Authenticate(), admin, uploadCtrl.PresignImage)

	return &testEnv{
		db:        testDB,
		router:    r,
		auth:      authService,
		profiles:  profiles,
		presigner: presigner,
	}
}

// register creates a user through the service and returns its access token.
func (e *testEnv) register(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	user, tokens, err := e.auth.Register(service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Age:      30,
	})
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (e *testEnv) registerAdmin(t *testing.T) string {
	t.Helper()
	user, _ := e.register(t, "admin")
	require.NoError(t, e.db.Model(user).Update("role", model.RoleAdmin).Error)
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(model.RoleAdmin), testJWTSecret, time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (e *testEnv) productID(t *testing.T, sku string) uint {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.Where("sku = ?", sku).First(&p).Error)
	return p.ID
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
