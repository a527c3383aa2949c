package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"manglistore-backend/config"
	"manglistore-backend/database"
	"manglistore-backend/internal/models"
	"manglistore-backend/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Warning string          `json:"warning"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type APITestSuite struct {
	suite.Suite
	cfg     *config.Config
	router  *gin.Engine
	catalog *services.CatalogService
	records services.OrderRepository
	session string
	token   string
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.Environment = "test"
	cfg.AdminPassword = "letmein"
	cfg.JWTSecret = "api-test-secret"
	cfg.WhatsAppNumber = "919000000000"
	s.cfg = cfg

	db, err := database.Initialize(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	s.T().Cleanup(func() { db.Close() })

	s.catalog = services.NewCatalogService(db, services.NewCatalogBroker(), services.ImageLimits{
		ProductBytes:  cfg.MaxProductImageBytes,
		BrandingBytes: cfg.MaxBrandingImageBytes,
	})
	pricing := services.PricingConfig{DeliveryFee: cfg.DeliveryFee, FreeDeliveryThreshold: cfg.FreeDeliveryThreshold}
	carts := services.NewCartService(services.NewMemoryCartStorage(), s.catalog, pricing)
	s.records = services.NewSQLOrderRepository(db)
	noon := func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	orders := services.NewOrderService(carts, s.records,
		[]services.Notifier{services.NewWhatsAppNotifier(cfg.WhatsAppNumber, cfg.CurrencyLabel)},
		services.OrderPolicy{MaxOrderLimit: cfg.MaxOrderLimit, CurrencyLabel: cfg.CurrencyLabel, WindowStart: 6, WindowEnd: 20},
		noon,
	)
	auth, err := services.NewAdminAuthService(cfg.AdminPassword, cfg.JWTSecret, time.Hour)
	s.Require().NoError(err)

	s.router = NewRouter(Dependencies{
		Config:  cfg,
		Catalog: s.catalog,
		Carts:   carts,
		Orders:  orders,
		Records: s.records,
		Auth:    auth,
	})
	s.session = "test-session-0001"
	s.token = ""
}

func (s *APITestSuite) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(CartSessionHeader, s.session)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *APITestSuite) login() {
	w, env := s.do(http.MethodPost, "/api/v1/admin/login", gin.H{"password": " letmein "})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.token = data.Token
}

func (s *APITestSuite) createProduct(name string, price float64) models.Product {
	p, err := s.catalog.CreateProduct(context.Background(), &models.ProductCreation{
		Name:        name,
		Price:       &price,
		Description: name,
		ImageURL:    "https://img.test/p.png",
		Category:    "Groceries",
	})
	s.Require().NoError(err)
	return *p
}

func (s *APITestSuite) TestHealth() {
	w, env := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
}

func (s *APITestSuite) TestCatalogEndpoints() {
	p := s.createProduct("Rice", 100)

	w, env := s.do(http.MethodGet, "/api/v1/catalog/products?category=All", nil)
	s.Equal(http.StatusOK, w.Code)
	var products []models.Product
	s.Require().NoError(json.Unmarshal(env.Data, &products))
	s.Len(products, 1)

	w, _ = s.do(http.MethodGet, "/api/v1/catalog/products/"+p.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/catalog/products/missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.False(env.Success)

	w, env = s.do(http.MethodGet, "/api/v1/catalog/categories", nil)
	s.Equal(http.StatusOK, w.Code)
	var categories []string
	s.Require().NoError(json.Unmarshal(env.Data, &categories))
	s.Equal([]string{"All", "Groceries"}, categories)

	w, _ = s.do(http.MethodGet, "/api/v1/catalog/settings", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestCartFlow() {
	p := s.createProduct("Rice", 100)

	w, env := s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})

	w, env = s.do(http.MethodGet, "/api/v1/cart", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(s.session, w.Header().Get(CartSessionHeader))
	var view services.CartView
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal(2, view.ItemCount)
	s.Equal(models.OrderTotals{Subtotal: 200, DeliveryCharge: 40, GrandTotal: 240, AmountToFreeDelivery: 100}, view.Totals)

	w, env = s.do(http.MethodPut, "/api/v1/cart/items/"+p.ID, gin.H{"quantity": 3})
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Equal(300.0, view.Totals.GrandTotal)

	w, env = s.do(http.MethodPut, "/api/v1/cart/items/"+p.ID, gin.H{"quantity": 0})
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Empty(view.Items)

	w, _ = s.do(http.MethodPut, "/api/v1/cart/items/"+p.ID, gin.H{})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "missing"})
	s.Equal(http.StatusNotFound, w.Code)

	s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})
	w, env = s.do(http.MethodDelete, "/api/v1/cart/items/"+p.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Empty(view.Items)

	w, _ = s.do(http.MethodDelete, "/api/v1/cart", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestCartRejectsOutOfStock() {
	p := s.createProduct("Mango", 90)
	_, err := s.catalog.ToggleStock(context.Background(), p.ID)
	s.Require().NoError(err)

	w, env := s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(services.ErrOutOfStock.Error(), env.Error)
}

func (s *APITestSuite) TestNewSessionIssued() {
	s.session = ""
	w, _ := s.do(http.MethodGet, "/api/v1/cart", nil)
	s.Equal(http.StatusOK, w.Code)

	issued := w.Header().Get(CartSessionHeader)
	s.NotEmpty(issued)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	s.Equal(CartSessionCookie, cookies[0].Name)
	s.Equal(issued, cookies[0].Value)
}

func (s *APITestSuite) TestCheckoutFlow() {
	p := s.createProduct("Rice", 100)
	s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})
	s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})

	w, env := s.do(http.MethodGet, "/api/v1/checkout/quote", nil)
	s.Equal(http.StatusOK, w.Code)
	var quote services.Quote
	s.Require().NoError(json.Unmarshal(env.Data, &quote))
	s.True(quote.CanCheckout)
	s.Equal(240.0, quote.Totals.GrandTotal)

	w, env = s.do(http.MethodPost, "/api/v1/checkout", gin.H{"customerName": "Asha", "phone": "98765432", "address": "Road 1"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Require().Len(env.Errors, 1)
	s.Equal("phone", env.Errors[0].Field)

	w, env = s.do(http.MethodPost, "/api/v1/checkout", gin.H{"customerName": "Asha", "phone": "9876543210", "address": "Road 1"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var result services.CheckoutResult
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	s.Equal(services.CheckoutConfirmed, result.State)
	s.Contains(result.WhatsAppURL, "https://wa.me/919000000000?text=")

	w, env = s.do(http.MethodGet, "/api/v1/cart", nil)
	var view services.CartView
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.Empty(view.Items)

	s.login()
	w, env = s.do(http.MethodGet, "/api/v1/admin/orders", nil)
	s.Equal(http.StatusOK, w.Code)
	var orders []models.Order
	s.Require().NoError(json.Unmarshal(env.Data, &orders))
	s.Require().Len(orders, 1)
	s.Equal("Asha", orders[0].CustomerName)
	s.Equal(240.0, orders[0].GrandTotal)
}

func (s *APITestSuite) TestCheckoutOverLimit() {
	p := s.createProduct("Saffron", 2500)
	s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})

	w, env := s.do(http.MethodPost, "/api/v1/checkout", gin.H{"customerName": "Asha", "phone": "9876543210", "address": "Road 1"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Error, "Maximum order limit is Rs. 2000")

	orders, err := s.records.List(context.Background(), 0)
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *APITestSuite) TestAdminLogin() {
	w, env := s.do(http.MethodPost, "/api/v1/admin/login", gin.H{"password": "nope"})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Access Denied", env.Error)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/products/seed", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	s.login()
	s.NotEmpty(s.token)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/logout", nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/admin/products/seed", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminProductLifecycle() {
	s.login()

	w, env := s.do(http.MethodPost, "/api/v1/admin/products", gin.H{
		"name":        "Ghee",
		"price":       250,
		"description": "Pure cow ghee",
		"category":    "Dairy",
		"unit":        "Litre",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(services.ErrImageRequired.Error(), env.Error)

	w, env = s.do(http.MethodPost, "/api/v1/admin/products", gin.H{
		"name":        "Ghee",
		"price":       250,
		"description": "Pure cow ghee",
		"category":    "Dairy",
		"unit":        "Litre",
		"imageUrl":    "https://img.test/ghee.png",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	s.Require().NoError(json.Unmarshal(env.Data, &product))
	s.Equal("Ghee is now live.", env.Message)

	w, env = s.do(http.MethodPut, "/api/v1/admin/products/"+product.ID, gin.H{"price": 230})
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &product))
	s.Equal(230.0, product.Price)

	w, env = s.do(http.MethodPatch, "/api/v1/admin/products/"+product.ID+"/stock", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Ghee is now Out of Stock.", env.Message)

	w, _ = s.do(http.MethodDelete, "/api/v1/admin/products/"+product.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/admin/products/"+product.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/admin/products/seed", nil)
	s.Equal(http.StatusCreated, w.Code)
	var seeded []models.Product
	s.Require().NoError(json.Unmarshal(env.Data, &seeded))
	s.NotEmpty(seeded)
}

func (s *APITestSuite) TestAdminSettings() {
	s.login()

	w, env := s.do(http.MethodPost, "/api/v1/admin/settings/categories", gin.H{"name": "Dairy"})
	s.Equal(http.StatusCreated, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/admin/settings/categories", gin.H{"name": "Dairy"})
	s.Equal(http.StatusConflict, w.Code)

	w, env = s.do(http.MethodPut, "/api/v1/admin/settings/categories/Dairy", gin.H{"name": "Milk"})
	s.Equal(http.StatusOK, w.Code)
	var settings models.StoreSettings
	s.Require().NoError(json.Unmarshal(env.Data, &settings))
	s.Equal([]string{"Groceries", "Milk"}, settings.Categories)

	w, _ = s.do(http.MethodDelete, "/api/v1/admin/settings/categories/Nope", nil)
	s.Equal(http.StatusNotFound, w.Code)

	hero := "https://img.test/hero.png"
	w, env = s.do(http.MethodPut, "/api/v1/admin/settings/images", gin.H{"heroImageUrl": hero})
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &settings))
	s.Require().NotNil(settings.HeroImageURL)
	s.Equal(hero, *settings.HeroImageURL)
}

func (s *APITestSuite) TestBrandingAtImageCapFitsRequestLimit() {
	s.login()

	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, s.cfg.MaxBrandingImageBytes))
	w, env := s.do(http.MethodPut, "/api/v1/admin/settings/images", gin.H{
		"heroImageUrl": image,
		"logoImageUrl": image,
	})
	s.Require().Equal(http.StatusOK, w.Code, env.Error)

	var settings models.StoreSettings
	s.Require().NoError(json.Unmarshal(env.Data, &settings))
	s.Require().NotNil(settings.LogoImageURL)
	s.Equal(image, *settings.LogoImageURL)
}

func (s *APITestSuite) TestOversizedBodyRejected() {
	s.login()

	filler := strings.Repeat("a", int(requestBodyLimit(s.cfg.MaxBrandingImageBytes)))
	w, _ := s.do(http.MethodPut, "/api/v1/admin/settings/images", gin.H{"heroImageUrl": filler})
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
}

func (s *APITestSuite) TestOrdersLimitIsClamped() {
	p := s.createProduct("Rice", 100)
	for i := 0; i < 3; i++ {
		s.do(http.MethodPost, "/api/v1/cart/items", gin.H{"productId": p.ID})
		w, _ := s.do(http.MethodPost, "/api/v1/checkout", gin.H{"customerName": "Asha", "phone": "9876543210", "address": "Road 1"})
		s.Require().Equal(http.StatusCreated, w.Code)
	}
	s.login()

	for query, want := range map[string]int{"?limit=-1": 3, "?limit=abc": 3, "?limit=2": 2, "": 3} {
		w, env := s.do(http.MethodGet, "/api/v1/admin/orders"+query, nil)
		s.Require().Equal(http.StatusOK, w.Code, query)
		var orders []models.Order
		s.Require().NoError(json.Unmarshal(env.Data, &orders))
		s.Len(orders, want, query)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	limit := requestBodyLimit(1024 * 1024)
	assert.Greater(t, limit, int64(2*(1024*1024*4/3)))
	assert.Less(t, limit, int64(3*1024*1024))
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
