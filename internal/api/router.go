package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"manglistore-backend/config"
	"manglistore-backend/internal/middleware"
	"manglistore-backend/internal/services"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Config  *config.Config
	Catalog *services.CatalogService
	Carts   *services.CartService
	Orders  *services.OrderService
	Records services.OrderRepository
	Auth    *services.AdminAuthService
	Live    *services.WebSocketService
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", CartSessionHeader},
		ExposeHeaders: []string{"Content-Length", CartSessionHeader},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAllOrigins || len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return c
}

// requestBodyLimit fits a branding update carrying two images at the decoded
// cap, each base64 encoded inside a data URL, plus room for the JSON around them.
func requestBodyLimit(imageBytes int64) int64 {
	encoded := (imageBytes + 2) / 3 * 4
	return 2*encoded + 64<<10
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()
	router.Use(gin.Recovery())

	// Log slow requests
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if duration := time.Since(start); duration > 5*time.Second {
			log.Printf("🚨 SLOW REQUEST: %s %s took %v", c.Request.Method, c.Request.URL.Path, duration)
		}
	})

	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.SecurityMiddleware(&middleware.SecurityConfig{
		MaxRequestSize:      requestBodyLimit(cfg.MaxBrandingImageBytes),
		RateLimitRequests:   cfg.RateLimitRequests,
		RateLimitWindow:     time.Duration(cfg.RateLimitWindow) * time.Second,
		DisableRateLimiting: cfg.Environment == "test",
	}))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "healthy",
			"time":    time.Now().UTC(),
		})
	}
	router.GET("/health", health)

	catalogHandlers := NewCatalogHandlers(deps.Catalog)
	cartHandlers := NewCartHandlers(deps.Carts)
	checkoutHandlers := NewCheckoutHandlers(deps.Orders)
	authHandlers := NewAuthHandlers(deps.Auth)
	adminHandlers := NewAdminHandlers(deps.Catalog)
	orderHandlers := NewOrderHandlers(deps.Records)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.GET("/health", health)

		catalog := apiGroup.Group("/catalog")
		{
			catalog.GET("/products", catalogHandlers.GetProducts)
			catalog.GET("/products/:id", catalogHandlers.GetProduct)
			catalog.GET("/categories", catalogHandlers.GetCategories)
			catalog.GET("/settings", catalogHandlers.GetSettings)
			if deps.Live != nil {
				catalog.GET("/live", deps.Live.HandleWebSocket)
			}
		}

		cart := apiGroup.Group("/cart")
		{
			cart.GET("", cartHandlers.GetCart)
			cart.DELETE("", cartHandlers.ClearCart)
			cart.POST("/items", cartHandlers.AddToCart)
			cart.PUT("/items/:id", cartHandlers.UpdateCartItem)
			cart.DELETE("/items/:id", cartHandlers.RemoveFromCart)
		}

		checkout := apiGroup.Group("/checkout")
		{
			checkout.GET("/quote", checkoutHandlers.GetQuote)
			checkout.POST("", checkoutHandlers.Checkout)
		}

		apiGroup.POST("/admin/login",
			middleware.AuthRateLimitMiddleware(10, time.Minute),
			authHandlers.Login,
		)

		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.AdminRequired())
		{
			admin.POST("/logout", authHandlers.Logout)

			products := admin.Group("/products")
			{
				products.POST("", adminHandlers.CreateProduct)
				products.POST("/seed", adminHandlers.SeedProducts)
				products.PUT("/:id", adminHandlers.UpdateProduct)
				products.DELETE("/:id", adminHandlers.DeleteProduct)
				products.PATCH("/:id/stock", adminHandlers.ToggleStock)
			}

			admin.GET("/orders", orderHandlers.GetOrders)

			settings := admin.Group("/settings")
			{
				settings.PUT("/images", adminHandlers.UpdateImages)
				settings.POST("/categories", adminHandlers.AddCategory)
				settings.PUT("/categories/:name", adminHandlers.RenameCategory)
				settings.DELETE("/categories/:name", adminHandlers.DeleteCategory)
			}
		}
	}

	return router
}
