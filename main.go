package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"manglistore-backend/config"
	"manglistore-backend/database"
	"manglistore-backend/internal/api"
	"manglistore-backend/internal/services"
	"manglistore-backend/internal/telemetry"
	"manglistore-backend/internal/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("🔧 %s", cfg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:      cfg.EnableTracing,
		ServiceName:  "manglistore-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("❌ Failed to set up tracing: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	cartStorage, closeStorage, err := newCartStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize cart storage: %v", err)
	}
	defer closeStorage()

	broker := services.NewCatalogBroker()
	catalogService := services.NewCatalogService(db, broker, services.ImageLimits{
		ProductBytes:  cfg.MaxProductImageBytes,
		BrandingBytes: cfg.MaxBrandingImageBytes,
	})
	cartService := services.NewCartService(cartStorage, catalogService, services.PricingConfig{
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
	})
	orderRepository := services.NewSQLOrderRepository(db)
	orderService := services.NewOrderService(cartService, orderRepository, newNotifiers(cfg),
		services.OrderPolicy{
			MaxOrderLimit: cfg.MaxOrderLimit,
			CurrencyLabel: cfg.CurrencyLabel,
			WindowStart:   cfg.DeliveryWindowStart,
			WindowEnd:     cfg.DeliveryWindowEnd,
		},
		utils.StoreClock(cfg.Location()),
	)

	authService, err := services.NewAdminAuthService(cfg.AdminPassword, cfg.JWTSecret, cfg.JWTExpirationDuration())
	if err != nil {
		log.Fatalf("❌ Failed to initialize admin auth: %v", err)
	}

	wsService := services.NewWebSocketService(catalogService, cfg.AllowedOrigins)
	wsService.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Dependencies{
		Config:  cfg,
		Catalog: catalogService,
		Carts:   cartService,
		Orders:  orderService,
		Records: orderRepository,
		Auth:    authService,
		Live:    wsService,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, "manglistore-api"),
		TLSConfig: &tls.Config{
			MinVersion:       tls.VersionTLS13,
			CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
		},
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			log.Printf("🔒 Mangli Store API listening on https://localhost:%s", cfg.Port)
			err = server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			log.Printf("🔓 Mangli Store API listening on http://localhost:%s", cfg.Port)
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stops the live feed hub and relay
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("⚠️  Failed to flush traces: %v", err)
	}

	log.Println("Server shutdown complete")
}

// newCartStorage picks the cart backend named by CART_STORAGE
func newCartStorage(ctx context.Context, cfg *config.Config) (services.CartStorage, func(), error) {
	switch cfg.CartStorage {
	case "redis":
		storage, err := services.NewRedisCartStorage(ctx, cfg.RedisURL, services.CartSessionTTL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("🛒 Cart storage: redis")
		return storage, func() { storage.Close() }, nil
	case "memory":
		log.Printf("🛒 Cart storage: memory (carts are lost on restart)")
		return services.NewMemoryCartStorage(), func() {}, nil
	default:
		storage, err := services.NewFileCartStorage(cfg.CartStorageDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("🛒 Cart storage: files in %s", cfg.CartStorageDir)
		return storage, func() {}, nil
	}
}

func newNotifiers(cfg *config.Config) []services.Notifier {
	var notifiers []services.Notifier
	if cfg.WhatsAppNumber != "" {
		notifiers = append(notifiers, services.NewWhatsAppNotifier(cfg.WhatsAppNumber, cfg.CurrencyLabel))
	} else {
		log.Println("⚠️  WHATSAPP_NUMBER not set, orders will not produce a WhatsApp link")
	}
	if cfg.EmailJSEnabled() {
		notifiers = append(notifiers, services.NewEmailJSNotifier(services.EmailJSConfig{
			Endpoint:   cfg.EmailJSEndpoint,
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
		}, cfg.CurrencyLabel))
	}
	return notifiers
}
