package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment   string
	Port          string
	DatabaseURL   string
	JWTSecret     string
	JWTExpiration int

	// Admin gate
	AdminPassword string

	// Pricing and checkout policy
	DeliveryFee           float64
	FreeDeliveryThreshold float64
	MaxOrderLimit         float64
	CurrencyLabel         string

	// Delivery window, local store time
	StoreTimezone       string
	DeliveryWindowStart int
	DeliveryWindowEnd   int

	// Notification channel A (WhatsApp deep link)
	WhatsAppNumber string

	// Notification channel B (EmailJS relay)
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSEndpoint   string

	// Cart storage
	CartStorage    string
	CartStorageDir string
	RedisURL       string

	// Inline image caps
	MaxProductImageBytes  int64
	MaxBrandingImageBytes int64

	// Rate Limiting Configuration
	RateLimitRequests int
	RateLimitWindow   int

	// CORS Configuration
	AllowedOrigins  []string
	AllowAllOrigins bool

	// Tracing
	EnableTracing bool
	OTLPEndpoint  string

	// TLS, served when both files are set
	TLSCertFile string
	TLSKeyFile  string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "manglistore.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-admin-session-secret"),
		JWTExpiration: getEnvAsInt("JWT_EXPIRATION", 12*60*60), // 12 hours in seconds

		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		DeliveryFee:           getEnvAsFloat("DELIVERY_FEE", 40),
		FreeDeliveryThreshold: getEnvAsFloat("FREE_DELIVERY_THRESHOLD", 300),
		MaxOrderLimit:         getEnvAsFloat("MAX_ORDER_LIMIT", 2000),
		CurrencyLabel:         getEnv("CURRENCY_LABEL", "Rs."),

		StoreTimezone:       getEnv("STORE_TIMEZONE", "Asia/Kolkata"),
		DeliveryWindowStart: getEnvAsInt("DELIVERY_WINDOW_START", 6),
		DeliveryWindowEnd:   getEnvAsInt("DELIVERY_WINDOW_END", 20),

		WhatsAppNumber: getEnv("WHATSAPP_NUMBER", ""),

		EmailJSServiceID:  getEnv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: getEnv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  getEnv("EMAILJS_PUBLIC_KEY", ""),
		EmailJSEndpoint:   getEnv("EMAILJS_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send"),

		CartStorage:    getEnv("CART_STORAGE", "file"),
		CartStorageDir: getEnv("CART_STORAGE_DIR", "./data/carts"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),

		MaxProductImageBytes:  getEnvAsInt64("MAX_PRODUCT_IMAGE_BYTES", 800*1024),
		MaxBrandingImageBytes: getEnvAsInt64("MAX_BRANDING_IMAGE_BYTES", 1024*1024),

		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),

		AllowedOrigins:  getEnvAsStringSlice("ALLOWED_ORIGINS", []string{}),
		AllowAllOrigins: getEnvAsBool("ALLOW_ALL_ORIGINS", true), // Default to true for development

		EnableTracing: getEnvAsBool("ENABLE_TRACING", false),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", ""),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// Location resolves the store timezone, falling back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JWTExpirationDuration returns the admin token lifetime.
func (c *Config) JWTExpirationDuration() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Second
}

// EmailJSEnabled reports whether all EmailJS identifiers are present.
func (c *Config) EmailJSEnabled() bool {
	return c.EmailJSServiceID != "" && c.EmailJSTemplateID != "" && c.EmailJSPublicKey != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("admin password is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.DeliveryFee < 0 || c.FreeDeliveryThreshold < 0 || c.MaxOrderLimit <= 0 {
		return fmt.Errorf("delivery fee, free delivery threshold and max order limit must be non-negative")
	}
	if c.DeliveryWindowStart < 0 || c.DeliveryWindowEnd > 24 || c.DeliveryWindowStart >= c.DeliveryWindowEnd {
		return fmt.Errorf("invalid delivery window: %d-%d", c.DeliveryWindowStart, c.DeliveryWindowEnd)
	}

	switch c.CartStorage {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("invalid cart storage: %s", c.CartStorage)
	}

	return nil
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %s, DatabaseURL: %s, CartStorage: %s}",
		c.Environment, c.Port, c.DatabaseURL, c.CartStorage)
}
