package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigLoading(t *testing.T) {
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		cfg := Load()

		assert.NotNil(t, cfg)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 40.0, cfg.DeliveryFee)
		assert.Equal(t, 300.0, cfg.FreeDeliveryThreshold)
		assert.Equal(t, 2000.0, cfg.MaxOrderLimit)
		assert.Equal(t, 6, cfg.DeliveryWindowStart)
		assert.Equal(t, 20, cfg.DeliveryWindowEnd)
		assert.Equal(t, int64(800*1024), cfg.MaxProductImageBytes)
		assert.Equal(t, "file", cfg.CartStorage)
	})

	t.Run("LoadConfigFromEnvironment", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("DELIVERY_FEE", "25.5")
		t.Setenv("MAX_ORDER_LIMIT", "1500")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
		t.Setenv("ENABLE_TRACING", "true")

		cfg := Load()

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 25.5, cfg.DeliveryFee)
		assert.Equal(t, 1500.0, cfg.MaxOrderLimit)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
		assert.True(t, cfg.EnableTracing)
	})

	t.Run("InvalidNumbersFallBackToDefaults", func(t *testing.T) {
		t.Setenv("DELIVERY_FEE", "forty")
		t.Setenv("JWT_EXPIRATION", "soon")

		cfg := Load()

		assert.Equal(t, 40.0, cfg.DeliveryFee)
		assert.Equal(t, 12*time.Hour, cfg.JWTExpirationDuration())
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Load()
		cfg.AdminPassword = "secret"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.AdminPassword = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Environment = "staging"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.DeliveryWindowStart = 20
	cfg.DeliveryWindowEnd = 6
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.CartStorage = "cookie"
	assert.Error(t, cfg.Validate())
}

func TestConfigLocation(t *testing.T) {
	cfg := Load()
	cfg.StoreTimezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.StoreTimezone = "Asia/Kolkata"
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestEmailJSEnabled(t *testing.T) {
	cfg := Load()
	assert.False(t, cfg.EmailJSEnabled())

	cfg.EmailJSServiceID = "service_x"
	cfg.EmailJSTemplateID = "template_y"
	cfg.EmailJSPublicKey = "pk"
	assert.True(t, cfg.EmailJSEnabled())
}
