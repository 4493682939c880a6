package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	DispatchSubject        string
	JWTSecret              string
	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIMaxTokens        int
	CorrectionTimeout      time.Duration
	MaxSourceChars         int
	MinBodyChars           int
	MaxUploadMB            int64
	StatusCacheTTL         time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	StripeSecretKey        string
	StripeWebhookSecret    string
	StripePriceStandard    string
	StripePricePremium     string
	CheckoutSuccessURL     string
	CheckoutCancelURL      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// PlanPrices maps plan names to provider price identifiers.
func (c Config) PlanPrices() map[string]string {
	return map[string]string{
		"standard": c.StripePriceStandard,
		"premium":  c.StripePricePremium,
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("JURIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "JurisCorrect API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("dispatch.subject", "juriscorrect.corrections.requested")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 2048)
	v.SetDefault("correction_timeout_ms", 28000)
	v.SetDefault("max_source_chars", 12000)
	v.SetDefault("min_body_chars", 30)
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("status_cache_ttl", "5m")
	v.SetDefault("cloudinary.folder", "juriscorrect/documents")
	v.SetDefault("checkout.success_url", "https://juriscorrect.com/correction?paid=1")
	v.SetDefault("checkout.cancel_url", "https://juriscorrect.com/correction")

	ttlString := v.GetString("status_cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid status cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("correction_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 28000
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		DispatchSubject:        v.GetString("dispatch.subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		OpenAIMaxTokens:        v.GetInt("openai.max_tokens"),
		CorrectionTimeout:      time.Duration(timeoutMs) * time.Millisecond,
		MaxSourceChars:         v.GetInt("max_source_chars"),
		MinBodyChars:           v.GetInt("min_body_chars"),
		MaxUploadMB:            v.GetInt64("max_upload_mb"),
		StatusCacheTTL:         ttl,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		StripeSecretKey:        v.GetString("stripe.secret_key"),
		StripeWebhookSecret:    v.GetString("stripe.webhook_secret"),
		StripePriceStandard:    v.GetString("stripe.price_standard"),
		StripePricePremium:     v.GetString("stripe.price_premium"),
		CheckoutSuccessURL:     v.GetString("checkout.success_url"),
		CheckoutCancelURL:      v.GetString("checkout.cancel_url"),
	}

	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = 12000
	}

	if cfg.MinBodyChars <= 0 {
		cfg.MinBodyChars = 30
	}

	return cfg, nil
}
