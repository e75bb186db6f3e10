/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the application-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix          string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	CheckoutAPIBaseURL            string `mapstructure:"CHECKOUT_API_BASE_URL"`
	CheckoutAPIKey                string `mapstructure:"CHECKOUT_API_KEY"`
	CheckoutCurrency              string `mapstructure:"CHECKOUT_CURRENCY"`
	AuthJWKSURL                   string `mapstructure:"AUTH_JWKS_URL"`
	AllowedOrigins                string `mapstructure:"ALLOWED_ORIGINS"`
	CheckoutSessionLimitPerMinute int    `mapstructure:"CHECKOUT_SESSION_RATE_LIMIT_PER_MINUTE"`
	ConfirmPaymentLimitPerMinute  int    `mapstructure:"CONFIRM_PAYMENT_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CHECKOUT_CURRENCY", "usd")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "scholarhub:rate_limit")
	viper.SetDefault("CHECKOUT_SESSION_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("CONFIRM_PAYMENT_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CHECKOUT_API_BASE_URL")
	_ = viper.BindEnv("CHECKOUT_API_KEY", "CHECKOUT_API_KEY", "CHECKOUT_SECRET_KEY")
	_ = viper.BindEnv("CHECKOUT_CURRENCY")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("CHECKOUT_SESSION_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CONFIRM_PAYMENT_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.CheckoutAPIKey = strings.TrimSpace(config.CheckoutAPIKey)
	if config.CheckoutAPIKey == "" {
		config.CheckoutAPIKey = strings.TrimSpace(os.Getenv("CHECKOUT_SECRET_KEY"))
	}
	config.CheckoutCurrency = strings.ToLower(strings.TrimSpace(config.CheckoutCurrency))
	if config.CheckoutCurrency == "" {
		config.CheckoutCurrency = "usd"
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "scholarhub:rate_limit"
	}

	if config.CheckoutSessionLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative checkout rate limit configured; disabling\" limit=%d", config.CheckoutSessionLimitPerMinute)
		config.CheckoutSessionLimitPerMinute = 0
	}
	if config.ConfirmPaymentLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative confirm rate limit configured; disabling\" limit=%d", config.ConfirmPaymentLimitPerMinute)
		config.ConfirmPaymentLimitPerMinute = 0
	}

	return
}

// AllowedOriginList splits the comma-separated ALLOWED_ORIGINS value.
func (c Config) AllowedOriginList() []string {
	raw := strings.TrimSpace(c.AllowedOrigins)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
