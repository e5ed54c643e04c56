// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	LiveKit     LiveKitConfig
	Payment     PaymentConfig
	Email       EmailConfig
	Referral    ReferralConfig
	Coupon      CouponConfig
	Cron        CronConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL        string
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	TimeZone     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type LiveKitConfig struct {
	Host      string
	APIKey    string
	APISecret string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	Currency             string
}

type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type ReferralConfig struct {
	SignupRewardAmount        int64
	FirstPurchaseRewardAmount int64
}

type CouponConfig struct {
	DefaultAmount     int64
	ExpiryMonths      int
	CodeLength        int
	MaxCodeRetries    int
}

type CronConfig struct {
	Secret string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "modooclass"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			TimeZone:     getEnv("DB_TIMEZONE", "Asia/Seoul"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "modooclass-media"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		LiveKit: LiveKitConfig{
			Host:      getEnv("LIVEKIT_HOST", ""),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			Currency:             getEnv("PAYMENT_CURRENCY", "krw"),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("FROM_EMAIL", "noreply@modooclass.com"),
			FromName:       getEnv("FROM_NAME", "모두의클래스"),
		},
		Referral: ReferralConfig{
			SignupRewardAmount:        getEnvAsInt64("REFERRAL_SIGNUP_REWARD", 10000),
			FirstPurchaseRewardAmount: getEnvAsInt64("REFERRAL_PURCHASE_REWARD", 20000),
		},
		Coupon: CouponConfig{
			DefaultAmount:  getEnvAsInt64("COUPON_DEFAULT_AMOUNT", 30000),
			ExpiryMonths:   getEnvAsInt("COUPON_EXPIRY_MONTHS", 3),
			CodeLength:     getEnvAsInt("COUPON_CODE_LENGTH", 12),
			MaxCodeRetries: getEnvAsInt("COUPON_CODE_MAX_RETRIES", 5),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Cron.Secret == "" && c.Environment == "production" {
		return fmt.Errorf("cron secret is required in production")
	}

	return nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
