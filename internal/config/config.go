package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service
	HTTPPort       int           `env:"HTTP_PORT" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" default:"5s"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" default:"http://localhost:3000"`

	// Database
	DatabaseURL    string `env:"DATABASE_URL" required:"true"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" default:"5"`

	// Authentication
	JWTSecret        string        `env:"JWT_SECRET" required:"true"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" default:"168h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL" default:"1h"`
	MaxResetPerDay   int           `env:"MAX_RESET_PER_DAY" default:"3"`
	AdminEmails      []string      `env:"ADMIN_EMAILS"`

	// Redis Cache
	RedisURL         string        `env:"REDIS_URL"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	CacheTTL         int           `env:"CACHE_TTL" default:"300"`
	DeviceHistoryTTL time.Duration `env:"DEVICE_HISTORY_TTL" default:"2160h"`
	ViewDedupeWindow time.Duration `env:"VIEW_DEDUPE_WINDOW" default:"10m"`

	// Image host
	ImageHostURL          string  `env:"IMAGE_HOST_URL" default:"https://api.cloudinary.com/v1_1"`
	ImageHostCloud        string  `env:"IMAGE_HOST_CLOUD"`
	ImageHostPreset       string  `env:"IMAGE_HOST_PRESET" default:"comic-upload"`
	ImageHostAvatarPreset string  `env:"IMAGE_HOST_AVATAR_PRESET" default:"manga_avatar"`
	ImageHostRate         float64 `env:"IMAGE_HOST_RATE" default:"5"`
	UploadMaxSize         int64   `env:"UPLOAD_MAX_SIZE" default:"10MB"`
	UploadWorkers         int     `env:"UPLOAD_WORKERS" default:"4"`

	// Catalog
	ComicSourceBaseURL string `env:"COMIC_SOURCE_BASE_URL" default:"https://nettruyenvio.com/truyen-tranh"`

	// Monitoring
	PrometheusEnabled bool `env:"PROMETHEUS_ENABLED" default:"true"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"debug"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// .env is optional; system env vars still apply
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Service
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RequestTimeout, "REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.PublicBaseURL, "PUBLIC_BASE_URL", "http://localhost:3000"); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DBMaxOpenConns, "DB_MAX_OPEN_CONNS", 20); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DBMaxIdleConns, "DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RefreshTokenTTL, "REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.PasswordResetTTL, "PASSWORD_RESET_TTL", time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MaxResetPerDay, "MAX_RESET_PER_DAY", 3); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.AdminEmails, "ADMIN_EMAILS", nil); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CacheTTL, "CACHE_TTL", 300); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.DeviceHistoryTTL, "DEVICE_HISTORY_TTL", 90*24*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ViewDedupeWindow, "VIEW_DEDUPE_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}

	// Image host
	if err := loadEnvString(&config.ImageHostURL, "IMAGE_HOST_URL", "https://api.cloudinary.com/v1_1"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.ImageHostCloud, "IMAGE_HOST_CLOUD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.ImageHostPreset, "IMAGE_HOST_PRESET", "comic-upload"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.ImageHostAvatarPreset, "IMAGE_HOST_AVATAR_PRESET", "manga_avatar"); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.ImageHostRate, "IMAGE_HOST_RATE", 5); err != nil {
		return nil, err
	}
	if err := loadEnvSize(&config.UploadMaxSize, "UPLOAD_MAX_SIZE", 10<<20); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.UploadWorkers, "UPLOAD_WORKERS", 4); err != nil {
		return nil, err
	}

	// Catalog
	if err := loadEnvString(&config.ComicSourceBaseURL, "COMIC_SOURCE_BASE_URL", "https://nettruyenvio.com/truyen-tranh"); err != nil {
		return nil, err
	}

	// Monitoring
	if err := loadEnvBool(&config.PrometheusEnabled, "PROMETHEUS_ENABLED", true); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "debug"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"}); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) error {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, v := range parts {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*target = out
	} else {
		*target = defaultValue
	}
	return nil
}

// loadEnvSize accepts plain byte counts or KB/MB/GB suffixes ("10MB").
func loadEnvSize(target *int64, key string, defaultValue int64) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := ParseSize(value)
	if err != nil {
		return fmt.Errorf("invalid size value for %s: %v", key, err)
	}
	*target = parsed
	return nil
}

// ParseSize converts a human size like "10MB" into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %d", n)
	}
	return n * multiplier, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if c.MaxResetPerDay < 1 {
		errors = append(errors, "MAX_RESET_PER_DAY must be positive")
	}
	if c.UploadWorkers < 1 {
		errors = append(errors, "UPLOAD_WORKERS must be positive")
	}
	if c.UploadMaxSize <= 0 {
		errors = append(errors, "UPLOAD_MAX_SIZE must be positive")
	}
	if c.ImageHostRate <= 0 {
		errors = append(errors, "IMAGE_HOST_RATE must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// CacheDuration returns CACHE_TTL as a duration.
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
