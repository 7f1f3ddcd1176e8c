package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Storage       StorageConfig
	SMTP          SMTPConfig
	Notifications NotificationsConfig
	Cache         CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	ResetTokenExpiry  time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig controls attachment storage and signed download links.
type StorageConfig struct {
	BaseDir           string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	MaxFileSizeBytes  int64
	MaxFilesPerUpload int
	AllowedMIMEs      []string
}

// SMTPConfig configures the outbound mail transport. Empty credentials put
// the notifier into log-only mode.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string
}

// NotificationsConfig tunes the async notification dispatcher.
type NotificationsConfig struct {
	Enabled bool
	Workers int
}

// CacheConfig tunes optional read caching for list endpoints.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		ResetTokenExpiry:  parseDuration(v.GetString("RESET_TOKEN_EXPIRATION"), time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUploadSize := v.GetInt64("STORAGE_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	maxFiles := v.GetInt("STORAGE_MAX_FILES_PER_UPLOAD")
	if maxFiles <= 0 {
		maxFiles = 5
	}
	cfg.Storage = StorageConfig{
		BaseDir:           v.GetString("STORAGE_DIR"),
		SignedURLSecret:   v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes:  maxUploadSize,
		MaxFilesPerUpload: maxFiles,
		AllowedMIMEs:      splitAndTrim(v.GetString("STORAGE_ALLOWED_MIME_TYPES")),
	}

	cfg.SMTP = SMTPConfig{
		Host:      v.GetString("SMTP_HOST"),
		Port:      v.GetInt("SMTP_PORT"),
		Username:  v.GetString("SMTP_USERNAME"),
		Password:  v.GetString("SMTP_PASSWORD"),
		FromName:  v.GetString("SMTP_FROM_NAME"),
		FromEmail: v.GetString("SMTP_FROM_EMAIL"),
		BaseURL:   v.GetString("APP_BASE_URL"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled: v.GetBool("ENABLE_NOTIFICATIONS"),
		Workers: v.GetInt("NOTIFICATION_WORKERS"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("RESET_TOKEN_EXPIRATION", "1h")
	v.SetDefault("JWT_ISSUER", "campus-records-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DIR", "./uploads")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")
	v.SetDefault("STORAGE_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("STORAGE_MAX_FILES_PER_UPLOAD", 5)
	v.SetDefault("STORAGE_ALLOWED_MIME_TYPES", "application/pdf,image/png,image/jpeg,application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/zip")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM_NAME", "Campus Records")
	v.SetDefault("SMTP_FROM_EMAIL", "noreply@campus-records.local")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("NOTIFICATION_WORKERS", 2)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
