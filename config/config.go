// Package config — ortam değişkenlerinden uygulama yapılandırması.
//
// .env dosyası varsa godotenv ile yüklenir; yoksa sadece process env
// kullanılır. Tüm alanların makul default'ları vardır, production'da
// JWT_SECRET mutlaka set edilmelidir.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Email    EmailConfig
	Call     CallConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
	PublicBaseURL  string
}

type DatabaseConfig struct {
	Path string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type UploadConfig struct {
	Dir         string
	MaxSizeMB   int64
	ServePrefix string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

// CallConfig, sinyalleşme tarafındaki zamanlamalar.
type CallConfig struct {
	RingTimeout     time.Duration
	ReconnectGrace  time.Duration
}

// Load, .env + process env'den Config oluşturur.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] .env file not found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:5173")},
			PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/nomadnotes.db"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSizeMB:   getEnvInt64("UPLOAD_MAX_SIZE_MB", 8),
			ServePrefix: "/uploads/",
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "NomadNotes <noreply@nomadnotes.app>"),
		},
		Call: CallConfig{
			RingTimeout:    getEnvDuration("CALL_RING_TIMEOUT", 30*time.Second),
			ReconnectGrace: getEnvDuration("CALL_RECONNECT_GRACE", 15*time.Second),
		},
	}
}

// Addr, http.Server için host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		log.Printf("[config] invalid %s=%q, using default %d", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid %s=%q, using default %s", key, v, fallback)
	}
	return fallback
}
