package config

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	ServerPort     int
	DatabaseURL    string
	AppURL         string // public base URL, used for gateway callback and return URLs
	JWTSecret      string
	AdminUser      string
	AdminPass      string
	AllowedOrigins []string

	ExpiryJobEnabled     bool
	ExpiryCheckInterval  time.Duration
	ManualPaymentWindow  time.Duration
	GatewayPaymentWindow time.Duration
	HTTPClientTimeout    time.Duration // 0 keeps the platform default

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	WAProviderURL           string
	WAApiKey                string
	FirebaseCredentialsFile string
	TelegramToken           string
	TelegramChatID          string
}

// Load reads .env when present, then builds the configuration from the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] Failed to read .env: %v", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		fmt.Printf("⚠️  WARNING: JWT_SECRET not set, generated a random secret for this run\n")
		fmt.Printf("   Please set JWT_SECRET environment variable for production use!\n")
	}

	return &Config{
		ServerPort:     getEnvAsInt("SERVER_PORT", 8080),
		DatabaseURL:    getEnv("DATABASE_URL", "./data/digistore.db"),
		AppURL:         strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		JWTSecret:      jwtSecret,
		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPass:      getEnv("ADMIN_PASS", "admin123"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		ExpiryJobEnabled:     getEnvAsBool("EXPIRY_JOB_ENABLED", true),
		ExpiryCheckInterval:  getEnvAsDuration("EXPIRY_CHECK_INTERVAL", time.Minute),
		ManualPaymentWindow:  getEnvAsDuration("MANUAL_PAYMENT_WINDOW", 24*time.Hour),
		GatewayPaymentWindow: getEnvAsDuration("GATEWAY_PAYMENT_WINDOW", 24*time.Hour),
		HTTPClientTimeout:    getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@digistore.local"),

		WAProviderURL:           getEnv("WA_PROVIDER_URL", "https://api.fonnte.com/send"),
		WAApiKey:                getEnv("WA_API_KEY", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		TelegramToken:           getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID:          getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// generateRandomSecret generates a cryptographically secure random string
func generateRandomSecret(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-secret-%d", time.Now().UnixNano())
	}
	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}
	return string(b)
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch value {
		case "1", "t", "T", "true", "TRUE", "True", "yes", "YES":
			return true
		case "0", "f", "F", "false", "FALSE", "False", "no", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "24h") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("[CONFIG] Invalid duration for %s: %q, using %s", key, value, defaultValue)
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
