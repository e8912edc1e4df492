package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAdminPassword = "admin123"

type Config struct {
	APIPort        string
	AdminPassword  string
	RequestTimeout time.Duration

	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSslMode         string
	DBConnStr         string
	DBConnectTimeout  time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	CacheBackend string // "memory" or "redis"
	CacheTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after loading a .env file if one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "user"),
		DBPassword:        getEnv("DB_PASSWORD", "password"),
		DBName:            getEnv("DB_NAME", "contest_problems"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		DBConnectTimeout:  time.Duration(getEnvAsInt("DB_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		DBAutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:     time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	connStr := getEnv("DATABASE_URL", "")
	if connStr == "" {
		connStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}
	cfg.DBConnStr = WithConnectTimeout(connStr, cfg.DBConnectTimeout)

	return cfg
}

// UsesDefaultAdminPassword reports whether the shipped admin secret is still in use.
func (c *Config) UsesDefaultAdminPassword() bool {
	return c.AdminPassword == defaultAdminPassword
}

// WithConnectTimeout appends a connect_timeout parameter to a URL or keyword/value DSN,
// leaving it untouched when one is already present.
func WithConnectTimeout(connStr string, timeout time.Duration) string {
	secs := int(timeout / time.Second)
	if secs <= 0 || strings.Contains(connStr, "connect_timeout=") {
		return connStr
	}
	param := "connect_timeout=" + strconv.Itoa(secs)
	if strings.Contains(connStr, "://") {
		if strings.Contains(connStr, "?") {
			return connStr + "&" + param
		}
		return connStr + "?" + param
	}
	return connStr + " " + param
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
