package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret        string
	SessionTTL       time.Duration
	PasswordResetTTL time.Duration
	BcryptCost       int

	AppVersion string

	Log      string // dev|file, пусто: по Env
	LogLevel string
	Env      string // dev|prod

	RateLimitMax    int
	RateLimitWindow time.Duration
	BodyLimitBytes  int64
	CORSOrigins     []string
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует, чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	sessionTTL, err := time.ParseDuration(def(getenv("SESSION_TTL"), "2160h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	resetTTL, err := time.ParseDuration(def(getenv("PASSWORD_RESET_TTL"), "10m"))
	if err != nil {
		return nil, fmt.Errorf("PASSWORD_RESET_TTL: %w", err)
	}
	cost, err := strconv.Atoi(def(getenv("BCRYPT_COST"), "12"))
	if err != nil {
		return nil, fmt.Errorf("BCRYPT_COST: %w", err)
	}
	rateMax, err := strconv.Atoi(def(getenv("RATE_LIMIT_MAX"), "100"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_MAX: %w", err)
	}
	rateWindow, err := time.ParseDuration(def(getenv("RATE_LIMIT_WINDOW"), "1h"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	bodyLimit, err := strconv.ParseInt(def(getenv("BODY_LIMIT_BYTES"), "10240"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("BODY_LIMIT_BYTES: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(def(getenv("CORS_ORIGINS"), "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Port:      def(getenv("PORT"), "8080"),
		DbHost:    getenv("DB_HOST"),
		DbPort:    def(getenv("DB_PORT"), "5432"),
		DbUser:    getenv("DB_USER"),
		DbPass:    getenv("DB_PASSWORD"),
		DbName:    getenv("DB_NAME"),
		DbSSLMode: def(getenv("DB_SSLMODE"), "disable"),

		JWTSecret:        getenv("JWT_SECRET"),
		SessionTTL:       sessionTTL,
		PasswordResetTTL: resetTTL,
		BcryptCost:       clampCost(cost),

		AppVersion: def(getenv("APP_VERSION"), "v1"),

		Log:      getenv("LOG"),
		LogLevel: strings.ToLower(def(getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(getenv("ENV"), "prod")),

		RateLimitMax:    rateMax,
		RateLimitWindow: rateWindow,
		BodyLimitBytes:  bodyLimit,
		CORSOrigins:     origins,
	}

	return cfg, nil
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	// Без секрета токены подписывать нечем
	if strings.TrimSpace(c.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}
	if len(c.JWTSecret) < 32 {
		warnings = append(warnings, "JWT_SECRET is shorter than 32 bytes")
	}

	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.PasswordResetTTL <= 0 {
		return nil, fmt.Errorf("PASSWORD_RESET_TTL must be positive")
	}
	if c.PasswordResetTTL > time.Hour {
		warnings = append(warnings, "PASSWORD_RESET_TTL is longer than an hour")
	}

	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		warnings = append(warnings, "rate limiting is disabled")
	}

	return warnings, nil
}

// DevLogging: консольный логгер разработчика вместо JSON-файла.
// LOG задаёт режим явно, иначе решает ENV.
func (c *Config) DevLogging() bool {
	if c.Log != "" {
		return c.Log == "dev"
	}
	return c.Env == "dev"
}

// BasePath: префикс маршрутов авторизации, например /api/v1/auth
func (c *Config) BasePath() string {
	return fmt.Sprintf("/api/%s/auth", c.AppVersion)
}

// GetDSN: полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe: DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}
