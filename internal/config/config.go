package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at startup and passed by value to whatever needs it.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	AccessSecret     string
	RefreshSecret    string
	InvitationSecret string

	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	RefreshedAccessTTL   time.Duration
	DefaultInvitationTTL time.Duration

	AllowedOrigins []string
	CookieSecure   bool

	RedisAddr     string
	RedisPassword string
	UserCacheTTL  time.Duration

	AuthRateLimit float64
	AuthRateBurst int
}

func Load() Config {
	env := getenv("APP_ENV", "development")

	accessTTL, refreshTTL, refreshedTTL := time.Hour, 7*24*time.Hour, 30*time.Minute
	if env == "test" {
		accessTTL, refreshTTL, refreshedTTL = time.Second, 5*time.Second, time.Second
	}

	return Config{
		Env:                  env,
		Port:                 getenv("PORT", "5050"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AccessSecret:         os.Getenv("JWT_ACCESS_SECRET"),
		RefreshSecret:        os.Getenv("JWT_REFRESH_SECRET"),
		InvitationSecret:     os.Getenv("JWT_INVITATION_SECRET"),
		AccessTokenTTL:       getenvDuration("ACCESS_TOKEN_TTL", accessTTL),
		RefreshTokenTTL:      getenvDuration("REFRESH_TOKEN_TTL", refreshTTL),
		RefreshedAccessTTL:   getenvDuration("REFRESH_ACCESS_TOKEN_TTL", refreshedTTL),
		DefaultInvitationTTL: getenvDuration("INVITATION_TTL", 7*24*time.Hour),
		AllowedOrigins:       getenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		CookieSecure:         getenvBool("COOKIE_SECURE", env == "production"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		UserCacheTTL:         getenvDuration("USER_CACHE_TTL", time.Minute),
		AuthRateLimit:        getenvFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:        getenvInt("AUTH_RATE_BURST", 10),
	}
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is empty"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is empty"))
	}
	if c.InvitationSecret == "" {
		errs = append(errs, errors.New("JWT_INVITATION_SECRET is empty"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	return errors.Join(errs...)
}

func (c Config) IsTest() bool { return c.Env == "test" }

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
