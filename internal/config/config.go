package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	BaseURL      string
	CookieSecure bool

	// FetchTimeout bounds every profile and session lookup.
	FetchTimeout time.Duration

	Access AccessConfig
}

type AccessConfig struct {
	SeedAdminEmails           []string
	AdminBypassesVerification bool
	AuthenticatedPaths        []string
	ContributorPaths          []string
	LoginPath                 string
	HomePath                  string
}

var (
	defaultAuthenticatedPaths = []string{"/dashboard", "/profile/edit", "/posts/new", "/saved"}
	defaultContributorPaths   = []string{"/cms"}
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	fetchTimeout, err := time.ParseDuration(getEnv("FETCH_TIMEOUT", "10s"))
	if err != nil || fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		FetchTimeout: fetchTimeout,

		Access: loadAccess(),
	}, nil
}

// ClientConfig configures reboot-cli. It shares the access settings with the
// server so both layers gate the same paths.
type ClientConfig struct {
	APIURL       string
	CachePath    string
	LogLevel     string
	FetchTimeout time.Duration
	Access       AccessConfig
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	fetchTimeout, err := time.ParseDuration(getEnv("FETCH_TIMEOUT", "10s"))
	if err != nil || fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &ClientConfig{
		APIURL:       getEnv("REBOOT_API_URL", "http://localhost:8080"),
		CachePath:    getEnv("REBOOT_SESSION_FILE", ""),
		LogLevel:     getEnv("LOG_LEVEL", "warn"),
		FetchTimeout: fetchTimeout,
		Access:       loadAccess(),
	}
}

func loadAccess() AccessConfig {
	return AccessConfig{
		SeedAdminEmails:           getEnvList("SEED_ADMIN_EMAILS", nil),
		AdminBypassesVerification: getEnvBool("ADMIN_BYPASSES_VERIFICATION", false),
		AuthenticatedPaths:        getEnvList("AUTHENTICATED_PATHS", defaultAuthenticatedPaths),
		ContributorPaths:          getEnvList("CONTRIBUTOR_PATHS", defaultContributorPaths),
		LoginPath:                 getEnv("LOGIN_PATH", "/login"),
		HomePath:                  getEnv("HOME_PATH", "/"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
