package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

// Store drivers.
const (
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	IngestTimeout   time.Duration // upper bound for one POST /api/bookmarks (ex: 30s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON); defaults to stdout being a TTY

	// Auth (tokens are issued by the hosted auth provider)
	JWTSecret   string // HS256 secret shared with the auth provider
	JWTIssuer   string // optional, checked when set
	JWTAudience string // optional, checked when set
	AuthCookie  string // cookie holding the access token when no Authorization header is sent

	// Enrichment
	GeminiAPIKey           string        // optional, empty => every save uses fallback metadata
	GeminiModel            string        // ex: "gemini-2.5-flash"
	GeminiBaseURL          string        // optional API endpoint override
	GeminiTimeout          time.Duration // per model call
	FetchPageContent       bool          // include a page text preview in the prompt
	PageFetchTimeout       time.Duration // fixed short timeout for the page preview (ex: 5s)
	MinDuplicateConfidence int           // inclusive threshold for model reported duplicates (ex: 75)
	MaxExistingSummaries   int           // existing bookmarks shown to the model (ex: 20)

	// Storage
	StoreDriver string // "redis" | "sqlite" | "postgres" | "memory"
	DatabaseURL string // DSN for sqlite/postgres

	// Redis (store when StoreDriver=redis, change feed whenever RedisAddr is set)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Ingestion rate limit, per client IP
	IngestBurst        int // bucket size
	IngestRefillPerMin int // tokens added per minute

	// Homepage bookmarks import (optional)
	ImportFile     string        // path to a Homepage bookmarks.yaml, empty = import disabled
	ImportOwner    string        // owner id the imported bookmarks are saved for
	ImportInterval time.Duration // periodic re-import (ex: 24h)

	AllowedHosts []string // optional, restrict operational routes to specific Host headers
	AllowedCIDRS []string // optional, restrict operational routes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SMARTMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SMARTMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		IngestTimeout:   mustDuration("SMARTMARK_INGEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("SMARTMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SMARTMARK_PRETTY_LOG", isatty.IsTerminal(os.Stdout.Fd())),

		// Auth
		JWTSecret:   requireEnv("SMARTMARK_JWT_SECRET"),
		JWTIssuer:   getenv("SMARTMARK_JWT_ISSUER", ""),
		JWTAudience: getenv("SMARTMARK_JWT_AUDIENCE", ""),
		AuthCookie:  getenv("SMARTMARK_AUTH_COOKIE", "sb-access-token"),

		// Enrichment
		GeminiAPIKey:           getenv("SMARTMARK_GEMINI_API_KEY", ""),
		GeminiModel:            getenv("SMARTMARK_GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:          getenv("SMARTMARK_GEMINI_BASE_URL", ""),
		GeminiTimeout:          mustDuration("SMARTMARK_GEMINI_TIMEOUT", 20*time.Second),
		FetchPageContent:       mustBool("SMARTMARK_FETCH_PAGE_CONTENT", true),
		PageFetchTimeout:       mustDuration("SMARTMARK_PAGE_FETCH_TIMEOUT", 5*time.Second),
		MinDuplicateConfidence: getenvInt("SMARTMARK_DUPLICATE_MIN_CONFIDENCE", 75),
		MaxExistingSummaries:   getenvInt("SMARTMARK_MAX_EXISTING_BOOKMARKS", 20),

		// Storage
		StoreDriver: strings.ToLower(getenv("SMARTMARK_STORE_DRIVER", DriverRedis)),
		DatabaseURL: getenv("SMARTMARK_DATABASE_URL", "file:smartmark.db"),

		// Redis settings
		RedisAddr:             getenv("SMARTMARK_REDIS_ADDR", ""),
		RedisUser:             getenv("SMARTMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SMARTMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SMARTMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SMARTMARK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Rate limit
		IngestBurst:        getenvInt("SMARTMARK_INGEST_BURST", 10),
		IngestRefillPerMin: getenvInt("SMARTMARK_INGEST_REFILL_PER_MIN", 30),

		// Import
		ImportFile:     getenv("SMARTMARK_IMPORT_FILE", ""),
		ImportOwner:    getenv("SMARTMARK_IMPORT_OWNER", ""),
		ImportInterval: mustDuration("SMARTMARK_IMPORT_INTERVAL", 24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SMARTMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SMARTMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SMARTMARK_TRUST_PROXY", false),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// validate checks the cross-field rules Load cannot express with defaults.
func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("SMARTMARK_REDIS_ADDR is required when SMARTMARK_STORE_DRIVER=redis")
		}
	case DriverSQLite, DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("SMARTMARK_DATABASE_URL is required when SMARTMARK_STORE_DRIVER=%s", c.StoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown SMARTMARK_STORE_DRIVER %q (want redis, sqlite, postgres or memory)", c.StoreDriver)
	}

	if c.RedisAddr != "" && c.RedisPasswordRequired && c.RedisPassword == "" {
		return errors.New("SMARTMARK_REDIS_PASSWORD is required when SMARTMARK_REDIS_PASSWORD_REQUIRED=true")
	}

	if c.MinDuplicateConfidence < 0 || c.MinDuplicateConfidence > 100 {
		return fmt.Errorf("SMARTMARK_DUPLICATE_MIN_CONFIDENCE must be within 0..100, got %d", c.MinDuplicateConfidence)
	}

	if c.ImportFile != "" && c.ImportOwner == "" {
		return errors.New("SMARTMARK_IMPORT_OWNER is required when SMARTMARK_IMPORT_FILE is set")
	}

	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	cfgCopy.JWTSecret = "***REDACTED***"
	cfgCopy.RedisPassword = "***REDACTED***"
	if cfgCopy.GeminiAPIKey != "" {
		cfgCopy.GeminiAPIKey = "***REDACTED***"
	}
	if c.RedisUser != "" {
		cfgCopy.RedisUser = "***REDACTED***"
	}
	return cfgCopy
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
