package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CredentialsFile string        // path to the YAML credential seed file (optional, empty = API-registered keys only)
	ProviderBaseURL string        // search provider endpoint (empty = public YouTube Data API)
	ProviderTimeout time.Duration // per-provider-call HTTP timeout
	DefaultCount    int           // result count when the caller does not specify one
	TokenTTL        time.Duration // continuation token lifetime (default: 1h)
	ResetInterval   time.Duration // interval between background quota-reset passes
	SweepInterval   time.Duration // interval between page-token sweeps

	// Redis
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

	AllowedCIDRS []string // optional, restrict access to specific IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst  int // per-IP burst for the search endpoints
	RateLimitPerMin int // per-IP refill per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SCOUT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SCOUT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SCOUT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SCOUT_PRETTY_LOG", true),

		// Search engine
		CredentialsFile: getenv("SCOUT_CREDENTIALS_FILE", ""),
		ProviderBaseURL: getenv("SCOUT_PROVIDER_BASE_URL", ""),
		ProviderTimeout: mustDuration("SCOUT_PROVIDER_TIMEOUT", 30*time.Second),
		DefaultCount:    getenvInt("SCOUT_DEFAULT_COUNT", 50),
		TokenTTL:        mustDuration("SCOUT_TOKEN_TTL", time.Hour),
		ResetInterval:   mustDuration("SCOUT_RESET_INTERVAL", time.Hour),
		SweepInterval:   mustDuration("SCOUT_SWEEP_INTERVAL", 10*time.Minute),

		// Redis settings
		RedisAddr:             requireEnv("SCOUT_REDIS_ADDR"),
		RedisUser:             getenv("SCOUT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SCOUT_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("SCOUT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SCOUT_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("SCOUT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SCOUT_TRUST_PROXY", true),

		// Rate limiting
		RateLimitBurst:  getenvInt("SCOUT_RATE_LIMIT_BURST", 10),
		RateLimitPerMin: getenvInt("SCOUT_RATE_LIMIT_PER_MIN", 30),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SCOUT_REDIS_PASSWORD is required when SCOUT_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
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
