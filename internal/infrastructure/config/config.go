package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr            string
	LogLevel        string
	DevMode         bool
	CORSAllowOrigin string
	// Headers of inbound webhooks are published as-is unless disabled.
	ExposeSensitiveHeaders bool
	WebhookMaxBytes        int
	// Reserved transaction for webhooks without correlation context; empty only broadcasts them.
	UncorrelatedBucket string
	SSEHeartbeatMs     int

	// Outbound UCP client
	UCPBaseURL         string
	UCPPlatformProfile string
	UCPAPIKey          string
	UCPTimeoutMs       int
	InsecureTLS        bool
	// Extra header names masked when publishing deliveries (comma separated in env).
	RedactHeaders []string
}

func FromEnv() Config {
	cfg := Config{
		Addr:            getEnv("ADDR", ":5173"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
	}
	cfg.DevMode = getEnvBool("DEV_MODE", false)
	// default: expose sensitive headers unless explicitly disabled
	cfg.ExposeSensitiveHeaders = getEnvBool("EXPOSE_SENSITIVE_HEADERS", true)
	cfg.WebhookMaxBytes = getEnvInt("WEBHOOK_MAX_BYTES", 4<<20)
	cfg.UncorrelatedBucket = os.Getenv("UNCORRELATED_BUCKET")
	if _, set := os.LookupEnv("UNCORRELATED_BUCKET"); !set {
		cfg.UncorrelatedBucket = "uncorrelated"
	}
	cfg.SSEHeartbeatMs = getEnvInt("SSE_HEARTBEAT_MS", 15000)

	cfg.UCPBaseURL = getEnv("UCP_BASE_URL", "http://localhost:8080")
	cfg.UCPPlatformProfile = getEnv("UCP_PLATFORM_PROFILE", "https://ucp-browser.local/profile")
	cfg.UCPAPIKey = getEnv("UCP_API_KEY", "")
	cfg.UCPTimeoutMs = getEnvInt("UCP_TIMEOUT_MS", 30000)
	cfg.InsecureTLS = getEnvBool("INSECURE_TLS", false)
	if v := strings.TrimSpace(os.Getenv("REDACT_HEADERS")); v != "" {
		cfg.RedactHeaders = splitCSV(v)
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

// splitCSV splits comma-separated tokens trimming whitespace and skipping empties.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
