package config

import "github.com/spf13/pflag"

// BindFlags registers command-line overrides; current cfg values (from env) are the defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "development mode")
	fs.StringVar(&cfg.CORSAllowOrigin, "cors-origin", cfg.CORSAllowOrigin, "Access-Control-Allow-Origin value")
	fs.BoolVar(&cfg.ExposeSensitiveHeaders, "expose-sensitive-headers", cfg.ExposeSensitiveHeaders, "publish webhook headers unmasked")
	fs.IntVar(&cfg.WebhookMaxBytes, "webhook-max-bytes", cfg.WebhookMaxBytes, "maximum accepted webhook body size")
	fs.StringVar(&cfg.UncorrelatedBucket, "uncorrelated-bucket", cfg.UncorrelatedBucket, "transaction id for webhooks without context (empty: broadcast only)")
	fs.IntVar(&cfg.SSEHeartbeatMs, "sse-heartbeat-ms", cfg.SSEHeartbeatMs, "SSE keepalive comment interval")
	fs.StringVar(&cfg.UCPBaseURL, "ucp-url", cfg.UCPBaseURL, "UCP server base URL (empty disables outbound calls)")
	fs.StringVar(&cfg.UCPPlatformProfile, "ucp-profile", cfg.UCPPlatformProfile, "platform profile URL sent in UCP-Agent")
	fs.StringVar(&cfg.UCPAPIKey, "ucp-api-key", cfg.UCPAPIKey, "X-UCP-API-Key value")
	fs.IntVar(&cfg.UCPTimeoutMs, "ucp-timeout-ms", cfg.UCPTimeoutMs, "outbound call timeout")
	fs.BoolVar(&cfg.InsecureTLS, "insecure-tls", cfg.InsecureTLS, "skip TLS verification for outbound calls")
	fs.StringSliceVar(&cfg.RedactHeaders, "redact-header", cfg.RedactHeaders, "extra header names masked in published deliveries")
}
