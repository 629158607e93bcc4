package observability

// Build metadata reported by /api/version and attached to logs.
// Set with -ldflags "-X ucp-debugger/internal/infrastructure/observability.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
)
