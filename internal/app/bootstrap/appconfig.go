// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: whosin-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Durable profile cache snapshot. Blank disables the snapshot file;
	// the cache then lives in memory only.
	CachePath string

	// Base URL for OAuth callbacks, e.g. "http://localhost:8080".
	BaseURL string

	// Google OAuth configuration. Both blank disables Google sign-in.
	GoogleClientID     string
	GoogleClientSecret string
}
