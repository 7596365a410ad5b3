// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from environment variables (STRATACATALOG_*), configuration
// files, or command-line flags (loaded in LoadConfig). Framework settings
// such as ports, TLS, logging level and CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Public origin of this service, used for local upload URLs.
	BaseURL string

	// Admin API credentials. Either may be set; a match on either is accepted.
	AdminToken     string // plain shared token
	AdminTokenHash string // bcrypt hash of the token

	// Where the authoritative registry document lives.
	RegistryBackend  string        // "mongo" or "s3"
	RegistryS3Bucket string        // bucket for the s3 backend (blank means StorageS3Bucket)
	RegistryKey      string        // object key for the s3 backend
	RegistryMaxBytes int64         // largest accepted registry document
	RegistryRefresh  time.Duration // how often the server re-reads the backend

	// Asset storage configuration
	StorageType      string // "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Upload signing
	UploadTokenKey string        // securecookie hash key for local upload tokens
	SignExpiry     time.Duration // lifetime of a signed upload URL
	MaxUploadBytes int64         // largest accepted asset upload

	// API CORS origins for the admin surface (blank means any origin).
	APICORSOrigins []string

	// Commit history
	RevisionRetention int64 // revisions kept by the prune task (0 disables pruning)

	// Request and outbound timeouts
	HTTPTimeout    time.Duration // per-request handler timeout
	CommitTimeout  time.Duration // backend commit bound
	RequestTimeout time.Duration // backend reads and signing
}
