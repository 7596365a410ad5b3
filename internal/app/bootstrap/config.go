// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATACATALOG"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, registry_backend, etc.
//   - Environment variables: STRATACATALOG_MONGO_URI, STRATACATALOG_REGISTRY_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --registry_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratacatalog", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public origin of this service (used in local upload URLs)"},

	// Admin API credentials
	{Name: "admin_token", Default: "", Desc: "Shared admin token for /api/admin (dev; prefer admin_token_hash)"},
	{Name: "admin_token_hash", Default: "", Desc: "bcrypt hash of the admin token"},

	// Registry document
	{Name: "registry_backend", Default: "mongo", Desc: "Where the registry lives: 'mongo' or 's3'"},
	{Name: "registry_s3_bucket", Default: "", Desc: "S3 bucket for the registry (blank uses storage_s3_bucket)"},
	{Name: "registry_key", Default: "CONTENT/registry.json", Desc: "Object key of the registry in S3"},
	{Name: "max_registry_bytes", Default: 16 << 20, Desc: "Largest accepted registry document in bytes"},
	{Name: "registry_refresh_interval", Default: "1m", Desc: "How often the server re-reads the registry backend"},

	// Asset storage configuration
	{Name: "storage_type", Default: "local", Desc: "Asset storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded assets"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local assets"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Upload signing
	{Name: "upload_token_key", Default: "dev-only-upload-key-change-me-0123456789ABCDEF", Desc: "Key for signing local upload tokens (32+ chars in production)"},
	{Name: "sign_expiry", Default: "15m", Desc: "Lifetime of a signed upload URL"},
	{Name: "max_upload_bytes", Default: 25 << 20, Desc: "Largest accepted asset upload in bytes"},

	{Name: "api_cors_origins", Default: "", Desc: "Comma-separated origins allowed to call /api/admin (blank allows any)"},

	// Commit history
	{Name: "revision_retention", Default: 200, Desc: "Registry revisions to keep (0 keeps all)"},

	// Timeouts
	{Name: "http_timeout", Default: "30s", Desc: "Per-request handler timeout"},
	{Name: "request_timeout", Default: "15s", Desc: "Timeout for registry backend reads and signing"},
	{Name: "commit_timeout", Default: "30s", Desc: "Timeout for registry commits"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// STRATACATALOG_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),

		AdminToken:     appValues.String("admin_token"),
		AdminTokenHash: appValues.String("admin_token_hash"),

		// Registry
		RegistryBackend:  strings.ToLower(strings.TrimSpace(appValues.String("registry_backend"))),
		RegistryS3Bucket: appValues.String("registry_s3_bucket"),
		RegistryKey:      appValues.String("registry_key"),
		RegistryMaxBytes: int64(appValues.Int("max_registry_bytes")),
		RegistryRefresh:  appValues.Duration("registry_refresh_interval", time.Minute),

		// Asset storage
		StorageType:      strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		// S3/CloudFront
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		// Upload signing
		UploadTokenKey: appValues.String("upload_token_key"),
		SignExpiry:     appValues.Duration("sign_expiry", 15*time.Minute),
		MaxUploadBytes: int64(appValues.Int("max_upload_bytes")),

		APICORSOrigins: splitList(appValues.String("api_cors_origins")),

		RevisionRetention: int64(appValues.Int("revision_retention")),

		HTTPTimeout:    appValues.Duration("http_timeout", 30*time.Second),
		RequestTimeout: appValues.Duration("request_timeout", 15*time.Second),
		CommitTimeout:  appValues.Duration("commit_timeout", 30*time.Second),
	}

	if appCfg.RegistryS3Bucket == "" {
		appCfg.RegistryS3Bucket = appCfg.StorageS3Bucket
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI, an unknown registry backend or
// storage type, S3 settings without a bucket, and a production config
// that leaves the admin API without a credential.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateApp(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateApp(env string, appCfg AppConfig) error {
	var problems []string

	switch appCfg.RegistryBackend {
	case "mongo":
	case "s3":
		if appCfg.RegistryS3Bucket == "" {
			problems = append(problems, "registry_backend s3 requires registry_s3_bucket or storage_s3_bucket")
		}
		if appCfg.RegistryKey == "" {
			problems = append(problems, "registry_backend s3 requires registry_key")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown registry_backend %q (want mongo or s3)", appCfg.RegistryBackend))
	}

	switch appCfg.StorageType {
	case "local", "":
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			problems = append(problems, "storage_type s3 requires storage_s3_bucket")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage_type %q (want local or s3)", appCfg.StorageType))
	}

	if env == "prod" {
		if appCfg.AdminToken == "" && appCfg.AdminTokenHash == "" {
			problems = append(problems, "admin_token or admin_token_hash is required in prod")
		}
		if appCfg.StorageType != "s3" && len(appCfg.UploadTokenKey) < 32 {
			problems = append(problems, "upload_token_key must be at least 32 characters in prod")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
