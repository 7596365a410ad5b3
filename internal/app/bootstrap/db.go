// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dalemusser/stratacatalog/internal/app/store/revisions"
	"github.com/dalemusser/stratacatalog/internal/app/system/indexes"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/publisher"
	"github.com/dalemusser/stratacatalog/internal/app/system/registrybackend"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/dalemusser/stratacatalog/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// metricsNamespace prefixes every exported Prometheus series.
const metricsNamespace = "stratacatalog"

// ConnectDB connects to MongoDB, opens asset storage and S3, and builds
// the registry backend, upload signer and publisher on top of them.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Revisions:     revisions.New(db),
		Metrics:       metrics.New(prometheus.NewRegistry(), metricsNamespace),
	}

	if appCfg.RegistryBackend == "s3" || appCfg.StorageType == "s3" {
		deps.S3, err = newS3Client(ctx, appCfg.StorageS3Region)
		if err != nil {
			return DBDeps{}, err
		}
	}

	// Asset storage and the signer that writes into it
	switch appCfg.StorageType {
	case "s3":
		deps.FileStorage, err = storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		deps.Signer = signer.NewS3(s3.NewPresignClient(deps.S3), appCfg.StorageS3Bucket, appCfg.StorageS3Prefix, appCfg.SignExpiry)
		logger.Info("initialized S3 asset storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
	case "local", "":
		deps.FileStorage, err = storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		local, err := signer.NewLocal(appCfg.BaseURL, []byte(appCfg.UploadTokenKey), appCfg.SignExpiry)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize upload signer: %w", err)
		}
		deps.Signer = local
		deps.LocalSigner = local
		logger.Info("initialized local asset storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
	default:
		return DBDeps{}, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}

	// Registry backend
	var backend registrybackend.Backend
	switch appCfg.RegistryBackend {
	case "s3":
		backend = registrybackend.NewS3(deps.S3, appCfg.RegistryS3Bucket, appCfg.RegistryKey, appCfg.RegistryMaxBytes)
		logger.Info("registry stored in S3",
			zap.String("bucket", appCfg.RegistryS3Bucket),
			zap.String("key", appCfg.RegistryKey),
		)
	case "mongo":
		backend = registrybackend.NewMongo(db)
		logger.Info("registry stored in MongoDB")
	default:
		return DBDeps{}, fmt.Errorf("unknown registry backend: %s", appCfg.RegistryBackend)
	}

	deps.Publisher = publisher.New(backend, deps.Revisions, deps.Metrics, logger)
	return deps, nil
}

// newS3Client builds an S3 client from the default AWS credential chain.
func newS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 3
		o.RetryMode = aws.RetryModeStandard
	}), nil
}

// EnsureSchema attaches collection validators and creates indexes.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Validators first so indexes are created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
