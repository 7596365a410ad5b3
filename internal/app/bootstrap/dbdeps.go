// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dalemusser/stratacatalog/internal/app/store/revisions"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/publisher"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// S3 client, nil unless the registry or asset storage uses S3.
	S3 *s3.Client

	// Asset storage for uploaded images.
	FileStorage storage.Store

	// Signer issues upload destinations. LocalSigner is the same value
	// when uploads come back through this service, else nil.
	Signer      signer.Signer
	LocalSigner *signer.Local

	// Registry document, its commit history, and the counters around them.
	Publisher *publisher.Publisher
	Revisions *revisions.Store
	Metrics   *metrics.Metrics
}
