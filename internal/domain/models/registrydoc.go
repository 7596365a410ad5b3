package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegistryDocument is the stored form of the published registry.
// There is only one per site (singleton).
type RegistryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Singleton bool               `bson:"singleton"`
	Body      []byte             `bson:"body"`       // canonical JSON bytes
	ETag      string             `bson:"etag"`       // bare change-token, no quotes
	VersionID string             `bson:"version_id"` // id of the commit that produced Body
	UpdatedAt time.Time          `bson:"updated_at"`
}

// Revision records one successful registry commit.
type Revision struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	VersionID    string             `bson:"version_id" json:"versionId"`
	ETag         string             `bson:"etag" json:"etag"`
	PreviousETag string             `bson:"previous_etag,omitempty" json:"previousEtag,omitempty"`
	Backend      string             `bson:"backend" json:"backend"`
	Size         int                `bson:"size" json:"size"`
	BrandCount   int                `bson:"brand_count" json:"brandCount"`
	ItemCount    int                `bson:"item_count" json:"itemCount"`
	Retried      bool               `bson:"retried,omitempty" json:"retried,omitempty"`
	RemoteAddr   string             `bson:"remote_addr,omitempty" json:"remoteAddr,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
