// internal/app/store/registrydoc/store.go
package registrydoc

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no registry has been committed yet.
	ErrNotFound = errors.New("registry document not found")
	// ErrETagMismatch is returned when the stored etag differs from the expected one.
	ErrETagMismatch = errors.New("registry etag mismatch")
)

// Store provides access to the registry_documents collection.
// There is one registry document per site (singleton).
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new registry document store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registry_documents"), now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the stored registry document.
func (s *Store) Get(ctx context.Context) (*models.RegistryDocument, error) {
	var doc models.RegistryDocument
	err := s.c.FindOne(ctx, bson.M{"singleton": true}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Put stores body as the new registry.
//
// When expectedETag is non-empty the write only happens if the stored
// document still carries that etag; otherwise ErrETagMismatch is returned.
// An empty expectedETag writes unconditionally.
func (s *Store) Put(ctx context.Context, body []byte, expectedETag string) (*models.RegistryDocument, error) {
	doc := models.RegistryDocument{
		Singleton: true,
		Body:      body,
		ETag:      etag.Compute(body),
		VersionID: uuid.NewString(),
		UpdatedAt: s.now(),
	}
	set := bson.M{
		"singleton":  true,
		"body":       doc.Body,
		"etag":       doc.ETag,
		"version_id": doc.VersionID,
		"updated_at": doc.UpdatedAt,
	}

	if expectedETag == "" {
		update := bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"singleton": true}, update, options.Update().SetUpsert(true)); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	filter := bson.M{"singleton": true, "etag": etag.Normalize(expectedETag)}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrETagMismatch
	}
	return &doc, nil
}
