// internal/app/store/revisions/store.go
package revisions

import (
	"context"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/store/storeutil"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when List is called with limit <= 0.
const DefaultLimit = storeutil.DefaultPageSize

// Store provides access to the registry_revisions collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new revisions store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registry_revisions")}
}

// Insert records a revision. CreatedAt defaults to now.
func (s *Store) Insert(ctx context.Context, rev models.Revision) (primitive.ObjectID, error) {
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, rev); err != nil {
		return primitive.NilObjectID, err
	}
	return rev.ID, nil
}

// List returns one 1-based page of revisions, newest first.
func (s *Store) List(ctx context.Context, limit, page int64) ([]models.Revision, error) {
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Revision{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes all but the newest keep revisions and returns how many were removed.
// keep <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keep int64) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(keep).
		SetProjection(bson.M{"_id": 1})

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
