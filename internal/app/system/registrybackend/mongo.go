package registrybackend

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacatalog/internal/app/store/registrydoc"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo keeps the registry in MongoDB.
type Mongo struct {
	store *registrydoc.Store
}

// NewMongo creates a Mongo backend on db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{store: registrydoc.New(db)}
}

func (m *Mongo) Name() string { return "mongo" }

func (m *Mongo) Get(ctx context.Context) (*models.RegistryDocument, error) {
	doc, err := m.store.Get(ctx)
	if errors.Is(err, registrydoc.ErrNotFound) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (m *Mongo) Commit(ctx context.Context, body []byte, expectedETag string) (*models.RegistryDocument, error) {
	doc, err := m.store.Put(ctx, body, expectedETag)
	if errors.Is(err, registrydoc.ErrETagMismatch) {
		return nil, ErrConflict
	}
	return doc, err
}
