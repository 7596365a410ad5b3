// Package registrybackend stores the published registry document.
//
// Two backends exist: mongo keeps the document in the registry_documents
// collection, s3 keeps it as an object in a bucket. Both compare the
// caller's expected change-token against the stored one on commit.
package registrybackend

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

var (
	// ErrNotFound means no registry has been published yet.
	ErrNotFound = errors.New("registry not found")
	// ErrConflict means the stored change-token differs from the expected one.
	ErrConflict = errors.New("registry change-token mismatch")
)

// Backend reads and writes the registry document.
type Backend interface {
	// Name identifies the backend in logs and revisions.
	Name() string
	// Get returns the current document or ErrNotFound.
	Get(ctx context.Context) (*models.RegistryDocument, error)
	// Commit writes body. A non-empty expectedETag makes the write
	// conditional; a mismatch returns ErrConflict.
	Commit(ctx context.Context, body []byte, expectedETag string) (*models.RegistryDocument, error)
}
