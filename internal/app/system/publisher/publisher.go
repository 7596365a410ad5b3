// Package publisher owns the server's copy of the registry: it loads the
// document from the configured backend, keeps it in a registry store for
// readers, and commits new versions.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/registryclient"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/registrybackend"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RevisionRecorder stores commit history. *revisions.Store implements it.
type RevisionRecorder interface {
	Insert(ctx context.Context, rev models.Revision) (primitive.ObjectID, error)
}

// ConflictError is a commit rejected because the stored change-token moved.
type ConflictError struct {
	Expected string
	Current  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry changed: expected %q, current %q", e.Expected, e.Current)
}

func (e *ConflictError) Unwrap() error { return registrybackend.ErrConflict }

// Publisher loads and commits the registry.
type Publisher struct {
	backend   registrybackend.Backend
	revisions RevisionRecorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	store     *registryclient.Store

	mu  sync.RWMutex
	doc *models.RegistryDocument
}

// New creates a Publisher. revisions may be nil.
func New(backend registrybackend.Backend, revisions RevisionRecorder, m *metrics.Metrics, logger *zap.Logger) *Publisher {
	p := &Publisher{backend: backend, revisions: revisions, metrics: m, logger: logger}
	p.store = registryclient.NewStore(p, logger)
	return p
}

// Store is the registry store readers use.
func (p *Publisher) Store() *registryclient.Store { return p.store }

// Backend returns the backend name.
func (p *Publisher) Backend() string { return p.backend.Name() }

// Load reads and parses the stored document. It implements registryclient.Source.
func (p *Publisher) Load(ctx context.Context) (*registryclient.Result, error) {
	doc, err := p.backend.Get(ctx)
	if err != nil {
		if errors.Is(err, registrybackend.ErrNotFound) {
			p.setDoc(nil)
		}
		p.metrics.Load(metrics.OutcomeError)
		return nil, fmt.Errorf("load registry from %s: %w", p.backend.Name(), err)
	}
	reg, err := registry.Parse(doc.Body)
	if err != nil {
		p.metrics.Load(metrics.OutcomeMalformed)
		return nil, fmt.Errorf("load registry from %s: %w", p.backend.Name(), err)
	}
	p.setDoc(doc)
	p.metrics.Load(metrics.OutcomeOK)
	p.metrics.SetItems(reg.ItemCount())

	return &registryclient.Result{
		Registry:    reg,
		ChangeToken: doc.ETag,
		SourceUsed:  p.backend.Name(),
		Remote:      true,
		Body:        doc.Body,
	}, nil
}

// Document returns the stored document, from memory when it has been
// loaded, else from the backend. It returns registrybackend.ErrNotFound
// when nothing has been committed.
func (p *Publisher) Document(ctx context.Context) (*models.RegistryDocument, error) {
	p.mu.RLock()
	doc := p.doc
	p.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	doc, err := p.backend.Get(ctx)
	if err != nil {
		return nil, err
	}
	p.setDoc(doc)
	return doc, nil
}

func (p *Publisher) setDoc(doc *models.RegistryDocument) {
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
}

// CommitInput is one commit request.
type CommitInput struct {
	Registry     *models.Registry
	ExpectedETag string
	Retried      bool
	RemoteAddr   string
}

// Commit validates and stores in.Registry. Text is stored as sent.
//
// Validation failures are returned as *registry.ValidationError. A stale
// expected change-token returns *ConflictError. On success a revision is
// recorded and the store is refreshed; failures of either are logged only.
func (p *Publisher) Commit(ctx context.Context, in CommitInput) (*models.RegistryDocument, error) {
	reg := in.Registry.Clone()
	if err := registry.ValidateDraft(reg); err != nil {
		p.metrics.Commit(metrics.OutcomeInvalid)
		return nil, err
	}

	body, err := json.Marshal(reg)
	if err != nil {
		p.metrics.Commit(metrics.OutcomeError)
		return nil, fmt.Errorf("encode registry: %w", err)
	}

	previous := p.store.ChangeToken()
	expected := etag.Normalize(in.ExpectedETag)

	doc, err := p.backend.Commit(ctx, body, expected)
	if errors.Is(err, registrybackend.ErrConflict) {
		p.metrics.Commit(metrics.OutcomeConflict)
		current := ""
		if cur, gerr := p.backend.Get(ctx); gerr == nil {
			current = cur.ETag
		}
		p.logger.Info("registry commit rejected: change-token mismatch",
			zap.String("expected", expected),
			zap.String("current", current))
		return nil, &ConflictError{Expected: expected, Current: current}
	}
	if err != nil {
		p.metrics.Commit(metrics.OutcomeError)
		return nil, fmt.Errorf("commit registry to %s: %w", p.backend.Name(), err)
	}
	p.metrics.Commit(metrics.OutcomeOK)
	p.setDoc(doc)

	if p.revisions != nil {
		rev := models.Revision{
			VersionID:    doc.VersionID,
			ETag:         doc.ETag,
			PreviousETag: previous,
			Backend:      p.backend.Name(),
			Size:         len(body),
			BrandCount:   reg.Brands.Len(),
			ItemCount:    reg.ItemCount(),
			Retried:      in.Retried,
			RemoteAddr:   in.RemoteAddr,
		}
		if _, err := p.revisions.Insert(ctx, rev); err != nil {
			p.logger.Warn("failed to record registry revision", zap.Error(err))
		}
	}

	if err := p.store.Refresh(ctx); err != nil {
		p.logger.Warn("registry store refresh after commit failed", zap.Error(err))
	}

	p.logger.Info("registry committed",
		zap.String("backend", p.backend.Name()),
		zap.String("etag", doc.ETag),
		zap.String("version_id", doc.VersionID),
		zap.Int("bytes", len(body)),
		zap.Int("items", reg.ItemCount()))
	return doc, nil
}
