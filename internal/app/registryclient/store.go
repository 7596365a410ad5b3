package registryclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// Source produces a freshly loaded registry. *Loader implements it.
type Source interface {
	Load(ctx context.Context) (*Result, error)
}

// State is a consistent snapshot of a Store.
type State struct {
	Registry    *models.Registry
	Loading     bool
	Err         error
	ChangeToken string
	SourceUsed  string
	Remote      bool
}

// Store holds the loaded registry for readers. Readers treat the registry
// as immutable; edits go through a cloned draft.
//
// The first Activate triggers exactly one load. After that, loads happen
// only on Refresh. Overlapping refreshes are not coalesced: whichever
// finishes last wins.
type Store struct {
	src    Source
	logger *zap.Logger

	mu          sync.RWMutex
	reg         *models.Registry
	err         error
	changeToken string
	sourceUsed  string
	remote      bool
	inflight    int

	activateOnce sync.Once
	activateErr  error
	closed       atomic.Bool
}

// NewStore creates a Store backed by src. Nothing is loaded until Activate.
func NewStore(src Source, logger *zap.Logger) *Store {
	return &Store{src: src, logger: logger}
}

// Activate performs the initial load once. Later calls return the result
// of that first load without loading again.
func (s *Store) Activate(ctx context.Context) error {
	s.activateOnce.Do(func() {
		s.activateErr = s.Refresh(ctx)
	})
	return s.activateErr
}

// Refresh reloads from the source and replaces the whole state. On failure
// the registry, change-token and source are cleared and the error kept.
// Results that arrive after Close are discarded.
func (s *Store) Refresh(ctx context.Context) error {
	return s.refresh(ctx, false)
}

// RefreshKeep is Refresh for background polling: on failure the error is
// recorded but the last loaded registry, change-token and source stay in place.
func (s *Store) RefreshKeep(ctx context.Context) error {
	return s.refresh(ctx, true)
}

func (s *Store) refresh(ctx context.Context, keep bool) error {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	res, err := s.src.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.closed.Load() {
		s.logger.Debug("discarding registry load result after close")
		return err
	}

	if err != nil {
		s.err = err
		if keep && s.reg != nil {
			s.logger.Warn("registry reload failed, keeping last loaded registry",
				zap.String("source", s.sourceUsed), zap.Error(err))
			return err
		}
		s.reg = nil
		s.changeToken = ""
		s.sourceUsed = ""
		s.remote = false
		return err
	}

	s.reg = res.Registry
	s.err = nil
	s.changeToken = res.ChangeToken
	s.sourceUsed = res.SourceUsed
	s.remote = res.Remote
	return nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Registry:    s.reg,
		Loading:     s.inflight > 0,
		Err:         s.err,
		ChangeToken: s.changeToken,
		SourceUsed:  s.sourceUsed,
		Remote:      s.remote,
	}
}

// Registry returns the loaded registry, or nil.
func (s *Store) Registry() *models.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// ChangeToken returns the token of the loaded registry, or "".
func (s *Store) ChangeToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changeToken
}

// IsRemote reports whether the loaded registry came from the remote source.
func (s *Store) IsRemote() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// SetChangeToken adopts a token returned by a commit when the refreshed
// source did not expose one.
func (s *Store) SetChangeToken(token string) {
	if token == "" || s.closed.Load() {
		return
	}
	s.mu.Lock()
	s.changeToken = token
	s.mu.Unlock()
}

// Close marks the store as gone. In-flight loads still run to completion
// but their results are dropped.
func (s *Store) Close() {
	s.closed.Store(true)
}
