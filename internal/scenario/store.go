// Package scenario keeps the per-view scenario state: candidate names, the
// current selection and the load status of every selected scenario.
//
// Each fetch is tagged with a token from a monotonic counter. A response is
// applied only while its token is still the latest one issued for that slot,
// so a slow response can never overwrite a newer one.
package scenario

import (
	"context"
	"strings"
	"sync"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/validate"
	"go.uber.org/zap"
)

// Status is the load state of a scenario or of the candidate list
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// Loader is the subset of the gateway the store needs
type Loader interface {
	ListScenarios(ctx context.Context) ([]string, error)
	Scenario(ctx context.Context, name string) (*models.OptimizationResult, error)
	DeleteScenario(ctx context.Context, name string) error
}

type entry struct {
	status Status
	result *models.OptimizationResult
	err    error
	token  uint64
}

// Store is the scenario state of one view. It is safe for concurrent use.
type Store struct {
	view   string
	loader Loader
	log    *zap.Logger

	mu               sync.Mutex
	seq              uint64
	candidates       []string
	candidatesStatus Status
	candidatesErr    error
	candidatesToken  uint64
	selected         []string
	entries          map[string]*entry
}

// NewStore returns an empty store: nothing selected, no candidates, not loading
func NewStore(view string, loader Loader, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		view:             view,
		loader:           loader,
		log:              log.With(zap.String("view", view)),
		candidatesStatus: StatusIdle,
		entries:          make(map[string]*entry),
	}
}

func (s *Store) nextToken() uint64 {
	s.seq++
	return s.seq
}

// EnsureCandidates fetches the candidate list once. Later calls are no-ops
// until RefreshCandidates is called explicitly.
func (s *Store) EnsureCandidates(ctx context.Context) error {
	s.mu.Lock()
	status := s.candidatesStatus
	s.mu.Unlock()

	if status != StatusIdle {
		return nil
	}
	return s.RefreshCandidates(ctx)
}

// RefreshCandidates re-fetches the candidate scenario names. On failure the
// previous list is cleared.
func (s *Store) RefreshCandidates(ctx context.Context) error {
	s.mu.Lock()
	token := s.nextToken()
	s.candidatesToken = token
	s.candidatesStatus = StatusLoading
	s.candidatesErr = nil
	s.mu.Unlock()

	names, err := s.loader.ListScenarios(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.candidatesToken {
		s.log.Debug("Discarding stale scenario list", zap.Uint64("token", token))
		return err
	}

	if err != nil {
		s.candidates = nil
		s.candidatesStatus = StatusFailed
		s.candidatesErr = err
		s.log.Warn("Failed to load scenario list", zap.Error(err))
		return err
	}

	s.candidates = append([]string{}, names...)
	s.candidatesStatus = StatusLoaded
	return nil
}

// Select replaces the selection and loads every selected scenario. An empty
// selection clears all loaded results. The returned error is the first load
// failure; per-scenario failures are also recorded in the snapshot.
func (s *Store) Select(ctx context.Context, names []string) error {
	const op = "scenario.Select"

	selection := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if err := validate.ScenarioName(op, name); err != nil {
			return err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selection = append(selection, name)
	}

	s.mu.Lock()
	s.selected = selection
	tokens := make(map[string]uint64, len(selection))
	next := make(map[string]*entry, len(selection))
	for _, name := range selection {
		token := s.nextToken()
		tokens[name] = token
		next[name] = &entry{status: StatusLoading, token: token}
	}
	s.entries = next
	s.mu.Unlock()

	return s.load(ctx, tokens)
}

// Refresh reloads one selected scenario
func (s *Store) Refresh(ctx context.Context, name string) error {
	const op = "scenario.Refresh"

	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return apperr.Validation(op, "Select the scenario before refreshing it.")
	}
	token := s.nextToken()
	e.token = token
	e.status = StatusLoading
	e.err = nil
	s.mu.Unlock()

	return s.load(ctx, map[string]uint64{name: token})
}

// load fetches the given scenarios concurrently and applies each response
// only if its token is still current
func (s *Store) load(ctx context.Context, tokens map[string]uint64) error {
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	for name, token := range tokens {
		wg.Add(1)
		go func(name string, token uint64) {
			defer wg.Done()

			result, err := s.loader.Scenario(ctx, name)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}

			s.apply(name, token, result, err)
		}(name, token)
	}

	wg.Wait()
	return firstErr
}

func (s *Store) apply(name string, token uint64, result *models.OptimizationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok || e.token != token {
		s.log.Debug("Discarding stale scenario response",
			zap.String("scenario", name),
			zap.Uint64("token", token),
		)
		return
	}

	if err != nil {
		e.status = StatusFailed
		e.result = nil
		e.err = err
		s.log.Warn("Failed to load scenario",
			zap.String("scenario", name),
			zap.Error(err),
		)
		return
	}

	e.status = StatusLoaded
	e.result = result
	e.err = nil
}

// Delete removes a scenario on the service. confirmed must be true; without
// it no request is sent. Deleting a selected scenario resets the selection.
func (s *Store) Delete(ctx context.Context, name string, confirmed bool) error {
	const op = "scenario.Delete"

	if err := validate.ScenarioName(op, name); err != nil {
		return err
	}
	if !confirmed {
		return apperr.Validation(op, "Deleting a scenario requires confirmation.")
	}

	if err := s.loader.DeleteScenario(ctx, name); err != nil {
		return err
	}

	s.forget(name)
	s.log.Info("Scenario deleted", zap.String("scenario", name))
	return nil
}

// forget drops a deleted scenario from the local state
func (s *Store) forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candidates) > 0 {
		kept := s.candidates[:0:0]
		for _, c := range s.candidates {
			if c != name {
				kept = append(kept, c)
			}
		}
		s.candidates = kept
	}

	for _, sel := range s.selected {
		if sel == name {
			s.selected = nil
			s.entries = make(map[string]*entry)
			return
		}
	}
}
