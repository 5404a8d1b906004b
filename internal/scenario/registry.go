package scenario

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/sander-remitly/plandash/internal/apperr"
	"go.uber.org/zap"
)

var viewPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// Registry lazily creates one Store per view
type Registry struct {
	loader Loader
	log    *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry
func NewRegistry(loader Loader, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		loader: loader,
		log:    log,
		stores: make(map[string]*Store),
	}
}

// Store returns the store of a view, creating it on first use
func (r *Registry) Store(view string) (*Store, error) {
	if !viewPattern.MatchString(view) {
		return nil, apperr.Validation("scenario.Store", "Unknown view name.")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[view]
	if !ok {
		s = NewStore(view, r.loader, r.log)
		r.stores[view] = s
	}
	return s, nil
}

// Views returns the names of the views that have a store
func (r *Registry) Views() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]string, 0, len(r.stores))
	for view := range r.stores {
		views = append(views, view)
	}
	sort.Strings(views)
	return views
}

// Delete deletes a scenario through the store of view and drops it from
// every other view as well
func (r *Registry) Delete(ctx context.Context, view, name string, confirmed bool) error {
	s, err := r.Store(view)
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, name, confirmed); err != nil {
		return err
	}

	r.mu.Lock()
	others := make([]*Store, 0, len(r.stores))
	for v, other := range r.stores {
		if v != view {
			others = append(others, other)
		}
	}
	r.mu.Unlock()

	for _, other := range others {
		other.forget(name)
	}
	return nil
}
