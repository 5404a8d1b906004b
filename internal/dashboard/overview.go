// Package dashboard loads the data every view starts from and builds the
// cross-endpoint views (inventory comparison).
package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"go.uber.org/zap"
)

// Section names one initial fetch
type Section string

const (
	SectionCurrent   Section = "current"
	SectionOriginal  Section = "original"
	SectionCatalog   Section = "catalog"
	SectionScenarios Section = "scenarios"
	SectionWarnings  Section = "warnings"
)

// Sections returns every initial section in display order
func Sections() []Section {
	return []Section{SectionCurrent, SectionOriginal, SectionCatalog, SectionScenarios, SectionWarnings}
}

// Source is the subset of the gateway the dashboard reads from
type Source interface {
	CurrentResult(ctx context.Context) (*models.OptimizationResult, error)
	OriginalPlan(ctx context.Context) (*models.OptimizationResult, error)
	ProductCatalog(ctx context.Context) (models.ProductsData, error)
	ListScenarios(ctx context.Context) ([]string, error)
	Warnings(ctx context.Context) ([]string, error)
	ActualInventory(ctx context.Context, start, end string) ([]models.ActualInventoryRecord, error)
}

// SectionState is the load status of one section
type SectionState struct {
	Loaded    bool        `json:"loaded"`
	Loading   bool        `json:"loading"`
	Error     string      `json:"error,omitempty"`
	Kind      apperr.Kind `json:"kind,omitempty"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`
}

// Overview is a copy of the initial data and its per-section state
type Overview struct {
	Current   *models.OptimizationResult `json:"-"`
	Original  *models.OptimizationResult `json:"-"`
	Catalog   models.ProductsData        `json:"-"`
	Scenarios []string                   `json:"scenarios"`
	Warnings  []string                   `json:"warnings"`

	Sections map[Section]SectionState `json:"sections"`
	// AllLoaded is set once every section has finished, successfully or not
	AllLoaded bool `json:"all_loaded"`
}

// Loader owns the initial data. Each section is written only by its own fetch.
type Loader struct {
	source Source
	log    *zap.Logger

	mu        sync.Mutex
	seq       uint64
	tokens    map[Section]uint64
	states    map[Section]SectionState
	current   *models.OptimizationResult
	original  *models.OptimizationResult
	catalog   models.ProductsData
	scenarios []string
	warnings  []string
}

// NewLoader creates a loader with every section idle
func NewLoader(source Source, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	states := make(map[Section]SectionState)
	for _, s := range Sections() {
		states[s] = SectionState{}
	}
	return &Loader{
		source: source,
		log:    log,
		tokens: make(map[Section]uint64),
		states: states,
	}
}

// IsSection reports whether s names an initial section
func IsSection(s string) bool {
	for _, sec := range Sections() {
		if string(sec) == s {
			return true
		}
	}
	return false
}

// LoadAll fetches every section concurrently and waits for all of them.
// A failing section never blocks the others; failures are recorded per section.
func (l *Loader) LoadAll(ctx context.Context) Overview {
	var wg sync.WaitGroup
	for _, s := range Sections() {
		wg.Add(1)
		go func(s Section) {
			defer wg.Done()
			l.load(ctx, s)
		}(s)
	}
	wg.Wait()
	return l.Snapshot()
}

// Retry reloads a single section
func (l *Loader) Retry(ctx context.Context, section Section) (Overview, error) {
	if !IsSection(string(section)) {
		return Overview{}, apperr.Validation("dashboard.Retry", "Unknown section.")
	}
	err := l.load(ctx, section)
	return l.Snapshot(), err
}

// Ensure loads the sections that have never been fetched
func (l *Loader) Ensure(ctx context.Context) Overview {
	l.mu.Lock()
	pending := make([]Section, 0)
	for _, s := range Sections() {
		st := l.states[s]
		if !st.Loaded && !st.Loading && st.Error == "" {
			pending = append(pending, s)
		}
	}
	l.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range pending {
		wg.Add(1)
		go func(s Section) {
			defer wg.Done()
			l.load(ctx, s)
		}(s)
	}
	wg.Wait()
	return l.Snapshot()
}

func (l *Loader) begin(section Section) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.tokens[section] = l.seq
	st := l.states[section]
	st.Loading = true
	st.Error = ""
	st.Kind = ""
	l.states[section] = st
	return l.seq
}

// finish applies a section result when token is still current. On failure
// the section data is cleared.
func (l *Loader) finish(section Section, token uint64, err error, apply func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tokens[section] != token {
		l.log.Debug("Discarding stale section response", zap.String("section", string(section)))
		return
	}

	st := SectionState{UpdatedAt: time.Now()}
	if err != nil {
		st.Error = apperr.Message(err)
		st.Kind = apperr.KindOf(err)
		l.clear(section)
		l.log.Warn("Failed to load dashboard section",
			zap.String("section", string(section)),
			zap.Error(err),
		)
	} else {
		st.Loaded = true
		apply()
	}
	l.states[section] = st
}

func (l *Loader) clear(section Section) {
	switch section {
	case SectionCurrent:
		l.current = nil
	case SectionOriginal:
		l.original = nil
	case SectionCatalog:
		l.catalog = nil
	case SectionScenarios:
		l.scenarios = nil
	case SectionWarnings:
		l.warnings = nil
	}
}

func (l *Loader) load(ctx context.Context, section Section) error {
	token := l.begin(section)

	switch section {
	case SectionCurrent:
		result, err := l.source.CurrentResult(ctx)
		l.finish(section, token, err, func() { l.current = result })
		return err
	case SectionOriginal:
		result, err := l.source.OriginalPlan(ctx)
		l.finish(section, token, err, func() { l.original = result })
		return err
	case SectionCatalog:
		catalog, err := l.source.ProductCatalog(ctx)
		l.finish(section, token, err, func() { l.catalog = catalog })
		return err
	case SectionScenarios:
		names, err := l.source.ListScenarios(ctx)
		l.finish(section, token, err, func() { l.scenarios = names })
		return err
	case SectionWarnings:
		warnings, err := l.source.Warnings(ctx)
		l.finish(section, token, err, func() { l.warnings = warnings })
		return err
	}
	return nil
}

// Invalidate marks sections as never fetched so the next Ensure reloads them
func (l *Loader) Invalidate(sections ...Section) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range sections {
		l.seq++
		l.tokens[s] = l.seq
		l.states[s] = SectionState{}
	}
}

// Snapshot copies the loaded data and section states
func (l *Loader) Snapshot() Overview {
	l.mu.Lock()
	defer l.mu.Unlock()

	ov := Overview{
		Current:   l.current,
		Original:  l.original,
		Catalog:   l.catalog,
		Scenarios: append([]string{}, l.scenarios...),
		Warnings:  append([]string{}, l.warnings...),
		Sections:  make(map[Section]SectionState, len(l.states)),
		AllLoaded: true,
	}
	for s, st := range l.states {
		ov.Sections[s] = st
		if st.Loading || (!st.Loaded && st.Error == "") {
			ov.AllLoaded = false
		}
	}
	return ov
}

// FailedSections lists the sections whose last fetch failed
func (o Overview) FailedSections() []Section {
	failed := make([]Section, 0)
	for s, st := range o.Sections {
		if st.Error != "" {
			failed = append(failed, s)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return failed
}
