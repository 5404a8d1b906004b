package scenario

import (
	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/pipeline"
)

// EntrySnapshot is the state of one selected scenario
type EntrySnapshot struct {
	Name    string                     `json:"name"`
	Status  Status                     `json:"status"`
	Result  *models.OptimizationResult `json:"-"`
	Error   string                     `json:"error,omitempty"`
	Kind    apperr.Kind                `json:"kind,omitempty"`
	Loading bool                       `json:"loading"`
}

// Snapshot is a consistent copy of a store's state
type Snapshot struct {
	View             string          `json:"view"`
	Candidates       []string        `json:"candidates"`
	CandidatesStatus Status          `json:"candidates_status"`
	CandidatesError  string          `json:"candidates_error,omitempty"`
	Selected         []string        `json:"selected"`
	Entries          []EntrySnapshot `json:"entries"`
	Loading          bool            `json:"loading"`
}

// Snapshot copies the current state. Entries follow the selection order.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		View:             s.view,
		Candidates:       append([]string{}, s.candidates...),
		CandidatesStatus: s.candidatesStatus,
		CandidatesError:  apperr.Message(s.candidatesErr),
		Selected:         append([]string{}, s.selected...),
		Entries:          make([]EntrySnapshot, 0, len(s.selected)),
		Loading:          s.candidatesStatus == StatusLoading,
	}

	for _, name := range s.selected {
		e, ok := s.entries[name]
		if !ok {
			continue
		}
		es := EntrySnapshot{
			Name:    name,
			Status:  e.status,
			Result:  e.result,
			Loading: e.status == StatusLoading,
		}
		if e.err != nil {
			es.Error = apperr.Message(e.err)
			es.Kind = apperr.KindOf(e.err)
		}
		if es.Loading {
			snap.Loading = true
		}
		snap.Entries = append(snap.Entries, es)
	}

	return snap
}

// Result returns the loaded result of a selected scenario, or nil
func (s *Store) Result(name string) *models.OptimizationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok && e.status == StatusLoaded {
		return e.result
	}
	return nil
}

// Comparison compares every other loaded selection against the first
// selected scenario. It is empty until the baseline is loaded.
func (s *Store) Comparison(f format.Formatter) []models.ScenarioComparison {
	snap := s.Snapshot()
	comparisons := make([]models.ScenarioComparison, 0)

	if len(snap.Entries) == 0 {
		return comparisons
	}
	baseline := snap.Entries[0]
	if baseline.Status != StatusLoaded || baseline.Result == nil {
		return comparisons
	}

	for _, candidate := range snap.Entries[1:] {
		if candidate.Status != StatusLoaded || candidate.Result == nil {
			continue
		}
		comparisons = append(comparisons, pipeline.CompareSummaries(f,
			baseline.Name, baseline.Result.Summary,
			candidate.Name, candidate.Result.Summary,
		))
	}
	return comparisons
}
