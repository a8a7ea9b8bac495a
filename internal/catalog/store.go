// internal/catalog/store.go
package catalog

import (
	"strings"
	"sync/atomic"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/models"
)

// snapshot is one immutable generation of the loaded catalog. Condition
// records are never mutated after load; a reload builds a whole new
// snapshot and swaps the pointer, so in-flight evaluations keep reading
// the generation they started with.
type snapshot struct {
	conditions []*models.Condition
	byCode     map[string]*models.Condition
}

// Stats summarizes the loaded catalog for introspection endpoints.
type Stats struct {
	Total      int            `json:"total"`
	ByStage    map[string]int `json:"byStage"`
	ByType     map[string]int `json:"byType"`
	ByClass    map[string]int `json:"byClass"`
	ByLoanType map[string]int `json:"byLoanType"`
}

// Store holds the active catalog snapshot and answers read queries over it.
type Store struct {
	loader  *Loader
	logger  logger.Logger
	current atomic.Pointer[snapshot]
}

func NewStore(loader *Loader, log logger.Logger) *Store {
	return &Store{loader: loader, logger: log}
}

// Load reads the catalog and installs it as the active snapshot. Safe to
// call again at any time; readers see either the old generation or the new
// one, never a mix.
func (s *Store) Load() error {
	conditions, err := s.loader.Load()
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("failure").Inc()
		return err
	}

	snap := &snapshot{
		conditions: conditions,
		byCode:     make(map[string]*models.Condition, len(conditions)),
	}
	for _, c := range conditions {
		snap.byCode[c.Code] = c
	}
	s.current.Store(snap)
	metrics.CatalogReloads.WithLabelValues("success").Inc()
	return nil
}

// Loaded reports whether a snapshot has been installed.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Conditions returns the active snapshot's condition list. The returned
// slice and its records must be treated as read-only.
func (s *Store) Conditions() ([]*models.Condition, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}
	return snap.conditions, nil
}

// Lookup finds one condition by its code.
func (s *Store) Lookup(code string) (*models.Condition, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}
	cond, ok := snap.byCode[code]
	if !ok {
		return nil, apperrors.NewConditionNotFoundError(code)
	}
	return cond, nil
}

// Search returns conditions whose code, name, description, or rule text
// contains the term, case-insensitively.
func (s *Store) Search(term string) ([]*models.Condition, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}

	var out []*models.Condition
	for _, c := range snap.conditions {
		if strings.Contains(strings.ToLower(c.Code), term) ||
			strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.DescriptionTemplate), term) ||
			strings.Contains(strings.ToLower(c.RuleText), term) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByStage returns the conditions cleared in the given stage.
func (s *Store) ByStage(stage models.Stage) ([]*models.Condition, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}
	var out []*models.Condition
	for _, c := range snap.conditions {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByLoanType returns the conditions whose supported set admits the type.
func (s *Store) ByLoanType(lt models.LoanType) ([]*models.Condition, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}
	var out []*models.Condition
	for _, c := range snap.conditions {
		if c.SupportedLoanTypes.Contains(lt) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Stats aggregates counts over the active snapshot.
func (s *Store) Stats() (*Stats, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewCatalogNotLoadedError()
	}

	stats := &Stats{
		Total:      len(snap.conditions),
		ByStage:    make(map[string]int),
		ByType:     make(map[string]int),
		ByClass:    make(map[string]int),
		ByLoanType: make(map[string]int),
	}
	for _, c := range snap.conditions {
		stats.ByStage[string(c.Stage)]++
		stats.ByType[c.Type]++
		stats.ByClass[c.ClassTag]++
		for _, lt := range c.SupportedLoanTypes.Slice() {
			stats.ByLoanType[string(lt)]++
		}
	}
	return stats, nil
}
