// Package stats holds the immutable locality price statistics every
// scoring call reads from.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"fairprice/models"
)

// Store is read-only after New returns and safe for concurrent use.
type Store struct {
	global     models.GlobalStatistics
	states     []string
	validState map[string]struct{}
	localities map[string]models.LocalityStatistics
	density    map[string]float64
	byState    map[string][]string
	members    map[string]map[string]struct{}
}

// New validates a snapshot and builds a Store from it. The snapshot is
// copied; later changes to it do not affect the Store.
func New(snap *models.StatisticsSnapshot) (*Store, error) {
	if snap == nil {
		return nil, errors.New("stats: nil snapshot")
	}
	if len(snap.Global.ValidStates) == 0 {
		return nil, errors.New("stats: no valid states")
	}
	if !finite(snap.Global.BedroomMean) || !finite(snap.Global.BathroomMean) {
		return nil, errors.New("stats: global means must be finite")
	}

	s := &Store{
		global:     snap.Global,
		validState: make(map[string]struct{}, len(snap.Global.ValidStates)),
		localities: make(map[string]models.LocalityStatistics, len(snap.Localities)),
		density:    make(map[string]float64),
		byState:    make(map[string][]string, len(snap.StateLocalities)),
		members:    make(map[string]map[string]struct{}, len(snap.StateLocalities)),
	}

	for _, st := range snap.Global.ValidStates {
		if _, dup := s.validState[st]; dup {
			continue
		}
		s.validState[st] = struct{}{}
		s.states = append(s.states, st)
	}
	sort.Strings(s.states)
	s.global.ValidStates = append([]string(nil), s.states...)

	for _, loc := range snap.Localities {
		if loc.Locality == "" {
			return nil, errors.New("stats: locality record without a name")
		}
		if _, dup := s.localities[loc.Locality]; dup {
			return nil, fmt.Errorf("stats: duplicate locality %q", loc.Locality)
		}
		// Non-finite or negative medians are kept so that scoring reports
		// them per locality as InvalidStatistics.
		if loc.Q25 > loc.Median || loc.Median > loc.Q75 {
			return nil, fmt.Errorf("stats: locality %q quartiles out of order (q25=%v median=%v q75=%v)",
				loc.Locality, loc.Q25, loc.Median, loc.Q75)
		}
		if loc.Density != nil {
			s.density[loc.Locality] = *loc.Density
			loc.Density = nil
		}
		s.localities[loc.Locality] = loc
	}

	for name, d := range snap.LocationDensity {
		s.density[name] = d
	}
	for name, d := range s.density {
		if !finite(d) || d < 0 || d > 1 {
			return nil, fmt.Errorf("stats: locality %q has invalid density %v", name, d)
		}
	}

	for state, locs := range snap.StateLocalities {
		if _, ok := s.validState[state]; !ok {
			return nil, fmt.Errorf("stats: mapping names unknown state %q", state)
		}
		set := make(map[string]struct{}, len(locs))
		names := make([]string, 0, len(locs))
		for _, l := range locs {
			if _, dup := set[l]; dup {
				continue
			}
			set[l] = struct{}{}
			names = append(names, l)
		}
		sort.Strings(names)
		s.byState[state] = names
		s.members[state] = set
	}

	return s, nil
}

// LookupLocality returns the statistics of a locality observed under state.
// It fails with *models.LocalityNotFound when the state is unknown, the
// locality was never seen under it, or it has no statistics record.
func (s *Store) LookupLocality(state, locality string) (models.LocalityStatistics, error) {
	if _, ok := s.validState[state]; !ok {
		return models.LocalityStatistics{}, &models.LocalityNotFound{State: state, Locality: locality, Err: models.ErrUnknownState}
	}
	if !s.HasLocality(state, locality) {
		return models.LocalityStatistics{}, &models.LocalityNotFound{State: state, Locality: locality}
	}
	loc, ok := s.localities[locality]
	if !ok {
		return models.LocalityStatistics{}, &models.LocalityNotFound{State: state, Locality: locality}
	}
	if d, ok := s.density[locality]; ok {
		loc.Density = &d
	}
	return loc, nil
}

// HasLocality reports whether locality was observed under state.
func (s *Store) HasLocality(state, locality string) bool {
	_, ok := s.members[state][locality]
	return ok
}

// ValidState reports whether state is one of the known states.
func (s *Store) ValidState(state string) bool {
	_, ok := s.validState[state]
	return ok
}

// Global returns the model-wide statistics.
func (s *Store) Global() models.GlobalStatistics {
	g := s.global
	g.ValidStates = append([]string(nil), s.global.ValidStates...)
	return g
}

// States returns the valid states, sorted.
func (s *Store) States() []string {
	return append([]string(nil), s.states...)
}

// LocalitiesForState returns the localities observed under state, sorted.
// Unknown states yield an empty slice.
func (s *Store) LocalitiesForState(state string) []string {
	return append([]string(nil), s.byState[state]...)
}

// Density returns the listing-density weight of a locality, or
// models.DefaultDensity when none was recorded.
func (s *Store) Density(locality string) float64 {
	if d, ok := s.density[locality]; ok {
		return d
	}
	return models.DefaultDensity
}

// Len returns the number of localities with statistics.
func (s *Store) Len() int {
	return len(s.localities)
}

// Localities returns every locality record sorted by name, with densities
// filled in. Used by exporters.
func (s *Store) Localities() []models.LocalityStatistics {
	out := make([]models.LocalityStatistics, 0, len(s.localities))
	for name, loc := range s.localities {
		if d, ok := s.density[name]; ok {
			loc.Density = &d
		}
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Locality < out[j].Locality })
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
