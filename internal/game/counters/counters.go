package counters

import "sort"

// Kind identifies a per-player counter tracked by the session.
type Kind string

const (
	KindPoison       Kind = "poison"
	KindEnergy       Kind = "energy"
	KindExperience   Kind = "experience"
	KindStorm        Kind = "storm"
	KindCommanderTax Kind = "commanderTax"
)

// Kinds lists the built-in counter kinds in display order.
var Kinds = []Kind{KindPoison, KindEnergy, KindExperience, KindStorm, KindCommanderTax}

// IsBuiltin reports whether k is one of the fixed tracker counters.
func IsBuiltin(k Kind) bool {
	switch k {
	case KindPoison, KindEnergy, KindExperience, KindStorm, KindCommanderTax:
		return true
	}
	return false
}

// Set manages a player's counters. Values never go below zero;
// decrements clamp rather than fail. Custom counter names share the
// same map as the built-in kinds.
type Set struct {
	counts map[Kind]int
}

// NewSet creates an empty counter set.
func NewSet() *Set {
	return &Set{counts: make(map[Kind]int)}
}

// Adjust applies a signed delta to the given counter, clamping at zero.
// Returns the new value.
func (s *Set) Adjust(kind Kind, delta int) int {
	v := s.counts[kind] + delta
	if v < 0 {
		v = 0
	}
	if v == 0 {
		delete(s.counts, kind)
	} else {
		s.counts[kind] = v
	}
	return v
}

// Get returns the current value of the given counter (zero if unset).
func (s *Set) Get(kind Kind) int {
	return s.counts[kind]
}

// Names returns all counters with a non-zero value, sorted by name.
func (s *Set) Names() []Kind {
	names := make([]Kind, 0, len(s.counts))
	for k := range s.counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Snapshot returns the counters as a plain map.
func (s *Set) Snapshot() map[Kind]int {
	out := make(map[Kind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Restore replaces the set's contents. Non-positive values are dropped.
func (s *Set) Restore(counts map[Kind]int) {
	s.counts = make(map[Kind]int, len(counts))
	for k, v := range counts {
		if v > 0 {
			s.counts[k] = v
		}
	}
}

// Copy creates a deep copy of the counter set.
func (s *Set) Copy() *Set {
	cpy := NewSet()
	for k, v := range s.counts {
		cpy.counts[k] = v
	}
	return cpy
}
