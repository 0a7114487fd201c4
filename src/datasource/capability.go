package datasource

import (
	"sort"
	"strings"
)

// Capability names an environment precondition a backend needs before its
// probe is meaningful.
type Capability string

const (
	DepFilesystem Capability = "FILESYSTEM"
	DepNetwork    Capability = "NETWORK"
)

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Satisfies reports whether every capability in req is present in s. An
// empty requirement is satisfied by any stage.
func (s CapabilitySet) Satisfies(req CapabilitySet) bool {
	for c := range req {
		if _, ok := s[c]; !ok {
			return false
		}
	}
	return true
}

func (s CapabilitySet) String() string {
	names := make([]string, 0, len(s))
	for c := range s {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// Stage is a named point in boot with a known set of available capabilities.
// Stages are probed in order; capability sets grow monotonically.
type Stage struct {
	Name      string
	Available CapabilitySet
}

// DefaultStages mirrors the boot sequence: filesystem only, then
// filesystem plus network.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "init-local", Available: NewCapabilitySet(DepFilesystem)},
		{Name: "init-network", Available: NewCapabilitySet(DepFilesystem, DepNetwork)},
	}
}
