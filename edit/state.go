package edit

import (
	"fmt"
	"hash/fnv"
)

// State is one immutable snapshot of an image's edit: an ordered sequence
// of adjustment groups. Mutation methods validate their input, then return
// a new State sharing unchanged groups with the receiver; the receiver is
// never modified. History entries hold States directly, so sharing is safe
// as long as callers treat attached masks as immutable (they do — brush
// edits replace the mask node).
type State struct {
	groups []Group
}

// NewState returns the empty edit state.
func NewState() State { return State{} }

// NewStateWith builds a state from validated groups.
func NewStateWith(groups ...Group) (State, error) {
	s := State{}
	var err error
	for _, g := range groups {
		s, err = s.Append(g)
		if err != nil {
			return State{}, err
		}
	}
	return s, nil
}

// Len returns the number of groups.
func (s State) Len() int { return len(s.groups) }

// Group returns the group at index i.
func (s State) Group(i int) Group { return s.groups[i] }

// Groups returns the ordered group slice. Callers must not modify it.
func (s State) Groups() []Group { return s.groups }

// Append returns a new state with g appended.
func (s State) Append(g Group) (State, error) {
	if err := g.Validate(); err != nil {
		return State{}, err
	}
	groups := make([]Group, len(s.groups)+1)
	copy(groups, s.groups)
	groups[len(s.groups)] = g
	return State{groups: groups}, nil
}

// Replace returns a new state with the group at index i replaced.
func (s State) Replace(i int, g Group) (State, error) {
	if i < 0 || i >= len(s.groups) {
		return State{}, fmt.Errorf("edit: group index %d out of range [0, %d)", i, len(s.groups))
	}
	if err := g.Validate(); err != nil {
		return State{}, err
	}
	groups := make([]Group, len(s.groups))
	copy(groups, s.groups)
	groups[i] = g
	return State{groups: groups}, nil
}

// Remove returns a new state without the group at index i.
func (s State) Remove(i int) (State, error) {
	if i < 0 || i >= len(s.groups) {
		return State{}, fmt.Errorf("edit: group index %d out of range [0, %d)", i, len(s.groups))
	}
	groups := make([]Group, 0, len(s.groups)-1)
	groups = append(groups, s.groups[:i]...)
	groups = append(groups, s.groups[i+1:]...)
	return State{groups: groups}, nil
}

// Move returns a new state with the group at index from spliced out and
// reinserted at index to. Reordering changes render semantics, so every
// group from min(from, to) onward hashes differently afterwards.
func (s State) Move(from, to int) (State, error) {
	n := len(s.groups)
	if from < 0 || from >= n {
		return State{}, fmt.Errorf("edit: move source %d out of range [0, %d)", from, n)
	}
	if to < 0 || to >= n {
		return State{}, fmt.Errorf("edit: move target %d out of range [0, %d)", to, n)
	}
	if from == to {
		return s, nil
	}
	groups := make([]Group, 0, n)
	groups = append(groups, s.groups[:from]...)
	groups = append(groups, s.groups[from+1:]...)
	g := s.groups[from]
	groups = append(groups[:to], append([]Group{g}, groups[to:]...)...)
	return State{groups: groups}, nil
}

// PrefixHash returns the chained hash of groups [0, n): each group's
// content is folded into the running digest in order, so the hash of a
// prefix depends on every group before it. Two states share a prefix hash
// exactly when their leading n groups are render-identical.
func (s State) PrefixHash(n int) uint64 {
	if n > len(s.groups) {
		n = len(s.groups)
	}
	h := fnv.New64a()
	for i := 0; i < n; i++ {
		s.groups[i].AppendHash(h)
	}
	return h.Sum64()
}

// Hash returns the hash of the full group sequence.
func (s State) Hash() uint64 { return s.PrefixHash(len(s.groups)) }

// Identity reports whether rendering the state would return the source
// image unchanged.
func (s State) Identity() bool {
	for _, g := range s.groups {
		if !g.Identity() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, including mask bitmap planes. States are
// immutable so cloning is rarely needed; it exists for callers that hand
// groups to code outside the package's control.
func (s State) Clone() State {
	groups := make([]Group, len(s.groups))
	for i, g := range s.groups {
		groups[i] = g.Clone()
	}
	return State{groups: groups}
}
