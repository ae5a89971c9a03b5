// Package traits implements the ordered, deduplicated trait set attached to
// each credential: constant-time membership plus stable first-add ordering
// for enumeration.
package traits

import "strings"

// Separator is reserved for serializing trait lists (digest hashing, wire
// encodings). It can never appear inside a stored name, otherwise two
// distinct lists could serialize to the same bytes.
const Separator = "\x1f"

// ValidName reports whether name may be asserted on a credential: non-empty
// and free of the reserved separator.
func ValidName(name string) bool {
	return name != "" && !strings.Contains(name, Separator)
}

// Set tracks which trait names are asserted and the order they were first
// added. A name appears in the order slice iff it is present, and at most
// once. The zero value is not usable; call New.
//
// Set is not self-locking: callers serialize access, matching the registry's
// one-writer-per-credential execution model.
type Set struct {
	present map[string]bool
	order   []string
}

// New returns an empty trait set, optionally populated with names. Duplicate
// names collapse to a single entry, preserving first-seen order.
func New(names ...string) *Set {
	s := &Set{present: make(map[string]bool, len(names))}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Has reports whether name is asserted.
func (s *Set) Has(name string) bool {
	return s.present[name]
}

// Add asserts name. Idempotent: adding a present name changes nothing and
// reports false.
func (s *Set) Add(name string) bool {
	if s.present[name] {
		return false
	}
	s.present[name] = true
	s.order = append(s.order, name)
	return true
}

// Remove drops name from both structures. Idempotent: removing an absent
// name changes nothing and reports false.
func (s *Set) Remove(name string) bool {
	if !s.present[name] {
		return false
	}
	delete(s.present, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the asserted names in first-add order. The slice is a copy.
func (s *Set) List() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of asserted names.
func (s *Set) Len() int {
	return len(s.order)
}

// ReplaceAll clears the set and adds each of names once, collapsing input
// duplicates to the first occurrence. Used by renewal to swap the trait set
// wholesale.
func (s *Set) ReplaceAll(names []string) {
	s.present = make(map[string]bool, len(names))
	s.order = s.order[:0]
	for _, name := range names {
		s.Add(name)
	}
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	dup := &Set{
		present: make(map[string]bool, len(s.present)),
		order:   make([]string, len(s.order)),
	}
	for name := range s.present {
		dup.present[name] = true
	}
	copy(dup.order, s.order)
	return dup
}
