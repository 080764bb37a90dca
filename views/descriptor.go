// Package views aggregates view templates from the application and its
// feature providers, compiles them into one compiled-view table, and shares
// that table between all callers of a process.
package views

import "errors"

// Descriptor identifies one compilable view template.
type Descriptor struct {
	Path   string // logical path, unique within a DescriptorSet
	Origin string // name of the contributing provider, for diagnostics
	Text   string // template source
}

// DescriptorSet is an ordered collection of descriptors with unique logical
// paths.  Putting a descriptor for a path already in the set replaces it in
// place, so the last contribution wins and the first position is kept.
//
// The zero value is an empty set.  A DescriptorSet is not safe for concurrent
// use.
type DescriptorSet struct {
	index map[string]int
	items []Descriptor
}

// Put adds or replaces the descriptor for d.Path.
func (s *DescriptorSet) Put(d Descriptor) error {
	if d.Path == "" {
		return errors.New("descriptor has an empty path")
	}
	if i, ok := s.index[d.Path]; ok {
		s.items[i] = d
		return nil
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[d.Path] = len(s.items)
	s.items = append(s.items, d)
	return nil
}

// Get returns the descriptor for the given path.
func (s *DescriptorSet) Get(path string) (Descriptor, bool) {
	i, ok := s.index[path]
	if !ok {
		return Descriptor{}, false
	}
	return s.items[i], true
}

// Len returns the number of descriptors.
func (s *DescriptorSet) Len() int {
	return len(s.items)
}

// Descriptors returns a copy of the descriptors in order.
func (s *DescriptorSet) Descriptors() []Descriptor {
	return append([]Descriptor(nil), s.items...)
}
