package profile

import (
	"slices"
	"strings"
)

// Registry is the read-only, case-insensitive set of loaded profiles. It is
// built once and safe for concurrent reads.
type Registry struct {
	byName map[string]Profile
	sorted []Profile
}

// NewRegistry builds a registry from profiles. A later profile replaces an
// earlier one with the same name.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{byName: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.byName[strings.ToUpper(p.Name)] = p
	}

	r.sorted = make([]Profile, 0, len(r.byName))
	for _, p := range r.byName {
		r.sorted = append(r.sorted, p)
	}
	slices.SortFunc(r.sorted, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	return r
}

// Get returns the profile called name, ignoring case.
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// Has reports whether a profile called name exists.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// All returns every profile ordered by name.
func (r *Registry) All() []Profile {
	return slices.Clone(r.sorted)
}

// Len returns the number of profiles.
func (r *Registry) Len() int { return len(r.sorted) }

// Names returns the profile names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sorted))
	for i, p := range r.sorted {
		names[i] = p.Name
	}
	return names
}
