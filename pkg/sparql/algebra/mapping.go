// Package algebra defines the solution mapping, the operator tree built
// from parsed queries, and the translator that produces it.
package algebra

import (
	"sort"
	"strings"

	"github.com/notegraph/notegraph/pkg/rdf"
)

// Mapping is a solution mapping: variable name -> bound term. A variable
// appears at most once; the empty mapping is valid and is compatible with
// everything. Mappings are built with Set and treated as read-only once
// handed to a downstream operator.
type Mapping struct {
	vars map[string]rdf.Term
}

// NewMapping creates an empty mapping
func NewMapping() *Mapping {
	return &Mapping{vars: make(map[string]rdf.Term)}
}

// Get returns the term bound to the variable, if any
func (m *Mapping) Get(name string) (rdf.Term, bool) {
	term, ok := m.vars[name]
	return term, ok
}

// Set binds a variable. Only used during mapping construction.
func (m *Mapping) Set(name string, term rdf.Term) {
	m.vars[name] = term
}

// Len returns the number of bound variables
func (m *Mapping) Len() int {
	return len(m.vars)
}

// Keys returns the bound variable names in sorted order
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone creates a copy of the mapping
func (m *Mapping) Clone() *Mapping {
	clone := NewMapping()
	for k, v := range m.vars {
		clone.vars[k] = v
	}
	return clone
}

// Compatible reports whether every variable shared by both mappings binds
// to structurally equal terms. Mappings with no shared variables are
// vacuously compatible.
func (m *Mapping) Compatible(other *Mapping) bool {
	for name, term := range m.vars {
		if otherTerm, ok := other.vars[name]; ok {
			if !term.Equals(otherTerm) {
				return false
			}
		}
	}
	return true
}

// SharesVariable reports whether the two mappings have at least one
// variable in common.
func (m *Mapping) SharesVariable(other *Mapping) bool {
	// Iterate over the smaller map
	a, b := m, other
	if len(b.vars) < len(a.vars) {
		a, b = b, a
	}
	for name := range a.vars {
		if _, ok := b.vars[name]; ok {
			return true
		}
	}
	return false
}

// Merge returns a new mapping with the union of both mappings' bindings.
// Callers must check Compatible first; merging incompatible mappings is an
// operator implementation bug and panics.
func (m *Mapping) Merge(other *Mapping) *Mapping {
	merged := m.Clone()
	for name, term := range other.vars {
		if existing, ok := merged.vars[name]; ok {
			if !existing.Equals(term) {
				panic("algebra: merge of incompatible mappings")
			}
			continue
		}
		merged.vars[name] = term
	}
	return merged
}

// Equal reports whether both mappings bind exactly the same variables to
// structurally equal terms.
func (m *Mapping) Equal(other *Mapping) bool {
	if len(m.vars) != len(other.vars) {
		return false
	}
	for name, term := range m.vars {
		otherTerm, ok := other.vars[name]
		if !ok || !term.Equals(otherTerm) {
			return false
		}
	}
	return true
}

// Signature returns a canonical string representation, used as a
// deduplication key by DISTINCT.
func (m *Mapping) Signature() string {
	parts := make([]string, 0, len(m.vars))
	for _, name := range m.Keys() {
		parts = append(parts, name+"="+m.vars[name].String())
	}
	return strings.Join(parts, ";")
}

func (m *Mapping) String() string {
	return "{" + m.Signature() + "}"
}
