package registry

import (
	"strconv"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// Entry pairs a variable name with its definition. A registry is built from
// an ordered list of entries so that declaration order survives.
type Entry struct {
	Name       string
	Definition Definition

	// Line is the 1-based line of the declaration in its source document,
	// or 0 for literal tables.
	Line int
}

// Registry is the read-only catalog of declared variables.
// It is safe for concurrent use because nothing mutates it after New returns.
type Registry struct {
	source string
	names  []string
	defs   map[string]Definition
}

// New builds a registry from entries. It fails with E101 on a duplicate name,
// E102 on an empty name and E103 on a definition that violates its kind's
// invariants.
func New(entries ...Entry) (*Registry, error) {
	return build("", entries)
}

// MustNew is like New but panics on error. Use it for literal tables at
// process start, where an ambiguous registry must stop the program.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func build(source string, entries []Entry) (*Registry, error) {
	r := &Registry{
		source: source,
		names:  make([]string, 0, len(entries)),
		defs:   make(map[string]Definition, len(entries)),
	}

	lines := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, located(errors.New("E102"), source, e.Line)
		}
		if _, dup := r.defs[e.Name]; dup {
			err := located(errors.New("E101").WithVariable(e.Name), source, e.Line)
			if first := lines[e.Name]; first > 0 {
				err.WithDetail("First declared on line " + strconv.Itoa(first) + ".")
			}
			return nil, err
		}
		if err := e.Definition.Validate(); err != nil {
			return nil, located(errors.New("E103").WithVariable(e.Name).Wrap(err), source, e.Line)
		}

		r.names = append(r.names, e.Name)
		r.defs[e.Name] = e.Definition.clone()
		lines[e.Name] = e.Line
	}

	return r, nil
}

func located(err *errors.Error, source string, line int) *errors.Error {
	if line > 0 {
		err.WithLocation(source, line, 0)
	}
	return err
}

// Source names the document the registry was loaded from, or "" for literal
// tables.
func (r *Registry) Source() string {
	return r.source
}

// Len returns the number of declared variables.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns all declared names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// DefaultValueOf returns the declared default for name. Unknown names yield
// the number 0 so that consumers degrade instead of failing.
func (r *Registry) DefaultValueOf(name string) value.Value {
	d, ok := r.defs[name]
	if !ok {
		return value.Number(0)
	}
	return d.Default.Clone()
}

// DefinitionOf returns the metadata declared for name.
func (r *Registry) DefinitionOf(name string) (Definition, bool) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return d.clone(), true
}

// AllDefaults returns a fresh map of every declared default, used to seed a
// store.
func (r *Registry) AllDefaults() map[string]value.Value {
	out := make(map[string]value.Value, len(r.defs))
	for name, d := range r.defs {
		out[name] = d.Default.Clone()
	}
	return out
}

// Entries returns the registry contents in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.names))
	for i, name := range r.names {
		out[i] = Entry{Name: name, Definition: r.defs[name].clone()}
	}
	return out
}
