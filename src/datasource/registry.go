package datasource

import "fmt"

// Registry is the static name -> descriptor table, populated once at process
// start. It replaces runtime module discovery with explicit registration.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Descriptor{}}
}

// Register adds a descriptor. Duplicate names and nil factories are
// registration-time errors.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("datasource registry: descriptor has no name")
	}
	if d.New == nil {
		return fmt.Errorf("datasource registry: %s has no factory", d.Name)
	}
	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("datasource registry: %s already registered", d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

// MustRegister panics on registration errors. Intended for process-start
// table population where a bad descriptor is a programming error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}
