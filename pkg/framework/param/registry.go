package param

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknown is returned when a parameter name or ID is not registered.
var ErrUnknown = errors.New("unknown parameter")

// Registry holds the synth's parameters. Registration happens once at
// startup; afterwards lookups only take the read lock and value access goes
// straight to the parameter's atomic.
type Registry struct {
	mu     sync.RWMutex
	params map[uint32]*Parameter
	names  map[string]*Parameter
	order  []*Parameter
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		names:  make(map[string]*Parameter),
	}
}

// Add registers parameters. Duplicate IDs or names are an error.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if existing, ok := r.params[p.ID]; ok {
			return errors.Errorf("parameter ID %d already used by %q", p.ID, existing.Name)
		}
		if _, ok := r.names[p.Name]; ok {
			return errors.Errorf("parameter name %q already registered", p.Name)
		}
		r.params[p.ID] = p
		r.names[p.Name] = p
		r.order = append(r.order, p)
	}
	return nil
}

// Get retrieves a parameter by ID, or nil.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[id]
}

// Lookup retrieves a parameter by name.
func (r *Registry) Lookup(name string) (*Parameter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.names[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "%q", name)
	}
	return p, nil
}

// Set parses text for the named parameter and stores it.
func (r *Registry) Set(name, text string) error {
	p, err := r.Lookup(name)
	if err != nil {
		return err
	}
	if p.Flags&IsReadOnly != 0 {
		return errors.Errorf("parameter %q is read-only", name)
	}
	v, err := p.ParseValue(text)
	if err != nil {
		return err
	}
	p.SetValue(v)
	return nil
}

// SetPlain stores a plain value for the named parameter.
func (r *Registry) SetPlain(name string, plain float64) error {
	p, err := r.Lookup(name)
	if err != nil {
		return err
	}
	p.SetPlainValue(plain)
	return nil
}

// Count returns the number of parameters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns all parameters in registration order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Parameter, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for n := range r.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResetAll restores every parameter to its default.
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
}
