package contract

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Method is one named operation of a contract handle. The dispatcher may pass
// a CallMetadata as the last argument.
type Method func(ctx context.Context, args ...interface{}) (interface{}, error)

// Handle is the capability surface of a deployed contract. Operations are looked
// up by name so that an unsupported one is a checked branch for the caller.
type Handle interface {
	Name() string
	Method(name string) (Method, bool)
}

// Registry is a Handle backed by an explicit name to Method table.
type Registry struct {
	name    string
	mutex   sync.RWMutex
	methods map[string]Method
}

var _ Handle = (*Registry)(nil)

func NewRegistry(name string) *Registry {
	return &Registry{
		name:    name,
		methods: make(map[string]Method),
	}
}

// Register adds a method. Registering the same name twice is a programming error.
func (r *Registry) Register(method string, fn Method) *Registry {
	if fn == nil {
		panic(fmt.Sprintf("contract method `%s' for `%s' is nil", method, r.name))
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.methods[method]; ok {
		panic(fmt.Sprintf("contract method `%s' for `%s' exists", method, r.name))
	}
	r.methods[method] = fn
	return r
}

func (r *Registry) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

func (r *Registry) Method(name string) (Method, bool) {
	if r == nil {
		return nil, false
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	fn, ok := r.methods[name]
	return fn, ok
}

// Methods lists registered names in sorted order.
func (r *Registry) Methods() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
