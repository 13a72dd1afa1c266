package toolplugin

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a Tool instance. Plug-ins are stateless beyond
// their own name, so most constructors take no arguments.
type Constructor func() Tool

// Registry maps a tool name to its constructor. Tools register
// themselves at package-init time via Register; the driver looks one
// up by the name given in the benchmark XML's tool="..." attribute.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry. Most callers use the package
// level Register/New which operate on a shared default registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under name to the default registry. It
// is typically called from a built-in plug-in's init function.
func Register(name string, ctor Constructor) {
	defaultRegistry.Register(name, ctor)
}

// Register adds a constructor under name to r.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = ctor
}

// New constructs the tool named name using the default registry.
func New(name string) (Tool, error) {
	return defaultRegistry.New(name)
}

// New constructs the tool named name, or returns an error naming the
// tool as unknown (§7 "Configuration errors").
func (r *Registry) New(name string) (Tool, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tool %q (not present in the tool registry)", name)
	}
	return ctor(), nil
}

// Names returns the sorted list of registered tool names.
func Names() []string {
	return defaultRegistry.Names()
}

// Names returns the sorted list of names registered in r.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for n := range r.constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
