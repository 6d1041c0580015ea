package tool

import "sync"

// Registry maps tool names to handlers. Lookups are exact and
// case-sensitive. The registry is populated at process start and treated
// as read-only afterwards, so it may be shared across concurrent runs.
type Registry interface {
	// Register adds a tool to the registry.
	Register(t Tool) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, bool)

	// Names returns registered tool names in registration order.
	Names() []string

	// List returns all registered tools in registration order.
	List() []Tool
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() Registry {
	return &memoryRegistry{tools: make(map[string]Tool)}
}

type memoryRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func (r *memoryRegistry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return ErrToolExists
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

func (r *memoryRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

func (r *memoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *memoryRegistry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}
