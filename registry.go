package lpm

import (
	"sort"
	"sync"

	"github.com/gobwas/glob"
)

// Registry holds named tables sharing one payload type, e.g. "IPv4" and
// "IPv6" instances kept side by side. Lookup by exact name or by glob
// pattern.
type Registry[V comparable] struct {
	mu     sync.RWMutex
	tables map[string]*Table[V]
}

// NewRegistry returns an empty registry.
func NewRegistry[V comparable]() *Registry[V] {
	return &Registry[V]{
		tables: map[string]*Table[V]{},
	}
}

// Register adds a table under its name. A duplicate name is ErrExists.
func (m *Registry[V]) Register(t *Table[V]) error {
	if t == nil {
		return ErrInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[t.Name()]; ok {
		return ErrExists
	}
	m.tables[t.Name()] = t

	return nil
}

// Unregister removes the table with the given name.
func (m *Registry[V]) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[name]; !ok {
		return ErrNotFound
	}
	delete(m.tables, name)

	return nil
}

// Get returns the table registered under the exact name.
func (m *Registry[V]) Get(name string) (*Table[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	return t, ok
}

// Match returns the tables whose names match the glob pattern, sorted by
// name.
func (m *Registry[V]) Match(pattern string) ([]*Table[V], error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Table[V]
	for name, t := range m.tables {
		if g.Match(name) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out, nil
}

// Names returns all registered table names, sorted.
func (m *Registry[V]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
