package dbaccess

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Handle bundles one database connection with its dialect and Access
// implementation.
type Handle struct {
	DB      *sql.DB
	Dialect Dialect
	Access  Access
}

// Close closes the underlying database handle.
func (h *Handle) Close() error {
	if h.DB == nil {
		return nil
	}
	return h.DB.Close()
}

// Registry holds named connections. The empty name is the default
// connection. Registration happens once during setup and is first-wins;
// lookups may run concurrently from any goroutine.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Register adds a connection under a logical name. Registering a name
// twice is an error and leaves the first handle in place.
func (r *Registry) Register(name string, h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[name]; ok {
		if name == "" {
			return errors.New("default connection already registered")
		}
		return fmt.Errorf("connection %q already registered", name)
	}
	r.handles[name] = h
	return nil
}

// Lookup returns the connection registered under the logical name. The
// empty name selects the default connection.
func (r *Registry) Lookup(name string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	if !ok {
		if name == "" {
			return nil, errors.New("no default connection registered")
		}
		return nil, fmt.Errorf("no connection registered under %q", name)
	}
	return h, nil
}

// Names returns the registered logical names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered connection, returning the joined errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, h := range r.handles {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection %q: %w", name, err))
		}
	}
	r.handles = make(map[string]*Handle)
	return errors.Join(errs...)
}
