package connectors

import (
	"context"
	"sync"
)

// Connector fetches raw records from one observability platform and
// normalizes them into canonical events. Connectors are stateless beyond
// their credentials and safe for concurrent use.
type Connector interface {
	// Name returns the connector identifier (e.g. "helicone").
	Name() string

	// Source returns the platform this connector reads from.
	Source() Source

	// Fetch retrieves records matching q, normalizes them, and returns
	// the batch with its summary. A failed API interaction returns a
	// *ConnectorError; individual malformed records never fail a fetch.
	Fetch(ctx context.Context, q Query) (*Result, error)
}

// Registry manages connector registration and lookup.
// Thread-safe map of source name to Connector.
type Registry struct {
	connectors map[string]Connector
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry. Callers register the connectors
// they hold credentials for.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector to the registry, replacing any connector with
// the same name.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Name()] = c
}

// Get returns a connector by name, or nil when none is registered.
func (r *Registry) Get(name string) Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectors[name]
}

// Names returns the registered connector names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	return names
}
