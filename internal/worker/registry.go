package worker

import (
	"fmt"
	"sync"

	"github.com/charging-platform/cs-simulator/internal/atg"
	"github.com/charging-platform/cs-simulator/internal/station"
)

// Entity bundles a station together with its ATG controller, the unit the
// dispatcher looks up by hashId.
type Entity struct {
	Station *station.Station
	ATG     *atg.Controller
}

// Registry is the dispatcher's view of the fleet: every simulated station
// this process owns, keyed by hashId. internal/fleet is the distributed
// front-end that decides which process owns which hashId; Registry is the
// in-process lookup the dispatcher consults once a command has already
// been routed here.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Put registers or replaces the entity for hashId.
func (r *Registry) Put(hashId string, e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[hashId] = e
}

// Delete removes hashId from the registry.
func (r *Registry) Delete(hashId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entities, hashId)
}

// Get returns the entity for hashId, or an error if this process doesn't
// own it.
func (r *Registry) Get(hashId string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[hashId]
	if !ok {
		return nil, fmt.Errorf("unknown charging station %q", hashId)
	}
	return e, nil
}

// HashIds returns every hashId currently registered, in no particular
// order.
func (r *Registry) HashIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	return ids
}
