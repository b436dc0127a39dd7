package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateCore is returned when registering an ID twice.
	ErrDuplicateCore = errors.New("core already registered")

	// ErrNoCore is returned when no registered core can serve a request.
	ErrNoCore = errors.New("no core available")
)

// Registry indexes available cores by ID and by system, and remembers a
// preferred core per system.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]Info
	bySystem  map[System][]string
	preferred map[System]string
}

// NewRegistry returns a registry holding cores.
func NewRegistry(cores ...Info) (*Registry, error) {
	r := &Registry{
		byID:      make(map[string]Info),
		bySystem:  make(map[System][]string),
		preferred: make(map[System]string),
	}
	for _, info := range cores {
		if err := r.Register(info); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a core.
func (r *Registry) Register(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[info.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCore, info.ID)
	}
	r.byID[info.ID] = info
	for _, sys := range info.Systems {
		r.bySystem[sys] = append(r.bySystem[sys], info.ID)
	}
	return nil
}

// Get returns the core with the given ID.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byID[id]
	return info, ok
}

// All returns every registered core sorted by ID.
func (r *Registry) All() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.byID))
	for _, info := range r.byID {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ForSystem returns the cores supporting sys in registration order.
func (r *Registry) ForSystem(sys System) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySystem[sys]
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// SetPreferred records id as the preferred core for sys. An empty id clears
// the preference.
func (r *Registry) SetPreferred(sys System, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		delete(r.preferred, sys)
		return nil
	}
	info, ok := r.byID[id]
	if !ok || !info.Supports(sys) {
		return fmt.Errorf("%w: %s for %s", ErrNoCore, id, sys)
	}
	r.preferred[sys] = id
	return nil
}

// Preferred returns the preferred core for sys, falling back to the first
// registered core that supports it.
func (r *Registry) Preferred(sys System) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.preferred[sys]; ok {
		return r.byID[id], nil
	}
	if ids := r.bySystem[sys]; len(ids) > 0 {
		return r.byID[ids[0]], nil
	}
	return Info{}, fmt.Errorf("%w: %s", ErrNoCore, sys)
}
