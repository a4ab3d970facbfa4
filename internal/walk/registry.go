package walk

import "sync"

type entry struct {
	ctrl *Controller
	refs int
}

// Registry hands out one controller per walker on this instance. A
// controller lives while it is referenced or relaying; everything else it
// holds is reloaded by Refresh, so idle controllers are evicted on release.
type Registry struct {
	deps Deps

	mu          sync.Mutex
	controllers map[string]*entry
}

// NewRegistry creates a Registry whose controllers share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, controllers: make(map[string]*entry)}
}

// Acquire returns the walker's controller, creating it on first use, and a
// release func the caller must invoke once it is done with the controller.
func (r *Registry) Acquire(walkerID string) (*Controller, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.controllers[walkerID]
	if !ok {
		e = &entry{ctrl: NewController(walkerID, r.deps)}
		r.controllers[walkerID] = e
	}
	e.refs++

	var once sync.Once
	return e.ctrl, func() { once.Do(func() { r.release(walkerID, e) }) }
}

func (r *Registry) release(walkerID string, e *entry) {
	r.mu.Lock()
	e.refs--
	evict := e.refs == 0 && r.controllers[walkerID] == e && e.ctrl.idle()
	if evict {
		delete(r.controllers, walkerID)
	}
	r.mu.Unlock()

	if evict {
		e.ctrl.Close()
	}
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close closes every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range controllers {
		e.ctrl.Close()
	}
}
