package clock

import (
	"context"
	"sync"
)

// Hub tracks the runners open viewers hold for each clock key. A change
// decided elsewhere, such as a rotation, reaches every live clock through
// it. A nil Hub does nothing.
type Hub struct {
	mu      sync.Mutex
	viewers map[string]map[*Runner]hubViewer
}

type hubViewer struct {
	onReset func(State)
	onClose func()
}

func NewHub() *Hub {
	return &Hub{viewers: make(map[string]map[*Runner]hubViewer)}
}

// Join registers r under key. onReset receives the fresh state after a
// Reset; onClose is called once when the key is closed. The returned func
// removes the runner again.
func (h *Hub) Join(key string, r *Runner, onReset func(State), onClose func()) (leave func()) {
	if h == nil {
		return func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.viewers[key] == nil {
		h.viewers[key] = make(map[*Runner]hubViewer)
	}
	h.viewers[key][r] = hubViewer{onReset: onReset, onClose: onClose}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.viewers[key], r)
		if len(h.viewers[key]) == 0 {
			delete(h.viewers, key)
		}
	}
}

// Reset rewinds every runner under key to its initial stopped state.
func (h *Hub) Reset(ctx context.Context, key string) {
	for r, v := range h.members(key, false) {
		s, _ := r.Reset(ctx)
		if v.onReset != nil {
			v.onReset(s)
		}
	}
}

// Close detaches every runner under key so none of them persists again,
// then notifies and forgets the viewers.
func (h *Hub) Close(key string) {
	for r, v := range h.members(key, true) {
		r.Detach()
		if v.onClose != nil {
			v.onClose()
		}
	}
}

func (h *Hub) Len(key string) int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers[key])
}

// members copies the viewers of key so callbacks run without h.mu held.
func (h *Hub) members(key string, remove bool) map[*Runner]hubViewer {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[*Runner]hubViewer, len(h.viewers[key]))
	for r, v := range h.viewers[key] {
		out[r] = v
	}
	if remove {
		delete(h.viewers, key)
	}
	return out
}
