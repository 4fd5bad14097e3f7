package timeline

import "sync"

// FilterBus is the explicit publish/subscribe channel for cross-component
// filter sync. It doubles as a FilterSource holding the latest published
// state, so a view constructed against the bus sees filter changes without
// any global broadcasting.
type FilterBus struct {
	mu      sync.RWMutex
	current Filter
	subs    []func(Filter)
}

func NewFilterBus() *FilterBus {
	return &FilterBus{}
}

// Filters implements FilterSource.
func (b *FilterBus) Filters() Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Subscribe registers a callback invoked on every publish. Callbacks run on
// the publisher's goroutine; keep them short.
func (b *FilterBus) Subscribe(fn func(Filter)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish stores the new filter state and notifies subscribers.
func (b *FilterBus) Publish(f Filter) {
	b.mu.Lock()
	b.current = f
	subs := make([]func(Filter), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(f)
	}
}
