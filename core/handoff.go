package core

import (
	"io"
	"sync"
)

// handoffs holds resources opened off the loop until the action carrying them
// runs. Whatever is still held at teardown is closed there.
type handoffs struct {
	mu     sync.Mutex
	next   uint64
	items  map[uint64]io.Closer
	closed bool
}

// hold registers r and returns its token. It reports false after closeAll,
// leaving r to the caller.
func (h *handoffs) hold(r io.Closer) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, false
	}
	if h.items == nil {
		h.items = make(map[uint64]io.Closer)
	}
	h.next++
	h.items[h.next] = r
	return h.next, true
}

func (h *handoffs) claim(token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.items, token)
}

// closeAll stops further holds and returns the unclaimed resources.
func (h *handoffs) closeAll() []io.Closer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	out := make([]io.Closer, 0, len(h.items))
	for _, r := range h.items {
		out = append(out, r)
	}
	h.items = nil
	return out
}
