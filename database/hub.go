package database

import "sync"

const subscriberBuffer = 16

// hub fans out written documents to watchers.
type hub struct {
	mu   sync.Mutex
	subs map[Name]map[chan []byte]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[Name]map[chan []byte]struct{})}
}

func (h *hub) subscribe(name Name) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.subs[name] == nil {
		h.subs[name] = make(map[chan []byte]struct{})
	}
	h.subs[name][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[name], ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish never blocks: a full subscriber misses this update.
func (h *hub) publish(name Name, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[name] {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *hub) count(name Name) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[name])
}
