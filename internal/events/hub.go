package events

import "sync"

const hubClientBuffer = 64

// Hub fans bus events out to streaming clients such as the admin SSE
// endpoint. A slow client misses events rather than blocking the bus.
type Hub struct {
	bus *EventBus

	mu      sync.RWMutex
	clients map[chan Event]struct{}
	subID   SubscriberID
	started bool
}

func NewHub(bus *EventBus) *Hub {
	return &Hub{bus: bus, clients: make(map[chan Event]struct{})}
}

func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return
	}
	h.started = true
	h.subID = h.bus.Subscribe(h.broadcast)
}

// Stop detaches from the bus and closes every client channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return
	}
	h.started = false
	h.bus.Unsubscribe(h.subID)
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

func (h *Hub) broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

// AddClient registers a new client. A hub that is not running hands back
// a closed channel so the caller ends its stream at once.
func (h *Hub) AddClient() chan Event {
	ch := make(chan Event, hubClientBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		close(ch)
		return ch
	}
	h.clients[ch] = struct{}{}
	return ch
}

// RemoveClient is safe to call after Stop already closed ch.
func (h *Hub) RemoveClient(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
