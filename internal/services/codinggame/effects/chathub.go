package effects

import (
	"context"
	"log"
	"sync"
)

const subscriberBuffer = 64

// ChatHub fans chat messages out to every live subscriber. Slow subscribers
// lose messages rather than stall the engine.
type ChatHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan ChatMessage
}

var _ Chat = (*ChatHub)(nil)

// NewChatHub returns an empty hub.
func NewChatHub() *ChatHub {
	return &ChatHub{subs: map[int]chan ChatMessage{}}
}

// SendChatMessage delivers msg to all subscribers.
func (h *ChatHub) SendChatMessage(_ context.Context, msg ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("chat subscriber %d is full, dropping %s", id, msg.Name)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx ends. The returned channel is
// closed when the subscription ends.
func (h *ChatHub) Subscribe(ctx context.Context) <-chan ChatMessage {
	ch := make(chan ChatMessage, subscriberBuffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Subscribers reports the number of live subscribers.
func (h *ChatHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
