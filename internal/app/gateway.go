package app

import (
	"sync"

	"github.com/rs/zerolog"

	"trivia-room-service/internal/domain"
)

// Subscriber is a connection that can receive events. Send must not block.
type Subscriber interface {
	Handle() string
	Send(ev domain.Event) error
}

// Gateway delivers events to connections. It keeps an explicit subscriber set
// per room, updated on join and leave.
type Gateway struct {
	mu    sync.RWMutex
	conns map[string]Subscriber
	rooms map[string]map[string]Subscriber
	log   zerolog.Logger
}

func NewGateway(logger zerolog.Logger) *Gateway {
	return &Gateway{
		conns: make(map[string]Subscriber),
		rooms: make(map[string]map[string]Subscriber),
		log:   logger,
	}
}

// Register makes a connection addressable by its handle.
func (g *Gateway) Register(sub Subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[sub.Handle()] = sub
}

// Unregister forgets a connection and removes it from every room set.
func (g *Gateway) Unregister(handle string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, handle)
	for pin, set := range g.rooms {
		delete(set, handle)
		if len(set) == 0 {
			delete(g.rooms, pin)
		}
	}
}

// Subscribe adds a registered connection to a room's broadcast set.
func (g *Gateway) Subscribe(pin, handle string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sub, ok := g.conns[handle]
	if !ok {
		return
	}
	set, ok := g.rooms[pin]
	if !ok {
		set = make(map[string]Subscriber)
		g.rooms[pin] = set
	}
	set[handle] = sub
}

func (g *Gateway) Unsubscribe(pin, handle string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.rooms[pin]
	if !ok {
		return
	}
	delete(set, handle)
	if len(set) == 0 {
		delete(g.rooms, pin)
	}
}

// DropRoom removes a room's subscriber set. It is idempotent.
func (g *Gateway) DropRoom(pin string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, pin)
}

// Broadcast sends ev to every subscriber of pin.
func (g *Gateway) Broadcast(pin string, ev domain.Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for handle, sub := range g.rooms[pin] {
		if err := sub.Send(ev); err != nil {
			g.log.Debug().Err(err).Str("pin", pin).Str("handle", handle).Str("event", ev.Type).Msg("broadcast dropped")
		}
	}
}

// Unicast sends ev to a single connection.
func (g *Gateway) Unicast(handle string, ev domain.Event) {
	g.mu.RLock()
	sub, ok := g.conns[handle]
	g.mu.RUnlock()
	if !ok {
		return
	}
	if err := sub.Send(ev); err != nil {
		g.log.Debug().Err(err).Str("handle", handle).Str("event", ev.Type).Msg("unicast dropped")
	}
}

// Subscribers returns the number of connections subscribed to pin.
func (g *Gateway) Subscribers(pin string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[pin])
}
