package store

import (
	"sync"
)

// Binding is the ephemeral association of a live connection with an identity
// and its current room.
type Binding struct {
	ConnectionId string
	UserId       int
	Username     string
	// Room is empty while the connection has not joined a room.
	Room string
}

// PresenceTable maps live connections to their bindings. It is the liveness
// source of truth for the router.
type PresenceTable struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		bindings: make(map[string]Binding),
	}
}

// Bind creates or overwrites the connection's binding with no current room.
func (p *PresenceTable) Bind(connectionId string, userId int, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bindings[connectionId] = Binding{
		ConnectionId: connectionId,
		UserId:       userId,
		Username:     username,
	}
}

func (p *PresenceTable) Get(connectionId string) (Binding, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b, ok := p.bindings[connectionId]
	return b, ok
}

// SetRoom updates the binding's current room. A missing binding is a silent
// no-op, which tolerates events arriving before the connection has joined.
func (p *PresenceTable) SetRoom(connectionId, room string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.bindings[connectionId]
	if !ok {
		return
	}

	b.Room = room
	p.bindings[connectionId] = b
}

func (p *PresenceTable) Remove(connectionId string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.bindings, connectionId)
}

func (p *PresenceTable) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.bindings)
}
