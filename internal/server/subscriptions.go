package server

import (
	"sync"
)

// subscriptions tracks which live connections are subscribed to each room.
// This is the delivery source of truth and is distinct from the room
// directory's cumulative participant sets: a connection is subscribed to at
// most one room at a time, while participant sets never shrink.
type subscriptions struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (s *subscriptions) subscribe(room string, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rooms[room] == nil {
		s.rooms[room] = make(map[*Client]struct{})
	}
	s.rooms[room][c] = struct{}{}
}

func (s *subscriptions) unsubscribe(room string, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, ok := s.rooms[room]
	if !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(s.rooms, room)
	}
}

// clients returns a snapshot of the connections currently subscribed to room.
func (s *subscriptions) clients(room string) []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*Client, 0, len(s.rooms[room]))
	for c := range s.rooms[room] {
		subs = append(subs, c)
	}
	return subs
}

func (s *subscriptions) contains(room string, c *Client) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[room][c]
	return ok
}
