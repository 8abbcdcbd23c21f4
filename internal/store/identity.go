package store

import (
	"sync"

	"github.com/example/chathub/internal/types"
)

// IdentityRegistry maps usernames to user records. A username permanently
// reserves its identity for the lifetime of the process; records are updated
// on reconnect, never recreated.
type IdentityRegistry struct {
	mu         sync.RWMutex
	byUsername map[string]*types.User
	byId       map[int]*types.User
	nextId     int
}

func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{
		byUsername: make(map[string]*types.User),
		byId:       make(map[int]*types.User),
	}
}

// Join binds username to the caller's connection, creating the identity on
// first use. Rebinding an already-online username silently migrates ownership
// to the newest connection. The second return value reports whether a new
// identity was created.
func (r *IdentityRegistry) Join(username, connectionId string) (types.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byUsername[username]
	if !ok {
		r.nextId++
		u = &types.User{
			Id:       r.nextId,
			Username: username,
		}
		r.byUsername[username] = u
		r.byId[u.Id] = u
	}

	u.IsOnline = true
	u.ConnectionId = connectionId

	return *u, !ok
}

// MarkOffline clears the user's connection binding. Calling it for an
// unknown or already-offline user is a no-op.
func (r *IdentityRegistry) MarkOffline(userId int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byId[userId]; ok {
		u.IsOnline = false
		u.ConnectionId = ""
	}
}

func (r *IdentityRegistry) Get(userId int) (types.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.byId[userId]; ok {
		return *u, true
	}
	return types.User{}, false
}

func (r *IdentityRegistry) GetByUsername(username string) (types.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.byUsername[username]; ok {
		return *u, true
	}
	return types.User{}, false
}

// ListOnline returns a snapshot of all currently online users. Order is
// unspecified.
func (r *IdentityRegistry) ListOnline() []types.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	online := make([]types.User, 0, len(r.byId))
	for _, u := range r.byId {
		if u.IsOnline {
			online = append(online, *u)
		}
	}
	return online
}
