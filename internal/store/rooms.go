package store

import (
	"sync"

	"github.com/example/chathub/internal/types"
)

const privateRoomSeparator = "-private-"

// RoomDirectory maps room names to their cumulative participant sets. Rooms
// are created lazily on first join and never destroyed; participant sets only
// grow, independent of live presence.
type RoomDirectory struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry
}

type roomEntry struct {
	name         string
	participants map[int]struct{}
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		rooms: make(map[string]*roomEntry),
	}
}

// Join adds userId to the room's participant set, creating the room on first
// use. Rejoining is a no-op. The second return value reports whether the room
// was created by this call.
func (d *RoomDirectory) Join(name string, userId int) (types.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[name]
	if !ok {
		r = &roomEntry{
			name:         name,
			participants: make(map[int]struct{}),
		}
		d.rooms[name] = r
	}
	r.participants[userId] = struct{}{}

	return r.snapshot(), !ok
}

func (d *RoomDirectory) Get(name string) (types.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[name]
	if !ok {
		return types.Room{}, false
	}
	return r.snapshot(), true
}

func (d *RoomDirectory) List() []types.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]types.Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r.snapshot())
	}
	return rooms
}

func (r *roomEntry) snapshot() types.Room {
	participants := make([]int, 0, len(r.participants))
	for id := range r.participants {
		participants = append(participants, id)
	}
	return types.Room{
		Name:         r.name,
		Participants: participants,
	}
}

// PrivateRoomName derives the canonical room name for a private chat between
// two usernames. The name is independent of which side initiated the chat.
// A self-chat (a == b) degenerates to a name with both halves identical,
// which is a valid room.
func PrivateRoomName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + privateRoomSeparator + b
}
