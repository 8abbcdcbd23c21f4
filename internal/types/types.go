package types

import (
	"time"
)

type User struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
	// ConnectionId is the transport handle of the user's live connection,
	// empty while the user is offline.
	ConnectionId string `json:"-"`
}

type Message struct {
	Id       int    `json:"id"`
	Content  string `json:"content"`
	SenderId int    `json:"sender_id"`
	// Sender is resolved against the identity registry at query time and
	// omitted if the sender no longer resolves.
	Sender    *User     `json:"sender,omitempty"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

type Room struct {
	Name         string `json:"name"`
	Participants []int  `json:"participants"`
}
