package database

import "time"

// Message is the archive row for a routed chat message. Username is
// denormalized so archived rows stay readable without the in-memory identity
// registry.
type Message struct {
	Id        int
	Content   string
	SenderId  int
	Username  string
	Room      string
	CreatedAt time.Time
}
