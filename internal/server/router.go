package server

import (
	"errors"
	"strings"

	"github.com/example/chathub/internal/database"
	"github.com/example/chathub/internal/store"
	"github.com/example/chathub/internal/types"
)

// handleClientMessage dispatches one inbound event. Any panic in a handler is
// contained here: it is logged and reported to the originating connection
// only, so a single bad event can never take down the process or corrupt
// other connections.
func (cs *ChatServer) handleClientMessage(msg *ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			cs.log.Printf("panic handling client message: %v", r)
			if msg.client != nil {
				msg.client.queueMessage(ErrInternalError(msg.Id))
			}
		}
	}()

	switch {
	case msg.Join != nil:
		cs.handleJoin(msg)
	case msg.JoinRoom != nil:
		cs.handleJoinRoom(msg)
	case msg.PrivateChat != nil:
		cs.handlePrivateChat(msg)
	case msg.Publish != nil:
		cs.handlePublish(msg)
	case msg.Typing != nil:
		cs.handleTyping(msg)
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (cs *ChatServer) handleJoin(msg *ClientMessage) {
	c := msg.client

	username := strings.TrimSpace(msg.Join.Username)
	if username == "" {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	// a re-join leaves whatever room the connection was in
	if binding, ok := cs.presence.Get(c.id); ok && binding.Room != "" {
		cs.subs.unsubscribe(binding.Room, c)
	}

	user, created := cs.identity.Join(username, c.id)
	cs.presence.Bind(c.id, user.Id, user.Username)
	c.user = user

	if created {
		cs.stats.Incr(statUsersRegistered)
	}

	cs.log.Printf("connection %q joined as %q", c.id, user.Username)

	c.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: Now(),
		},
		UserJoined: &UserJoined{User: user},
	})

	cs.broadcastUsersUpdate()
}

func (cs *ChatServer) handleJoinRoom(msg *ClientMessage) {
	c := msg.client

	binding, ok := cs.presence.Get(c.id)
	if !ok {
		c.queueMessage(ErrNotJoined(msg.Id))
		return
	}

	roomName := strings.TrimSpace(msg.JoinRoom.RoomName)
	if roomName == "" {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	cs.moveToRoom(c, binding, roomName)

	c.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: Now(),
		},
		RoomJoined: &RoomJoined{
			RoomName: roomName,
			Messages: cs.recentMessages(roomName, store.DefaultHistoryLimit),
		},
	})

	cs.broadcastRoom(roomName, &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		UserJoinedRoom: &UserJoinedRoom{
			Username: binding.Username,
			RoomName: roomName,
		},
		SkipClient: c,
	})
}

func (cs *ChatServer) handlePrivateChat(msg *ClientMessage) {
	c := msg.client

	binding, ok := cs.presence.Get(c.id)
	if !ok {
		c.queueMessage(ErrNotJoined(msg.Id))
		return
	}

	target, ok := cs.identity.GetByUsername(strings.TrimSpace(msg.PrivateChat.TargetUsername))
	if !ok {
		c.queueMessage(ErrUserNotFound(msg.Id))
		return
	}

	roomName := store.PrivateRoomName(binding.Username, target.Username)
	cs.moveToRoom(c, binding, roomName)

	recent := cs.recentMessages(roomName, store.DefaultHistoryLimit)

	c.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: Now(),
		},
		PrivateChatStarted: &PrivateChatStarted{
			RoomName:   roomName,
			TargetUser: target,
			Messages:   recent,
		},
	})

	// pull an online target into the private room on their own connection
	if !target.IsOnline || target.ConnectionId == c.id {
		return
	}
	targetClient, ok := cs.clients[target.ConnectionId]
	if !ok {
		return
	}
	targetBinding, ok := cs.presence.Get(target.ConnectionId)
	if !ok {
		return
	}

	cs.moveToRoom(targetClient, targetBinding, roomName)

	caller, _ := cs.identity.Get(binding.UserId)
	targetClient.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		PrivateChatStarted: &PrivateChatStarted{
			RoomName:   roomName,
			TargetUser: caller,
			Messages:   recent,
		},
	})
}

func (cs *ChatServer) handlePublish(msg *ClientMessage) {
	c := msg.client

	binding, ok := cs.presence.Get(c.id)
	if !ok || binding.Room == "" {
		// stale or out-of-order publish, drop without error
		return
	}

	m, err := cs.messages.Append(msg.Publish.Content, binding.UserId, binding.Room)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			c.queueMessage(ErrBadContent(msg.Id, vErr.Reason))
			return
		}
		cs.log.Println("append message:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	cs.stats.Incr(statMessagesSent)

	if sender, ok := cs.identity.Get(m.SenderId); ok {
		m.Sender = &sender
	}

	cs.broadcastRoom(binding.Room, &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: m.Timestamp,
		},
		Message: &m,
	})

	cs.offerToArchive(m)
}

func (cs *ChatServer) handleTyping(msg *ClientMessage) {
	c := msg.client

	binding, ok := cs.presence.Get(c.id)
	if !ok || binding.Room == "" {
		return
	}

	cs.broadcastRoom(binding.Room, &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		UserTyping: &UserTyping{
			Username: binding.Username,
			IsTyping: msg.Typing.IsTyping,
		},
		SkipClient: c,
	})
}

// handleDisconnect tears down a connection. It is idempotent: a connection
// already removed is ignored.
func (cs *ChatServer) handleDisconnect(c *Client) {
	if _, ok := cs.clients[c.id]; !ok {
		return
	}

	cs.log.Printf("removing connection %q", c.id)
	delete(cs.clients, c.id)
	cs.stats.Decr(statActiveConnections)

	binding, ok := cs.presence.Get(c.id)
	if !ok {
		return
	}

	if binding.Room != "" {
		cs.subs.unsubscribe(binding.Room, c)
	}
	cs.presence.Remove(c.id)

	// only mark the identity offline if this connection still owns it; a
	// reconnect may have migrated ownership to a newer connection
	if user, ok := cs.identity.Get(binding.UserId); ok && user.ConnectionId == c.id {
		cs.identity.MarkOffline(binding.UserId)
	}

	cs.broadcastUsersUpdate()
}

// moveToRoom switches a connection's room subscription and binding to
// roomName, registering the user as a room participant.
func (cs *ChatServer) moveToRoom(c *Client, binding store.Binding, roomName string) {
	if binding.Room != "" {
		cs.subs.unsubscribe(binding.Room, c)
	}

	if _, created := cs.rooms.Join(roomName, binding.UserId); created {
		cs.stats.Incr(statRoomsCreated)
	}
	cs.subs.subscribe(roomName, c)
	cs.presence.SetRoom(c.id, roomName)
}

func (cs *ChatServer) recentMessages(room string, limit int) []types.Message {
	msgs := cs.messages.RecentInRoom(room, limit)
	for i := range msgs {
		if sender, ok := cs.identity.Get(msgs[i].SenderId); ok {
			msgs[i].Sender = &sender
		}
	}
	return msgs
}

func (cs *ChatServer) broadcastUsersUpdate() {
	cs.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		UsersUpdate: &UsersUpdate{OnlineUsers: cs.identity.ListOnline()},
	})
}

func (cs *ChatServer) broadcast(msg *ServerMessage) {
	for _, c := range cs.clients {
		if c == msg.SkipClient {
			continue
		}
		c.queueMessage(msg)
	}
}

func (cs *ChatServer) broadcastRoom(room string, msg *ServerMessage) {
	for _, c := range cs.subs.clients(room) {
		if c == msg.SkipClient {
			continue
		}
		c.queueMessage(msg)
	}
}

func (cs *ChatServer) offerToArchive(m types.Message) {
	if cs.archiveChan == nil {
		return
	}

	rec := database.Message{
		Id:        m.Id,
		Content:   m.Content,
		SenderId:  m.SenderId,
		Room:      m.Room,
		CreatedAt: m.Timestamp,
	}
	if m.Sender != nil {
		rec.Username = m.Sender.Username
	}

	select {
	case cs.archiveChan <- rec:
	default:
		cs.log.Printf("archive queue full, dropping message %d", m.Id)
	}
}
