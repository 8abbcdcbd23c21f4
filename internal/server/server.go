package server

import (
	"context"
	"log"

	"github.com/example/chathub/internal/database"
	"github.com/example/chathub/internal/stats"
	"github.com/example/chathub/internal/store"
	"github.com/example/chathub/internal/types"
)

const (
	statActiveConnections = "ActiveConnections"
	statUsersRegistered   = "UsersRegistered"
	statRoomsCreated      = "RoomsCreated"
	statMessagesSent      = "MessagesSent"
)

// archiveQueueSize bounds the backlog of messages awaiting archival; the
// archive is best effort, so overflow drops rather than blocks.
const archiveQueueSize = 512

type stopRequest struct {
	done chan struct{}
}

// ChatServer owns the identity, presence, room and message stores and routes
// every inbound event. All store mutation happens on the Run goroutine, so
// each event is handled to completion before the next one is observed.
type ChatServer struct {
	log      *log.Logger
	stats    stats.StatsProvider
	archive  database.MessageArchive
	identity *store.IdentityRegistry
	presence *store.PresenceTable
	rooms    *store.RoomDirectory
	messages *store.MessageLog

	subs    *subscriptions
	clients map[string]*Client

	eventChan      chan *ClientMessage
	registerChan   chan *Client
	deRegisterChan chan *Client
	archiveChan    chan database.Message
	archiveDone    chan struct{}
	stop           chan stopRequest
	done           chan struct{}
}

// NewChatServer creates a chat server. archive may be nil, in which case
// messages are kept in memory only.
func NewChatServer(logger *log.Logger, archive database.MessageArchive, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		stats:          su,
		archive:        archive,
		identity:       store.NewIdentityRegistry(),
		presence:       store.NewPresenceTable(),
		rooms:          store.NewRoomDirectory(),
		messages:       store.NewMessageLog(),
		subs:           newSubscriptions(),
		clients:        make(map[string]*Client),
		eventChan:      make(chan *ClientMessage, 256),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan stopRequest),
		done:           make(chan struct{}),
	}

	for _, name := range []string{
		statActiveConnections,
		statUsersRegistered,
		statRoomsCreated,
		statMessagesSent,
	} {
		su.RegisterMetric(name)
	}

	if archive != nil {
		cs.archiveChan = make(chan database.Message, archiveQueueSize)
		cs.archiveDone = make(chan struct{})
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	defer close(cs.done)

	if cs.archive != nil {
		go cs.archiveLoop()
	}

	for {
		select {
		case c := <-cs.registerChan:
			cs.addClient(c)
		case c := <-cs.deRegisterChan:
			cs.handleDisconnect(c)
		case msg := <-cs.eventChan:
			cs.handleClientMessage(msg)
		case req := <-cs.stop:
			cs.log.Println("stopping chat server")
			for _, c := range cs.clients {
				c.stopClient()
			}
			if cs.archiveChan != nil {
				close(cs.archiveChan)
				<-cs.archiveDone
			}
			close(req.done)
			return
		}
	}
}

// RegisterClient hands a freshly upgraded connection to the run loop. The
// connection starts out unjoined; it carries no identity until its first join
// event.
func (cs *ChatServer) RegisterClient(c *Client) {
	select {
	case cs.registerChan <- c:
	case <-cs.done:
	}
}

func (cs *ChatServer) DeregisterClient(c *Client) {
	select {
	case cs.deRegisterChan <- c:
	case <-cs.done:
	}
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clients[c.id] = c
	cs.stats.Incr(statActiveConnections)
	cs.log.Printf("registered connection %q", c.id)
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopRequest{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) archiveLoop() {
	for msg := range cs.archiveChan {
		if err := cs.archive.SaveMessage(msg); err != nil {
			cs.log.Println("archive message:", err)
		}
	}
	close(cs.archiveDone)
}

// OnlineUsers returns a snapshot of all currently online users.
func (cs *ChatServer) OnlineUsers() []types.User {
	return cs.identity.ListOnline()
}

// Rooms returns a snapshot of the room directory.
func (cs *ChatServer) Rooms() []types.Room {
	return cs.rooms.List()
}

// RecentMessages returns up to limit most recent messages for room, oldest
// first, with senders resolved.
func (cs *ChatServer) RecentMessages(room string, limit int) []types.Message {
	return cs.recentMessages(room, limit)
}
