package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/chathub/internal/database"
	"github.com/example/chathub/internal/stats"
	"github.com/example/chathub/internal/testutil"
)

func TestNewChatServer(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", statActiveConnections).Return(nil).Once()
	su.On("RegisterMetric", statUsersRegistered).Return(nil).Once()
	su.On("RegisterMetric", statRoomsCreated).Return(nil).Once()
	su.On("RegisterMetric", statMessagesSent).Return(nil).Once()

	cs, err := NewChatServer(testutil.TestLogger(t), nil, su)
	require.NoError(t, err, "expected no error creating ChatServer")

	assert.NotNil(t, cs.identity, "expected identity registry")
	assert.NotNil(t, cs.presence, "expected presence table")
	assert.NotNil(t, cs.rooms, "expected room directory")
	assert.NotNil(t, cs.messages, "expected message log")
	assert.NotNil(t, cs.subs, "expected subscriptions")
	assert.NotNil(t, cs.clients, "expected clients map")
	assert.Nil(t, cs.archiveChan, "expected no archive queue without an archive")
	su.AssertExpectations(t)
}

func TestNewChatServerWithArchive(t *testing.T) {
	archive := &database.MockMessageArchive{}
	cs := newTestChatServer(t, archive, &stats.MockStatsUpdater{})

	assert.NotNil(t, cs.archiveChan, "expected archive queue")
	assert.NotNil(t, cs.archiveDone, "expected archive done channel")
}

func TestChatServerRun(t *testing.T) {
	cs := newTestChatServer(t, nil, &stats.MockStatsUpdater{})
	go cs.Run()

	c := &Client{
		id:         "conn-1",
		chatServer: cs,
		log:        testutil.TestLogger(t),
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
	cs.RegisterClient(c)

	cs.eventChan <- &ClientMessage{Join: &Join{Username: "alice"}, client: c}

	select {
	case msg := <-c.send:
		require.NotNil(t, msg.UserJoined, "expected user_joined from the run loop")
		assert.Equal(t, "alice", msg.UserJoined.User.Username, "expected joined username")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for join reply")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx), "expected clean shutdown")

	select {
	case <-c.stop:
	default:
		t.Error("expected client to be stopped on shutdown")
	}

	select {
	case <-cs.done:
	case <-time.After(time.Second):
		t.Error("expected run loop to have exited")
	}
}

func TestChatServerShutdown(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cs := newTestChatServer(t, nil, &stats.MockStatsUpdater{})
		go cs.Run()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx), "expected no error shutting down")
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		cs := newTestChatServer(t, nil, &stats.MockStatsUpdater{})

		// no run loop to receive the stop request
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, cs.Shutdown(ctx), context.DeadlineExceeded,
			"expected deadline error when the run loop is not draining")
	})
}

func TestArchiveLoopDrainsOnShutdown(t *testing.T) {
	archive := &database.MockMessageArchive{}
	archive.On("SaveMessage", mock.MatchedBy(func(m database.Message) bool {
		return m.Content == "hi" && m.Room == "general" && m.Username == "alice"
	})).Return(nil).Once()

	cs := newTestChatServer(t, archive, &stats.MockStatsUpdater{})
	go cs.Run()

	c := &Client{
		id:         "conn-1",
		chatServer: cs,
		log:        testutil.TestLogger(t),
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
	cs.RegisterClient(c)
	cs.eventChan <- &ClientMessage{Join: &Join{Username: "alice"}, client: c}
	cs.eventChan <- &ClientMessage{JoinRoom: &JoinRoom{RoomName: "general"}, client: c}
	cs.eventChan <- &ClientMessage{Publish: &Publish{Content: "hi"}, client: c}

	// shutdown closes the archive queue and waits for the loop to finish
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx), "expected clean shutdown")

	archive.AssertExpectations(t)
}

func TestRegisterClientAfterShutdown(t *testing.T) {
	cs := newTestChatServer(t, nil, &stats.MockStatsUpdater{})
	go cs.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cs.Shutdown(ctx), "expected clean shutdown")

	done := make(chan struct{})
	go func() {
		defer close(done)
		cs.RegisterClient(&Client{id: "late"})
		cs.DeregisterClient(&Client{id: "late"})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected register/deregister not to block after shutdown")
	}
}

func TestChatServerSnapshots(t *testing.T) {
	cs := newTestChatServer(t, nil, &stats.MockStatsUpdater{})
	c := newTestClient(t, cs, "conn-1")
	joinAs(t, cs, c, "alice")
	joinRoomAs(t, cs, c, "general")
	cs.handlePublish(&ClientMessage{Publish: &Publish{Content: "hi"}, client: c})

	users := cs.OnlineUsers()
	require.Len(t, users, 1, "expected one online user")
	assert.Equal(t, "alice", users[0].Username, "expected alice online")

	rooms := cs.Rooms()
	require.Len(t, rooms, 1, "expected one room")
	assert.Equal(t, "general", rooms[0].Name, "expected the general room")

	msgs := cs.RecentMessages("general", 10)
	require.Len(t, msgs, 1, "expected one message")
	assert.Equal(t, "hi", msgs[0].Content, "expected message content")
	require.NotNil(t, msgs[0].Sender, "expected resolved sender")
	assert.Equal(t, "alice", msgs[0].Sender.Username, "expected sender username")
}
