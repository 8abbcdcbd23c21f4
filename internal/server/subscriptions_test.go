package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptions(t *testing.T) {
	subs := newSubscriptions()
	c1 := &Client{id: "conn-1"}
	c2 := &Client{id: "conn-2"}

	assert.Empty(t, subs.clients("general"), "expected no subscribers initially")

	subs.subscribe("general", c1)
	subs.subscribe("general", c2)
	assert.True(t, subs.contains("general", c1), "expected c1 subscribed")
	assert.Len(t, subs.clients("general"), 2, "expected both subscribers")

	subs.unsubscribe("general", c1)
	assert.False(t, subs.contains("general", c1), "expected c1 unsubscribed")
	assert.Len(t, subs.clients("general"), 1, "expected one subscriber left")

	// unsubscribing a client that is not subscribed is a no-op
	subs.unsubscribe("general", c1)
	subs.unsubscribe("nowhere", c1)
	assert.Len(t, subs.clients("general"), 1, "expected membership unchanged")

	subs.unsubscribe("general", c2)
	assert.Empty(t, subs.clients("general"), "expected empty room")
	assert.NotContains(t, subs.rooms, "general", "expected empty room entry removed")
}
