package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/chathub/internal/types"
)

const (
	// MaxContentLength bounds the length of a message after trimming.
	MaxContentLength = 1000
	// DefaultHistoryLimit is the number of messages returned for a room when
	// no explicit limit is given.
	DefaultHistoryLimit = 50
)

// MessageLog is the append-only global message sequence. Messages are totally
// ordered by id and never mutated or deleted.
type MessageLog struct {
	mu       sync.RWMutex
	messages []types.Message
	nextId   int
}

func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append validates content and appends a new message to the log. It returns a
// *ValidationError if the trimmed content is empty or exceeds
// MaxContentLength; nothing is appended in that case.
func (l *MessageLog) Append(content string, senderId int, room string) (types.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Message{}, &ValidationError{Reason: "message content is empty"}
	}
	if len(content) > MaxContentLength {
		return types.Message{}, &ValidationError{
			Reason: fmt.Sprintf("message content exceeds %d characters", MaxContentLength),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextId++
	msg := types.Message{
		Id:        l.nextId,
		Content:   content,
		SenderId:  senderId,
		Room:      room,
		Timestamp: time.Now().UTC().Round(time.Millisecond),
	}
	l.messages = append(l.messages, msg)

	return msg, nil
}

// RecentInRoom returns up to limit most recent messages for room, oldest
// first. A non-positive limit falls back to DefaultHistoryLimit.
func (l *MessageLog) RecentInRoom(room string, limit int) []types.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	recent := make([]types.Message, 0, limit)
	for i := len(l.messages) - 1; i >= 0 && len(recent) < limit; i-- {
		if l.messages[i].Room == room {
			recent = append(recent, l.messages[i])
		}
	}
	slices.Reverse(recent)

	return recent
}

func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.messages)
}
