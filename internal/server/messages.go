package server

import (
	"net/http"
	"time"

	"github.com/example/chathub/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the inbound event envelope. Exactly one variant pointer is
// expected to be set; anything else is rejected as malformed.
type ClientMessage struct {
	BaseMessage
	Join        *Join        `json:"join,omitempty"`
	JoinRoom    *JoinRoom    `json:"join_room,omitempty"`
	PrivateChat *PrivateChat `json:"private_chat,omitempty"`
	Publish     *Publish     `json:"publish,omitempty"`
	Typing      *Typing      `json:"typing,omitempty"`
	client      *Client
}

type Join struct {
	Username string `json:"username"`
}

type JoinRoom struct {
	RoomName string `json:"room_name"`
}

type PrivateChat struct {
	TargetUsername string `json:"target_username"`
}

type Publish struct {
	Content string `json:"content"`
}

type Typing struct {
	IsTyping bool `json:"is_typing"`
}

// ServerMessage is the outbound event envelope.
type ServerMessage struct {
	BaseMessage
	Response           *Response           `json:"response,omitempty"`
	UserJoined         *UserJoined         `json:"user_joined,omitempty"`
	UsersUpdate        *UsersUpdate        `json:"users_update,omitempty"`
	RoomJoined         *RoomJoined         `json:"room_joined,omitempty"`
	UserJoinedRoom     *UserJoinedRoom     `json:"user_joined_room,omitempty"`
	PrivateChatStarted *PrivateChatStarted `json:"private_chat_started,omitempty"`
	Message            *types.Message      `json:"message,omitempty"`
	UserTyping         *UserTyping         `json:"user_typing,omitempty"`
	// SkipClient excludes one connection from a room or global broadcast.
	SkipClient *Client `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type UserJoined struct {
	User types.User `json:"user"`
}

type UsersUpdate struct {
	OnlineUsers []types.User `json:"online_users"`
}

type RoomJoined struct {
	RoomName string          `json:"room_name"`
	Messages []types.Message `json:"messages"`
}

type UserJoinedRoom struct {
	Username string `json:"username"`
	RoomName string `json:"room_name"`
}

type PrivateChatStarted struct {
	RoomName   string          `json:"room_name"`
	TargetUser types.User      `json:"target_user"`
	Messages   []types.Message `json:"messages"`
}

type UserTyping struct {
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

func ErrUserNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "user not found",
		},
	}
}

func ErrNotJoined(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusPreconditionFailed,
			Error:        "connection has not joined",
		},
	}
}

func ErrBadContent(id int, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        reason,
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
