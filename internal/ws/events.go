package ws

import (
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"
)

// Event is the envelope for everything sent over a websocket.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client-to-server message types.
const (
	EvtJoinQuestion   = "join_question"
	EvtLeaveQuestion  = "leave_question"
	EvtTypingStart    = "typing_start"
	EvtTypingStop     = "typing_stop"
	EvtSendMessage    = "send_message"
	EvtVoteCast       = "vote_cast"
	EvtGetOnlineUsers = "get_online_users"
	EvtGetRoomUsers   = "get_room_users"
	EvtPrivateMessage = "private_message"
)

// Server-to-client event types.
const (
	EvtVoteUpdate     = "vote_update"
	EvtBadgesEarned   = "badges_earned"
	EvtNewMessage     = "new_message"
	EvtUserJoinedRoom = "user_joined_room"
	EvtUserLeftRoom   = "user_left_room"
	EvtUserTyping     = "user_typing"
	EvtUserOnline     = "user_online"
	EvtUserOffline    = "user_offline"
	EvtRoomJoined     = "room_joined"
	EvtRoomUsers      = "room_users"
	EvtOnlineUsers    = "online_users"
	EvtNotification   = "notification"
	EvtError          = "error"
)

// ClientMessage is the parsed form of an incoming websocket message.
type ClientMessage struct {
	Type        string `json:"type"`
	QuestionID  uint   `json:"question_id,omitempty"`
	Message     string `json:"message,omitempty"`
	ParentID    *uint  `json:"parent_id,omitempty"`
	RecipientID uint   `json:"recipient_id,omitempty"`
	Choice      string `json:"choice,omitempty"`
}

type VoteUpdate struct {
	QuestionID uint   `json:"question_id"`
	Choice     string `json:"choice"`
	TotalVotes int    `json:"total_votes"`
	PercentA   int    `json:"option_a_percentage"`
	PercentB   int    `json:"option_b_percentage"`
	Voter      string `json:"voter"`
}

type MemberInfo struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status"`
}

type UserLeft struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

type UserOffline struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	LastSeen time.Time `json:"last_seen"`
}

type UserTyping struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type RoomSnapshot struct {
	QuestionID  uint         `json:"question_id"`
	ActiveUsers int          `json:"active_users"`
	Users       []MemberInfo `json:"users"`
}

type NewMessage struct {
	QuestionID uint                `json:"question_id"`
	Message    *models.ChatMessage `json:"message"`
}

type PrivateMessage struct {
	FromUserID   uint      `json:"from_user_id"`
	FromUsername string    `json:"from_username"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sent_at"`
}

type Notification struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
