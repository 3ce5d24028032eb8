package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/sirupsen/logrus"
)

// How many members a room snapshot echoes back; the registry itself
// always tracks the full set.
const displayUserCap = 10

// Hub tracks connected clients, their current question room, and fans
// events out to room members. Room membership is at most one room per
// connection; joining a second room implicitly leaves the first.
type Hub struct {
	mu sync.RWMutex
	// clients is keyed by connection id, rooms by question id.
	clients map[string]*Client
	rooms   map[uint]map[*Client]bool

	chat *services.ChatService
}

func NewHub(chat *services.ChatService) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[uint]map[*Client]bool),
		chat:    chat,
	}
}

// Register adds a freshly upgraded connection and announces the user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"conn_id": c.ID,
		"user_id": c.UserID,
	}).Info("ws: client connected")

	h.BroadcastAll(Event{Type: EvtUserOnline, Data: c.memberInfo()}, c)
}

// Unregister removes a connection. A dropped transport and an explicit
// disconnect both end up here, on the same cleanup path.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	h.leaveRoomLocked(c)
	delete(h.clients, c.ID)
	close(c.done)
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"conn_id": c.ID,
		"user_id": c.UserID,
	}).Info("ws: client disconnected")

	h.BroadcastAll(Event{Type: EvtUserOffline, Data: UserOffline{
		UserID:   c.UserID,
		Username: c.Username,
		LastSeen: time.Now(),
	}}, nil)
}

// JoinRoom moves a connection into a question room, leaving any previous
// room first. The joiner gets a room snapshot; the room gets a join
// notice that is not echoed back to the joiner.
func (h *Hub) JoinRoom(c *Client, questionID uint) {
	if questionID == 0 {
		return
	}

	h.mu.Lock()
	if c.room == questionID {
		h.mu.Unlock()
		return
	}
	h.leaveRoomLocked(c)

	if h.rooms[questionID] == nil {
		h.rooms[questionID] = make(map[*Client]bool)
	}
	h.rooms[questionID][c] = true
	c.room = questionID
	snapshot := h.roomSnapshotLocked(questionID)
	h.mu.Unlock()

	h.BroadcastToRoom(questionID, Event{Type: EvtUserJoinedRoom, Data: c.memberInfo()}, c)
	c.SendEvent(Event{Type: EvtRoomJoined, Data: snapshot})
}

// LeaveRoom detaches a connection from its room; no-op when roomless.
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	h.leaveRoomLocked(c)
	h.mu.Unlock()
}

// leaveRoomLocked removes c from its current room and queues the leave
// notice. Callers must hold h.mu.
func (h *Hub) leaveRoomLocked(c *Client) {
	if c.room == 0 {
		return
	}
	roomID := c.room
	c.room = 0

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}

	notice := Event{Type: EvtUserLeftRoom, Data: UserLeft{UserID: c.UserID, Username: c.Username}}
	payload, err := json.Marshal(notice)
	if err != nil {
		return
	}
	for member := range members {
		member.enqueue(payload)
	}
}

// RoomMembers returns the full membership snapshot for a question room.
func (h *Hub) RoomMembers(questionID uint) []MemberInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]MemberInfo, 0, len(h.rooms[questionID]))
	for c := range h.rooms[questionID] {
		members = append(members, c.memberInfo())
	}
	return members
}

// OnlineUsers returns everyone currently connected.
func (h *Hub) OnlineUsers() []MemberInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]MemberInfo, 0, len(h.clients))
	for _, c := range h.clients {
		users = append(users, c.memberInfo())
	}
	return users
}

func (h *Hub) roomSnapshotLocked(questionID uint) RoomSnapshot {
	members := h.rooms[questionID]
	snapshot := RoomSnapshot{
		QuestionID:  questionID,
		ActiveUsers: len(members),
		Users:       make([]MemberInfo, 0, displayUserCap),
	}
	for c := range members {
		if len(snapshot.Users) >= displayUserCap {
			break
		}
		snapshot.Users = append(snapshot.Users, c.memberInfo())
	}
	return snapshot
}

// BroadcastToRoom delivers an event to every member of a question room,
// optionally excluding one connection. Delivery is best-effort: a full
// send buffer means the message is dropped for that client.
func (h *Hub) BroadcastToRoom(questionID uint, event Event, exclude *Client) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("ws: marshal broadcast event")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[questionID]))
	for c := range h.rooms[questionID] {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(payload)
	}
}

// BroadcastAll delivers an event to every connected client.
func (h *Hub) BroadcastAll(event Event, exclude *Client) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("ws: marshal broadcast event")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(payload)
	}
}

// SendToUser delivers an event to every connection a user holds.
func (h *Hub) SendToUser(userID uint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("ws: marshal user event")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, 1)
	for _, c := range h.clients {
		if c.UserID == userID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(payload)
	}
}

// HandleMessage dispatches one parsed client message. Unknown types are
// logged and dropped.
func (h *Hub) HandleMessage(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.SendEvent(Event{Type: EvtError, Data: errorPayload("malformed message")})
		return
	}

	switch msg.Type {
	case EvtJoinQuestion:
		h.JoinRoom(c, msg.QuestionID)
	case EvtLeaveQuestion:
		h.LeaveRoom(c)
	case EvtTypingStart, EvtTypingStop:
		h.handleTyping(c, msg)
	case EvtSendMessage:
		h.handleChatMessage(c, msg)
	case EvtVoteCast:
		// Advisory only; the authoritative vote goes through the REST path.
		h.BroadcastToRoom(msg.QuestionID, Event{Type: EvtNotification, Data: Notification{
			Type:    "vote_cast",
			Title:   "Vote",
			Message: c.Username + " just voted",
		}}, c)
	case EvtGetOnlineUsers:
		c.SendEvent(Event{Type: EvtOnlineUsers, Data: h.OnlineUsers()})
	case EvtGetRoomUsers:
		members := h.RoomMembers(msg.QuestionID)
		c.SendEvent(Event{Type: EvtRoomUsers, Data: RoomSnapshot{
			QuestionID:  msg.QuestionID,
			ActiveUsers: len(members),
			Users:       members,
		}})
	case EvtPrivateMessage:
		h.handlePrivateMessage(c, msg)
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": c.ID,
			"type":    msg.Type,
		}).Warn("ws: unknown message type")
	}
}

func (h *Hub) handleTyping(c *Client, msg ClientMessage) {
	h.mu.RLock()
	inRoom := c.room == msg.QuestionID && msg.QuestionID != 0
	h.mu.RUnlock()
	if !inRoom {
		return
	}

	h.BroadcastToRoom(msg.QuestionID, Event{Type: EvtUserTyping, Data: UserTyping{
		UserID:   c.UserID,
		Username: c.Username,
		IsTyping: msg.Type == EvtTypingStart,
	}}, c)
}

func (h *Hub) handleChatMessage(c *Client, msg ClientMessage) {
	if msg.QuestionID == 0 || msg.Message == "" {
		c.SendEvent(Event{Type: EvtError, Data: errorPayload("question_id and message required")})
		return
	}

	saved, err := h.chat.SaveMessage(msg.QuestionID, c.UserID, msg.ParentID, msg.Message)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"conn_id":     c.ID,
			"question_id": msg.QuestionID,
		}).WithError(err).Error("ws: failed to save chat message")
		c.SendEvent(Event{Type: EvtError, Data: errorPayload("failed to send message")})
		return
	}

	// Chat is echoed to everyone including the sender, so every UI shows
	// the persisted message rather than an optimistic local copy.
	h.BroadcastToRoom(msg.QuestionID, Event{Type: EvtNewMessage, Data: NewMessage{
		QuestionID: msg.QuestionID,
		Message:    saved,
	}}, nil)
}

func (h *Hub) handlePrivateMessage(c *Client, msg ClientMessage) {
	if msg.RecipientID == 0 || msg.Message == "" {
		return
	}
	h.SendToUser(msg.RecipientID, Event{Type: EvtPrivateMessage, Data: PrivateMessage{
		FromUserID:   c.UserID,
		FromUsername: c.Username,
		Message:      msg.Message,
		SentAt:       time.Now(),
	}})
}

func errorPayload(msg string) map[string]string {
	return map[string]string{"message": msg}
}
