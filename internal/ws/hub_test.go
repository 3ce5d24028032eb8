package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/mathewgeejo/would-you-rather/internal/models"
	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestHub builds a hub over an in-memory database so chat messages
// can actually persist. Clients are created without a connection; the
// pumps never run, so queued events stay in the send channel where the
// tests can read them.
func newTestHub(t *testing.T) (*Hub, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.ChatMessage{},
	))

	return NewHub(services.NewChatService(db)), db
}

func newTestClient(hub *Hub, userID uint, username string) *Client {
	c := NewClient(hub, nil, userID, username, "")
	hub.Register(c)
	return c
}

// drainEvents decodes everything queued on the client's send channel.
func drainEvents(t *testing.T, c *Client) []Event {
	t.Helper()

	var events []Event
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return events
			}
			var event Event
			require.NoError(t, json.Unmarshal(payload, &event))
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func sendJSON(hub *Hub, c *Client, msg ClientMessage) {
	payload, _ := json.Marshal(msg)
	hub.HandleMessage(c, payload)
}

func TestRegister_AnnouncesToOthersNotSelf(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")

	bobEvents := drainEvents(t, bob)
	assert.Empty(t, bobEvents, "the joiner must not see their own presence event")

	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EvtUserOnline, aliceEvents[0].Type)
}

func TestJoinRoom_AtMostOneRoom(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")

	hub.JoinRoom(alice, 10)
	assert.EqualValues(t, 10, alice.Room())
	assert.Len(t, hub.RoomMembers(10), 1)

	hub.JoinRoom(alice, 20)
	assert.EqualValues(t, 20, alice.Room())
	assert.Empty(t, hub.RoomMembers(10), "joining a second room leaves the first")
	assert.Len(t, hub.RoomMembers(20), 1)
}

func TestJoinRoom_SameRoomIsNoop(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")

	hub.JoinRoom(alice, 10)
	drainEvents(t, alice)

	hub.JoinRoom(alice, 10)
	assert.Empty(t, drainEvents(t, alice), "re-joining the same room produces no events")
	assert.Len(t, hub.RoomMembers(10), 1)
}

func TestJoinRoom_SnapshotAndJoinNotice(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")

	hub.JoinRoom(alice, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	hub.JoinRoom(bob, 10)

	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EvtUserJoinedRoom, aliceEvents[0].Type)

	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EvtRoomJoined, bobEvents[0].Type)
	data := bobEvents[0].Data.(map[string]interface{})
	assert.EqualValues(t, 2, data["active_users"])
}

func TestLeaveRoom_NotifiesRemaining(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, 10)
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	hub.LeaveRoom(bob)

	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EvtUserLeftRoom, aliceEvents[0].Type)
	assert.Empty(t, hub.RoomMembers(10), "empty rooms are dropped from the registry")
	assert.Zero(t, bob.Room())
}

func TestTyping_NotEchoedToActor(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, 10)
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	sendJSON(hub, alice, ClientMessage{Type: EvtTypingStart, QuestionID: 10})

	assert.Empty(t, drainEvents(t, alice), "the typist must not see their own typing event")

	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EvtUserTyping, bobEvents[0].Type)
	data := bobEvents[0].Data.(map[string]interface{})
	assert.Equal(t, true, data["is_typing"])
	assert.Equal(t, "alice", data["username"])
}

func TestTyping_IgnoredOutsideRoom(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	// alice is not in room 10, so her typing claim is dropped.
	sendJSON(hub, alice, ClientMessage{Type: EvtTypingStart, QuestionID: 10})
	assert.Empty(t, drainEvents(t, bob))
}

func TestChatMessage_PersistedAndEchoedToAll(t *testing.T) {
	hub, db := newTestHub(t)

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", IsActive: true, Level: 1}
	require.NoError(t, db.Create(&user).Error)
	question := models.Question{AuthorID: user.ID, OptionA: "A", OptionB: "B", Status: models.QuestionStatusApproved, IsActive: true}
	require.NoError(t, db.Create(&question).Error)

	alice := newTestClient(hub, user.ID, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, question.ID)
	hub.JoinRoom(bob, question.ID)
	drainEvents(t, alice)
	drainEvents(t, bob)

	sendJSON(hub, alice, ClientMessage{Type: EvtSendMessage, QuestionID: question.ID, Message: "hello room"})

	aliceEvents := drainEvents(t, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, EvtNewMessage, aliceEvents[0].Type, "sender sees the persisted copy too")

	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EvtNewMessage, bobEvents[0].Type)

	var count int64
	db.Model(&models.ChatMessage{}).Where("question_id = ?", question.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestChatMessage_UnknownQuestionErrors(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	hub.JoinRoom(alice, 10)
	drainEvents(t, alice)

	sendJSON(hub, alice, ClientMessage{Type: EvtSendMessage, QuestionID: 9999, Message: "hello"})

	events := drainEvents(t, alice)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Type)
}

func TestVoteCast_AdvisoryToOthers(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, 10)
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	sendJSON(hub, alice, ClientMessage{Type: EvtVoteCast, QuestionID: 10, Choice: "A"})

	assert.Empty(t, drainEvents(t, alice))
	bobEvents := drainEvents(t, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, EvtNotification, bobEvents[0].Type)
}

func TestUnregister_CleansUpAndAnnouncesOffline(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, 10)
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	hub.Unregister(bob)

	assert.Len(t, hub.OnlineUsers(), 1)
	assert.Len(t, hub.RoomMembers(10), 1)

	aliceEvents := drainEvents(t, alice)
	assert.Equal(t, []string{EvtUserLeftRoom, EvtUserOffline}, eventTypes(aliceEvents))

	// Double unregister is a no-op.
	hub.Unregister(bob)
}

func TestBroadcast_AfterDisconnectIsDropped(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bob := newTestClient(hub, 2, "bob")
	hub.JoinRoom(alice, 10)
	hub.JoinRoom(bob, 10)
	drainEvents(t, alice)
	drainEvents(t, bob)

	// Broadcasters snapshot their targets under a read lock and deliver
	// after releasing it, so a delivery can land on a connection the hub
	// has already dropped. That delivery must be discarded silently.
	hub.Unregister(bob)
	bob.enqueue([]byte(`{"type":"vote_update"}`))
	bob.SendEvent(Event{Type: EvtNotification, Data: errorPayload("late")})

	assert.Empty(t, drainEvents(t, bob))
}

func TestBroadcast_ConcurrentWithDisconnects(t *testing.T) {
	hub, _ := newTestHub(t)
	anchor := newTestClient(hub, 1, "anchor")
	hub.JoinRoom(anchor, 10)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.BroadcastToRoom(10, Event{Type: EvtUserTyping, Data: UserTyping{UserID: 1}}, nil)
					hub.BroadcastAll(Event{Type: EvtNotification, Data: errorPayload("x")}, nil)
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		c := newTestClient(hub, uint(i+2), fmt.Sprintf("churn%d", i))
		hub.JoinRoom(c, 10)
		hub.Unregister(c)
		drainEvents(t, anchor)
	}
	close(stop)
	wg.Wait()

	assert.Len(t, hub.OnlineUsers(), 1)
	assert.Len(t, hub.RoomMembers(10), 1)
}

func TestPrivateMessage_ReachesEveryRecipientConnection(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	bobPhone := newTestClient(hub, 2, "bob")
	bobLaptop := newTestClient(hub, 2, "bob")
	drainEvents(t, alice)
	drainEvents(t, bobPhone)
	drainEvents(t, bobLaptop)

	sendJSON(hub, alice, ClientMessage{Type: EvtPrivateMessage, RecipientID: 2, Message: "psst"})

	for _, c := range []*Client{bobPhone, bobLaptop} {
		events := drainEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, EvtPrivateMessage, events[0].Type)
		data := events[0].Data.(map[string]interface{})
		assert.Equal(t, "psst", data["message"])
		assert.EqualValues(t, 1, data["from_user_id"])
	}
	assert.Empty(t, drainEvents(t, alice))
}

func TestHandleMessage_Malformed(t *testing.T) {
	hub, _ := newTestHub(t)
	alice := newTestClient(hub, 1, "alice")
	drainEvents(t, alice)

	hub.HandleMessage(alice, []byte("{not json"))

	events := drainEvents(t, alice)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Type)
}

func TestRoomSnapshot_CapsDisplayedUsers(t *testing.T) {
	hub, _ := newTestHub(t)

	var last *Client
	for i := 0; i < displayUserCap+3; i++ {
		c := newTestClient(hub, uint(i+1), fmt.Sprintf("user%d", i))
		hub.JoinRoom(c, 10)
		last = c
	}
	drainEvents(t, last)

	sendJSON(hub, last, ClientMessage{Type: EvtGetRoomUsers, QuestionID: 10})
	events := drainEvents(t, last)
	require.Len(t, events, 1)
	assert.Equal(t, EvtRoomUsers, events[0].Type)
	data := events[0].Data.(map[string]interface{})
	assert.EqualValues(t, displayUserCap+3, data["active_users"])
	assert.Len(t, data["users"].([]interface{}), displayUserCap+3,
		"the explicit room query returns the full membership")

	// The join snapshot is the capped view.
	late := newTestClient(hub, 99, "late")
	hub.JoinRoom(late, 10)
	events = drainEvents(t, late)
	require.Len(t, events, 1)
	require.Equal(t, EvtRoomJoined, events[0].Type)
	snapshot := events[0].Data.(map[string]interface{})
	assert.EqualValues(t, displayUserCap+4, snapshot["active_users"])
	assert.Len(t, snapshot["users"].([]interface{}), displayUserCap)
}
