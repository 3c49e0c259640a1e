package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/apperrors"
	"collab-service/internal/logging"
	"collab-service/internal/mocks"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
)

type frame struct {
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *apperrors.Body `json:"error"`
}

func testClient(userID string) *Client {
	return NewClient(nil, ConnInfo{ConnID: newConnID(), UserID: userID, ConnectedAt: time.Now()})
}

func drain(t *testing.T, c *Client) []frame {
	t.Helper()
	var frames []frame
	for {
		select {
		case raw := <-c.send:
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func strPtr(s string) *string { return &s }

func privateChat() models.ChatDetails {
	return models.ChatDetails{
		Chat: models.Chat{ID: "c1", Type: models.ChatPrivate, User1ID: strPtr("u1"), User2ID: strPtr("u2")},
		Participants: []models.User{
			{ID: "u1", Username: "alice"},
			{ID: "u2", Username: "bob"},
		},
	}
}

func projectChat() models.ChatDetails {
	project := models.Project{ID: "p1", OwnerID: "u1", Title: "Launch"}
	return models.ChatDetails{
		Chat:         models.Chat{ID: "c2", Type: models.ChatProject, ProjectID: strPtr("p1")},
		Participants: []models.User{{ID: "u1"}, {ID: "u2"}},
		Project:      &project,
	}
}

func storedMessage(chatID, senderID, text string) models.MessageWithSender {
	return models.MessageWithSender{
		ChatMessage: models.ChatMessage{ID: "m1", ChatID: chatID, SenderID: senderID, Text: text, CreatedAt: time.Now()},
		Sender:      models.User{ID: senderID, Username: "alice"},
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())
	a, b := testClient("u1"), testClient("u1")

	hub.Register(a)
	hub.Register(b)
	hub.Join(ChatRoom("c1"), a)
	assert.Len(t, hub.ResolveConnections("u1"), 2)
	assert.Equal(t, 2, hub.ConnectionCount())

	hub.Unregister(a)
	assert.Equal(t, []*Client{b}, hub.ResolveConnections("u1"))
	assert.NotContains(t, hub.rooms, ChatRoom("c1"))

	hub.Unregister(b)
	assert.Empty(t, hub.ResolveConnections("u1"))
	assert.NotContains(t, hub.users, "u1")
}

func TestHubResolveConnectionsInRoom(t *testing.T) {
	hub := NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())
	inRoom, elsewhere := testClient("u2"), testClient("u2")
	hub.Register(inRoom)
	hub.Register(elsewhere)

	assert.Len(t, hub.ResolveConnectionsInRoom("u2", "chat:none"), 2, "missing room falls back to all connections")

	hub.Join("chat:c1", inRoom)
	assert.Equal(t, []*Client{inRoom}, hub.ResolveConnectionsInRoom("u2", "chat:c1"))

	hub.Leave("chat:c1", inRoom)
	assert.Len(t, hub.ResolveConnectionsInRoom("u2", "chat:c1"), 2)
}

func TestHubBroadcastDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())
	client := testClient("u1")
	hub.Register(client)

	for i := 0; i < sendQueueSize+5; i++ {
		require.NoError(t, hub.BroadcastToUser("u1", "ping", i))
	}
	assert.Len(t, drain(t, client), sendQueueSize)
}

func TestHubBroadcastToOfflineUserIsSilent(t *testing.T) {
	hub := NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())
	assert.NoError(t, hub.BroadcastToUser("ghost", "ping", nil))
}

func TestClientEnqueueAfterClose(t *testing.T) {
	client := testClient("u1")
	client.Close()
	client.Close()
	assert.False(t, client.Enqueue([]byte("x")))
}

func TestHubBroadcastToProjectMembersFailsOnQueryError(t *testing.T) {
	projects := new(mocks.ProjectRepositoryMock)
	projects.On("ListMemberIDs", mock.Anything, "p1").Return(nil, errors.New("db down"))
	hub := NewHub(projects, logging.Discard())

	err := hub.BroadcastToProjectMembers(context.Background(), "p1", EventMessageSent, nil)
	assert.Error(t, err)
}

// u1 and u2 share private chat c1; u1 sends "hi".
func TestSendPrivateMessageReachesOnlyOtherParticipant(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	hub := NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())

	chats.On("GetDetails", mock.Anything, "c1").Return(privateChat(), nil)
	messages.On("Create", mock.Anything, "c1", "u1", "hi").Return(storedMessage("c1", "u1", "hi"), nil).Once()

	senderTab, senderOtherTab := testClient("u1"), testClient("u1")
	recipient, stranger := testClient("u2"), testClient("u3")
	for _, c := range []*Client{senderTab, senderOtherTab, recipient, stranger} {
		hub.Register(c)
	}

	svc := NewMessageService(chats, messages, hub, logging.Discard())
	msg, err := svc.Send(context.Background(), "u1", "c1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "c1", msg.ChatID)

	got := drain(t, recipient)
	require.Len(t, got, 1)
	assert.Equal(t, EventMessageSent, got[0].Event)

	var payload MessageSentEvent
	require.NoError(t, json.Unmarshal(got[0].Data, &payload))
	assert.Equal(t, "m1", payload.Message.ID)
	assert.Equal(t, "u1", payload.Message.Sender.ID)
	assert.Equal(t, "c1", payload.Chat.ID)

	assert.Empty(t, drain(t, senderTab))
	assert.Empty(t, drain(t, senderOtherTab))
	assert.Empty(t, drain(t, stranger))
	messages.AssertExpectations(t)
}

func TestSendMissingChatPersistsNothing(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	chats.On("GetDetails", mock.Anything, "nope").Return(models.ChatDetails{}, repositories.ErrChatNotFound)

	svc := NewMessageService(chats, messages, NewHub(new(mocks.ProjectRepositoryMock), logging.Discard()), logging.Discard())
	_, err := svc.Send(context.Background(), "u1", "nope", "hi")

	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsNonParticipant(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	chats.On("GetDetails", mock.Anything, "c1").Return(privateChat(), nil)

	svc := NewMessageService(chats, messages, NewHub(new(mocks.ProjectRepositoryMock), logging.Discard()), logging.Discard())
	_, err := svc.Send(context.Background(), "u3", "c1", "hi")

	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsBlankAndOversizedText(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	chats.On("GetDetails", mock.Anything, "c1").Return(privateChat(), nil)
	svc := NewMessageService(chats, new(mocks.MessageRepositoryMock), NewHub(new(mocks.ProjectRepositoryMock), logging.Discard()), logging.Discard())

	_, err := svc.Send(context.Background(), "u1", "c1", "   ")
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	long := make([]rune, MaxMessageLength+1)
	for i := range long {
		long[i] = 'я'
	}
	_, err = svc.Send(context.Background(), "u1", "c1", string(long))
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestSendProjectMessageUsesCurrentMembers(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	projects := new(mocks.ProjectRepositoryMock)
	hub := NewHub(projects, logging.Discard())

	// The loaded chat only knows u1 and u2; u4 joined afterwards.
	chats.On("GetDetails", mock.Anything, "c2").Return(projectChat(), nil)
	messages.On("Create", mock.Anything, "c2", "u1", "standup").Return(storedMessage("c2", "u1", "standup"), nil)
	projects.On("ListMemberIDs", mock.Anything, "p1").Return([]string{"u1", "u2", "u4"}, nil).Once()

	sender, member, newcomer, outsider := testClient("u1"), testClient("u2"), testClient("u4"), testClient("u9")
	for _, c := range []*Client{sender, member, newcomer, outsider} {
		hub.Register(c)
	}

	svc := NewMessageService(chats, messages, hub, logging.Discard())
	_, err := svc.Send(context.Background(), "u1", "c2", "standup")
	require.NoError(t, err)

	assert.Len(t, drain(t, sender), 1)
	assert.Len(t, drain(t, member), 1)
	assert.Len(t, drain(t, newcomer), 1)
	assert.Empty(t, drain(t, outsider))
	projects.AssertExpectations(t)
}

func TestSendProjectMessageFailsWhenMemberQueryFails(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	projects := new(mocks.ProjectRepositoryMock)

	chats.On("GetDetails", mock.Anything, "c2").Return(projectChat(), nil)
	messages.On("Create", mock.Anything, "c2", "u1", "standup").Return(storedMessage("c2", "u1", "standup"), nil)
	projects.On("ListMemberIDs", mock.Anything, "p1").Return(nil, errors.New("db down"))

	svc := NewMessageService(chats, messages, NewHub(projects, logging.Discard()), logging.Discard())
	_, err := svc.Send(context.Background(), "u1", "c2", "standup")

	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestSendStoresTextAsReceived(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	chats.On("GetDetails", mock.Anything, "c1").Return(privateChat(), nil)
	messages.On("Create", mock.Anything, "c1", "u1", "  see you at 10\n").Return(storedMessage("c1", "u1", "  see you at 10\n"), nil).Once()

	svc := NewMessageService(chats, messages, NewHub(new(mocks.ProjectRepositoryMock), logging.Discard()), logging.Discard())
	msg, err := svc.Send(context.Background(), "u1", "c1", "  see you at 10\n")

	require.NoError(t, err)
	assert.Equal(t, "  see you at 10\n", msg.Text)
	messages.AssertExpectations(t)
}

func TestNewConnIDIsUnique(t *testing.T) {
	a, b := newConnID(), newConnID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
