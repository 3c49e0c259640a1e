package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/logging"
	"collab-service/internal/middleware"
	"collab-service/internal/mocks"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testRouter injects userID the way the access guard does.
func testRouter(userID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func do(r *gin.Engine, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func strPtr(s string) *string { return &s }

func privateChatDetails() models.ChatDetails {
	return models.ChatDetails{
		Chat:         models.Chat{ID: "c1", Type: models.ChatPrivate, User1ID: strPtr("u1"), User2ID: strPtr("u2"), CreatedAt: time.Now()},
		Participants: []models.User{{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"}},
	}
}

type chatFixture struct {
	chats         *mocks.ChatRepositoryMock
	messages      *mocks.MessageRepositoryMock
	relationships *mocks.RelationshipRepositoryMock
	router        *gin.Engine
}

func newChatFixture(userID string) chatFixture {
	f := chatFixture{
		chats:         new(mocks.ChatRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		relationships: new(mocks.RelationshipRepositoryMock),
	}
	hub := ws.NewHub(new(mocks.ProjectRepositoryMock), logging.Discard())
	ingress := ws.NewMessageService(f.chats, f.messages, hub, logging.Discard())
	handler := NewChatHandler(f.chats, f.messages, f.relationships, ingress)

	f.router = testRouter(userID)
	f.router.GET("/chats", handler.ListChats)
	f.router.POST("/chats/private", handler.StartChat)
	f.router.GET("/chats/:id/messages", handler.GetChatMessages)
	f.router.POST("/chats/:id/messages", handler.PostChatMessage)
	return f
}

func TestListChatsSuccess(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("ListForUser", mock.Anything, "u1").Return([]models.ChatDetails{privateChatDetails()}, nil).Once()

	rec := do(f.router, http.MethodGet, "/chats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []struct {
			ID           string `json:"id"`
			Participants []struct {
				Username string `json:"username"`
			} `json:"participants"`
		} `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, "c1", resp.Chats[0].ID)
	assert.Len(t, resp.Chats[0].Participants, 2)
	f.chats.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("ListForUser", mock.Anything, "u1").Return(nil, assert.AnError).Once()

	rec := do(f.router, http.MethodGet, "/chats", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", errorCode(t, rec))
}

func TestStartChatSuccess(t *testing.T) {
	f := newChatFixture("u1")
	f.relationships.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()
	f.chats.On("CreateOrGetPrivate", mock.Anything, "u1", "u2").Return(privateChatDetails().Chat, nil).Once()
	f.chats.On("GetDetails", mock.Anything, "c1").Return(privateChatDetails(), nil).Once()

	rec := do(f.router, http.MethodPost, "/chats/private", jsonBody(t, gin.H{"userId": "u2"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c1"`)
	f.chats.AssertExpectations(t)
}

func TestStartChatRequiresFriendship(t *testing.T) {
	f := newChatFixture("u1")
	f.relationships.On("AreFriends", mock.Anything, "u1", "u3").Return(false, nil).Once()

	rec := do(f.router, http.MethodPost, "/chats/private", jsonBody(t, gin.H{"userId": "u3"}))

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.chats.AssertNotCalled(t, "CreateOrGetPrivate", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartChatWithSelf(t *testing.T) {
	f := newChatFixture("u1")

	rec := do(f.router, http.MethodPost, "/chats/private", jsonBody(t, gin.H{"userId": "u1"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.relationships.AssertNotCalled(t, "AreFriends", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartChatMissingUserID(t *testing.T) {
	f := newChatFixture("u1")

	rec := do(f.router, http.MethodPost, "/chats/private", jsonBody(t, gin.H{}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"userId"`)
}

func TestGetChatMessagesUnknownChat(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("GetByID", mock.Anything, "nope").Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	rec := do(f.router, http.MethodGet, "/chats/nope/messages", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestGetChatMessagesForbiddenForOutsider(t *testing.T) {
	f := newChatFixture("u3")
	f.chats.On("GetByID", mock.Anything, "c1").Return(privateChatDetails().Chat, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, "c1", "u3").Return(false, nil).Once()

	rec := do(f.router, http.MethodGet, "/chats/c1/messages", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.messages.AssertNotCalled(t, "ListByChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetChatMessagesSuccess(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("GetByID", mock.Anything, "c1").Return(privateChatDetails().Chat, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	f.messages.On("ListByChat", mock.Anything, "c1", 20).Return([]models.MessageWithSender{
		{ChatMessage: models.ChatMessage{ID: "m1", ChatID: "c1", SenderID: "u2", Text: "first"}, Sender: models.User{ID: "u2", Username: "bob"}},
		{ChatMessage: models.ChatMessage{ID: "m2", ChatID: "c1", SenderID: "u1", Text: "second"}, Sender: models.User{ID: "u1", Username: "alice"}},
	}, nil).Once()

	rec := do(f.router, http.MethodGet, "/chats/c1/messages?limit=20", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []struct {
			ID     string `json:"id"`
			Sender struct {
				Username string `json:"username"`
			} `json:"sender"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "m1", resp.Messages[0].ID)
	assert.Equal(t, "bob", resp.Messages[0].Sender.Username)
	f.messages.AssertExpectations(t)
}

func TestGetChatMessagesInvalidLimit(t *testing.T) {
	f := newChatFixture("u1")

	rec := do(f.router, http.MethodGet, "/chats/c1/messages?limit=-3", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostChatMessageToMissingChat(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("GetDetails", mock.Anything, "nope").Return(models.ChatDetails{}, repositories.ErrChatNotFound).Once()

	rec := do(f.router, http.MethodPost, "/chats/nope/messages", jsonBody(t, gin.H{"text": "hi"}))

	require.Equal(t, http.StatusNotFound, rec.Code)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostChatMessageSuccess(t *testing.T) {
	f := newChatFixture("u1")
	f.chats.On("GetDetails", mock.Anything, "c1").Return(privateChatDetails(), nil).Once()
	f.messages.On("Create", mock.Anything, "c1", "u1", "hi").Return(models.MessageWithSender{
		ChatMessage: models.ChatMessage{ID: "m1", ChatID: "c1", SenderID: "u1", Text: "hi"},
		Sender:      models.User{ID: "u1", Username: "alice"},
	}, nil).Once()

	rec := do(f.router, http.MethodPost, "/chats/c1/messages", jsonBody(t, gin.H{"text": "hi"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"hi"`)
	f.messages.AssertExpectations(t)
}
