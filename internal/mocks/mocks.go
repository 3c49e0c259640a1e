package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collab-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *UserRepositoryMock) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type RelationshipRepositoryMock struct {
	mock.Mock
}

func (m *RelationshipRepositoryMock) Get(ctx context.Context, userA, userB string) (*models.Relationship, error) {
	args := m.Called(ctx, userA, userB)
	var rel *models.Relationship
	if val := args.Get(0); val != nil {
		rel = val.(*models.Relationship)
	}
	return rel, args.Error(1)
}

func (m *RelationshipRepositoryMock) Set(ctx context.Context, userA, userB string, status models.RelationshipStatus) (models.Relationship, error) {
	args := m.Called(ctx, userA, userB, status)
	return args.Get(0).(models.Relationship), args.Error(1)
}

func (m *RelationshipRepositoryMock) Delete(ctx context.Context, userA, userB string) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

func (m *RelationshipRepositoryMock) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *RelationshipRepositoryMock) ListPending(ctx context.Context, userID string) ([]models.Relationship, error) {
	args := m.Called(ctx, userID)
	var rels []models.Relationship
	if val := args.Get(0); val != nil {
		rels = val.([]models.Relationship)
	}
	return rels, args.Error(1)
}

func (m *RelationshipRepositoryMock) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

type ProjectRepositoryMock struct {
	mock.Mock
}

func (m *ProjectRepositoryMock) Create(ctx context.Context, ownerID string, title string, description string) (models.Project, error) {
	args := m.Called(ctx, ownerID, title, description)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *ProjectRepositoryMock) GetByID(ctx context.Context, projectID string) (models.Project, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *ProjectRepositoryMock) Update(ctx context.Context, projectID string, title string, description string) (models.Project, error) {
	args := m.Called(ctx, projectID, title, description)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *ProjectRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	args := m.Called(ctx, userID)
	var projects []models.Project
	if val := args.Get(0); val != nil {
		projects = val.([]models.Project)
	}
	return projects, args.Error(1)
}

func (m *ProjectRepositoryMock) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	args := m.Called(ctx, projectID)
	var members []models.ProjectMember
	if val := args.Get(0); val != nil {
		members = val.([]models.ProjectMember)
	}
	return members, args.Error(1)
}

func (m *ProjectRepositoryMock) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	args := m.Called(ctx, projectID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ProjectRepositoryMock) IsMember(ctx context.Context, projectID string, userID string) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ProjectRepositoryMock) AddMember(ctx context.Context, projectID string, userID string, role string) error {
	args := m.Called(ctx, projectID, userID, role)
	return args.Error(0)
}

func (m *ProjectRepositoryMock) RemoveMember(ctx context.Context, projectID string, userID string) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *ProjectRepositoryMock) Search(ctx context.Context, query string, limit int) ([]models.Project, error) {
	args := m.Called(ctx, query, limit)
	var projects []models.Project
	if val := args.Get(0); val != nil {
		projects = val.([]models.Project)
	}
	return projects, args.Error(1)
}

type CardRepositoryMock struct {
	mock.Mock
}

func (m *CardRepositoryMock) Create(ctx context.Context, card models.Card) (models.Card, error) {
	args := m.Called(ctx, card)
	return args.Get(0).(models.Card), args.Error(1)
}

func (m *CardRepositoryMock) GetByID(ctx context.Context, cardID string) (models.Card, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).(models.Card), args.Error(1)
}

func (m *CardRepositoryMock) ListByProject(ctx context.Context, projectID string) ([]models.Card, error) {
	args := m.Called(ctx, projectID)
	var cards []models.Card
	if val := args.Get(0); val != nil {
		cards = val.([]models.Card)
	}
	return cards, args.Error(1)
}

func (m *CardRepositoryMock) ListPublished(ctx context.Context, limit int) ([]models.Card, error) {
	args := m.Called(ctx, limit)
	var cards []models.Card
	if val := args.Get(0); val != nil {
		cards = val.([]models.Card)
	}
	return cards, args.Error(1)
}

func (m *CardRepositoryMock) ListPublishedForUser(ctx context.Context, userID string, limit int) ([]models.Card, error) {
	args := m.Called(ctx, userID, limit)
	var cards []models.Card
	if val := args.Get(0); val != nil {
		cards = val.([]models.Card)
	}
	return cards, args.Error(1)
}

func (m *CardRepositoryMock) SetStatus(ctx context.Context, cardID string, from models.CardStatus, to models.CardStatus) error {
	args := m.Called(ctx, cardID, from, to)
	return args.Error(0)
}

type TaskRepositoryMock struct {
	mock.Mock
}

func (m *TaskRepositoryMock) Create(ctx context.Context, task models.Task) (models.Task, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *TaskRepositoryMock) GetByID(ctx context.Context, taskID string) (models.Task, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *TaskRepositoryMock) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	args := m.Called(ctx, projectID)
	var tasks []models.Task
	if val := args.Get(0); val != nil {
		tasks = val.([]models.Task)
	}
	return tasks, args.Error(1)
}

func (m *TaskRepositoryMock) Update(ctx context.Context, taskID string, update models.TaskUpdate) (models.Task, error) {
	args := m.Called(ctx, taskID, update)
	return args.Get(0).(models.Task), args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) GetByID(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *ChatRepositoryMock) GetDetails(ctx context.Context, chatID string) (models.ChatDetails, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(models.ChatDetails), args.Error(1)
}

func (m *ChatRepositoryMock) CreateOrGetPrivate(ctx context.Context, userID string, otherID string) (models.Chat, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *ChatRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.ChatDetails, error) {
	args := m.Called(ctx, userID)
	var chats []models.ChatDetails
	if val := args.Get(0); val != nil {
		chats = val.([]models.ChatDetails)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, chatID string, senderID string, text string) (models.MessageWithSender, error) {
	args := m.Called(ctx, chatID, senderID, text)
	return args.Get(0).(models.MessageWithSender), args.Error(1)
}

func (m *MessageRepositoryMock) ListByChat(ctx context.Context, chatID string, limit int) ([]models.MessageWithSender, error) {
	args := m.Called(ctx, chatID, limit)
	var msgs []models.MessageWithSender
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageWithSender)
	}
	return msgs, args.Error(1)
}

type PaymentRepositoryMock struct {
	mock.Mock
}

func (m *PaymentRepositoryMock) Create(ctx context.Context, userID string, cardID string, amount float64) (models.Payment, error) {
	args := m.Called(ctx, userID, cardID, amount)
	return args.Get(0).(models.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) GetByID(ctx context.Context, paymentID int64) (models.Payment, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(models.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) Complete(ctx context.Context, paymentID int64) (models.Payment, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(models.Payment), args.Error(1)
}

func (m *PaymentRepositoryMock) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
