package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"collab-service/internal/models"
	"collab-service/internal/session"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, event, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) Create(ctx context.Context, user models.User) (session.Session, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *SessionStoreMock) Get(ctx context.Context, id string) (session.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *SessionStoreMock) Save(ctx context.Context, sess session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionStoreMock) Touch(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionStoreMock) Destroy(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type UploadSignerMock struct {
	mock.Mock
}

func (m *UploadSignerMock) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *UploadSignerMock) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

type PaymentGatewayMock struct {
	mock.Mock
}

func (m *PaymentGatewayMock) PaymentURL(invID int64, outSum float64, description string) string {
	args := m.Called(invID, outSum, description)
	return args.String(0)
}

func (m *PaymentGatewayMock) VerifyResult(outSum, invID, sig string) bool {
	args := m.Called(outSum, invID, sig)
	return args.Bool(0)
}
