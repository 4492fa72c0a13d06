package mocks

import (
	"context"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTypingStore struct {
	mock.Mock
}

func (m *MockTypingStore) Throttle(ctx context.Context, scope string, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, scope, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTypingStore) Release(ctx context.Context, scope string, userID uuid.UUID) error {
	args := m.Called(ctx, scope, userID)
	return args.Error(0)
}

func (m *MockTypingStore) Put(ctx context.Context, event *model.TypingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTypingStore) Active(ctx context.Context, scope string) ([]*model.TypingEvent, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TypingEvent), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, change *realtime.Change) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, object *storage.UploadObject) (*storage.UploadResponse, error) {
	args := m.Called(ctx, object)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResponse), args.Error(1)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (*model.CheckoutCompleted, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutCompleted), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAdmins(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}
