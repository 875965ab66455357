package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockAdapter struct {
	mock.Mock
	name domain.ProviderName
}

func (m *MockAdapter) Name() domain.ProviderName { return m.name }

func (m *MockAdapter) CreateOrder(ctx context.Context, order domain.Order) (*provider.OrderResponse, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.OrderResponse), args.Error(1)
}

func (m *MockAdapter) GetOrderStatus(ctx context.Context, trackingID string) (*provider.StatusResponse, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.StatusResponse), args.Error(1)
}

func (m *MockAdapter) CancelOrder(ctx context.Context, trackingID string) (*provider.CancelResponse, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CancelResponse), args.Error(1)
}

type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) Create(ctx context.Context, rec *domain.DispatchRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockDispatchRepository) GetByTracking(ctx context.Context, provider domain.ProviderName, trackingID string) (*domain.DispatchRecord, error) {
	args := m.Called(ctx, provider, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DispatchRecord), args.Error(1)
}

func (m *MockDispatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error {
	return m.Called(ctx, id, status, raw).Error(0)
}

func (m *MockDispatchRepository) MarkPolled(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDispatchRepository) ListActive(ctx context.Context, terminal []string, limit int) ([]*domain.DispatchRecord, error) {
	args := m.Called(ctx, terminal, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DispatchRecord), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event domain.DispatchEvent) error {
	return m.Called(ctx, key, event).Error(0)
}
