package store

import (
	"context"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoreRepository is a mock implementation of store.StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) ListActive(ctx context.Context) ([]store.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Store), args.Error(1)
}

func (m *MockStoreRepository) Save(ctx context.Context, s *store.Store) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockStoreLinkRepository is a mock implementation of store.StoreLinkRepository
type MockStoreLinkRepository struct {
	mock.Mock
}

func (m *MockStoreLinkRepository) FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*store.StoreLink, error) {
	args := m.Called(ctx, storeID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.StoreLink), args.Error(1)
}

func (m *MockStoreLinkRepository) ListLinkedProductIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStoreLinkRepository) ListOrphanedLinkIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStoreLinkRepository) DeactivateByIDs(ctx context.Context, linkIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, linkIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStoreLinkRepository) CreateBatch(ctx context.Context, links []*store.StoreLink) error {
	args := m.Called(ctx, links)
	return args.Error(0)
}

func (m *MockStoreLinkRepository) Save(ctx context.Context, link *store.StoreLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// MockProductReader is a mock implementation of catalog.ProductReader
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductReader) FindByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductReader) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*catalog.Product, error) {
	args := m.Called(ctx, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*catalog.Product), args.Error(1)
}

func (m *MockProductReader) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProductReader) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWebhookEndpointRepository is a mock implementation of store.WebhookEndpointRepository
type MockWebhookEndpointRepository struct {
	mock.Mock
}

func (m *MockWebhookEndpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.WebhookEndpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookEndpointRepository) ListEnabled(ctx context.Context) ([]store.WebhookEndpoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookEndpointRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]store.WebhookEndpoint, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookEndpointRepository) Save(ctx context.Context, endpoint *store.WebhookEndpoint) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

func (m *MockWebhookEndpointRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
