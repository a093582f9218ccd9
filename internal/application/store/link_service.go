package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkService handles store registration and operator-owned link edits
type LinkService struct {
	storeRepo    store.StoreRepository
	linkRepo     store.StoreLinkRepository
	endpointRepo store.WebhookEndpointRepository
	productRepo  catalog.ProductReader
}

// NewLinkService creates a new LinkService
func NewLinkService(
	storeRepo store.StoreRepository,
	linkRepo store.StoreLinkRepository,
	endpointRepo store.WebhookEndpointRepository,
	productRepo catalog.ProductReader,
) *LinkService {
	return &LinkService{
		storeRepo:    storeRepo,
		linkRepo:     linkRepo,
		endpointRepo: endpointRepo,
		productRepo:  productRepo,
	}
}

// CreateStore registers a new downstream store
func (s *LinkService) CreateStore(ctx context.Context, req CreateStoreRequest) (*StoreResponse, error) {
	existing, err := s.storeRepo.FindBySlug(ctx, req.Slug)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("store with slug %q: %w", req.Slug, shared.ErrAlreadyExists)
	}

	st, err := store.NewStore(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	return ToStoreResponse(st), nil
}

// GetStore retrieves a store by ID
func (s *LinkService) GetStore(ctx context.Context, storeID uuid.UUID) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return ToStoreResponse(st), nil
}

// ListStores lists all active stores
func (s *LinkService) ListStores(ctx context.Context) ([]StoreResponse, error) {
	stores, err := s.storeRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]StoreResponse, 0, len(stores))
	for i := range stores {
		responses = append(responses, *ToStoreResponse(&stores[i]))
	}
	return responses, nil
}

// GetLink retrieves one link by its composite key
func (s *LinkService) GetLink(ctx context.Context, storeID, productID uuid.UUID) (*StoreLinkResponse, error) {
	link, err := s.linkRepo.FindByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return ToStoreLinkResponse(link), nil
}

// UpdateLink applies a store operator's changes to a link. Activating a link
// whose product is inactive is refused; that state is exactly what the
// reconciler's orphan pass exists to remove.
func (s *LinkService) UpdateLink(ctx context.Context, storeID, productID uuid.UUID, req UpdateLinkRequest) (*StoreLinkResponse, error) {
	link, err := s.linkRepo.FindByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	if req.Margin != nil {
		margin, err := decimal.NewFromString(*req.Margin)
		if err != nil {
			return nil, fmt.Errorf("invalid margin: %w", err)
		}
		if err := link.SetMargin(margin); err != nil {
			return nil, err
		}
	}
	if req.ClearMargin {
		link.ClearMargin()
	}

	if req.IsActive != nil {
		if *req.IsActive {
			product, err := s.productRepo.FindByID(ctx, link.ProductID)
			if err != nil {
				return nil, err
			}
			if !product.Active {
				return nil, store.ErrLinkInactiveProduct
			}
			link.Activate()
		} else {
			link.Deactivate()
		}
	}

	if err := s.linkRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	return ToStoreLinkResponse(link), nil
}

// CreateEndpoint registers a cascade target for a store
func (s *LinkService) CreateEndpoint(ctx context.Context, storeID uuid.UUID, req CreateEndpointRequest) (*WebhookEndpointResponse, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	endpoint, err := store.NewWebhookEndpoint(storeID, req.URL, req.Secret)
	if err != nil {
		return nil, err
	}
	if err := s.endpointRepo.Save(ctx, endpoint); err != nil {
		return nil, err
	}
	return ToWebhookEndpointResponse(endpoint), nil
}

// ListEndpoints lists a store's cascade targets
func (s *LinkService) ListEndpoints(ctx context.Context, storeID uuid.UUID) ([]WebhookEndpointResponse, error) {
	endpoints, err := s.endpointRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	responses := make([]WebhookEndpointResponse, 0, len(endpoints))
	for i := range endpoints {
		responses = append(responses, *ToWebhookEndpointResponse(&endpoints[i]))
	}
	return responses, nil
}

// SetEndpointEnabled enables or disables deliveries to an endpoint
func (s *LinkService) SetEndpointEnabled(ctx context.Context, endpointID uuid.UUID, enabled bool) (*WebhookEndpointResponse, error) {
	endpoint, err := s.endpointRepo.FindByID(ctx, endpointID)
	if err != nil {
		return nil, err
	}
	if enabled {
		endpoint.Enable()
	} else {
		endpoint.Disable()
	}
	if err := s.endpointRepo.Save(ctx, endpoint); err != nil {
		return nil, err
	}
	return ToWebhookEndpointResponse(endpoint), nil
}

// DeleteEndpoint removes a cascade target
func (s *LinkService) DeleteEndpoint(ctx context.Context, endpointID uuid.UUID) error {
	return s.endpointRepo.Delete(ctx, endpointID)
}
