package handler

import (
	"context"
	"time"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/domain/store"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// Map-backed fakes shared by the handler tests. They implement just enough
// of the repository behavior for the services to run end to end.

type fakeProductRepo struct {
	byExternal map[string]*catalog.Product
	updateErr  error
}

func newFakeProductRepo(products ...*catalog.Product) *fakeProductRepo {
	r := &fakeProductRepo{byExternal: make(map[string]*catalog.Product)}
	for _, p := range products {
		r.byExternal[p.ExternalID] = p
	}
	return r
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	for _, p := range r.byExternal {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	if p, ok := r.byExternal[externalID]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*catalog.Product, error) {
	found := make(map[string]*catalog.Product)
	for _, id := range externalIDs {
		if p, ok := r.byExternal[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (r *fakeProductRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range r.byExternal {
		if p.Active {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakeProductRepo) CountActive(ctx context.Context) (int64, error) {
	ids, _ := r.ListActiveIDs(ctx)
	return int64(len(ids)), nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *catalog.Product) error {
	r.byExternal[product.ExternalID] = product
	return nil
}

func (r *fakeProductRepo) CreateBatch(ctx context.Context, products []*catalog.Product) error {
	for _, p := range products {
		r.byExternal[p.ExternalID] = p
	}
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *catalog.Product) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.byExternal[product.ExternalID] = product
	return nil
}

type fakeStoreRepo struct {
	stores map[uuid.UUID]*store.Store
}

func newFakeStoreRepo(stores ...*store.Store) *fakeStoreRepo {
	r := &fakeStoreRepo{stores: make(map[uuid.UUID]*store.Store)}
	for _, s := range stores {
		r.stores[s.ID] = s
	}
	return r
}

func (r *fakeStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	if s, ok := r.stores[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStoreRepo) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	for _, s := range r.stores {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStoreRepo) ListActive(ctx context.Context) ([]store.Store, error) {
	var result []store.Store
	for _, s := range r.stores {
		if s.Active {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *fakeStoreRepo) Save(ctx context.Context, s *store.Store) error {
	r.stores[s.ID] = s
	return nil
}

type fakeLinkRepo struct {
	links map[uuid.UUID]*store.StoreLink // by link ID
}

func newFakeLinkRepo(links ...*store.StoreLink) *fakeLinkRepo {
	r := &fakeLinkRepo{links: make(map[uuid.UUID]*store.StoreLink)}
	for _, l := range links {
		r.links[l.ID] = l
	}
	return r
}

func (r *fakeLinkRepo) FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*store.StoreLink, error) {
	for _, l := range r.links {
		if l.StoreID == storeID && l.ProductID == productID {
			return l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLinkRepo) ListLinkedProductIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, l := range r.links {
		if l.StoreID == storeID {
			ids = append(ids, l.ProductID)
		}
	}
	return ids, nil
}

func (r *fakeLinkRepo) ListOrphanedLinkIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *fakeLinkRepo) DeactivateByIDs(ctx context.Context, linkIDs []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range linkIDs {
		if l, ok := r.links[id]; ok && l.IsActive {
			l.Deactivate()
			n++
		}
	}
	return n, nil
}

func (r *fakeLinkRepo) CreateBatch(ctx context.Context, links []*store.StoreLink) error {
	for _, l := range links {
		r.links[l.ID] = l
	}
	return nil
}

func (r *fakeLinkRepo) Save(ctx context.Context, link *store.StoreLink) error {
	r.links[link.ID] = link
	return nil
}

type fakeEndpointRepo struct {
	endpoints map[uuid.UUID]*store.WebhookEndpoint
}

func newFakeEndpointRepo(endpoints ...*store.WebhookEndpoint) *fakeEndpointRepo {
	r := &fakeEndpointRepo{endpoints: make(map[uuid.UUID]*store.WebhookEndpoint)}
	for _, e := range endpoints {
		r.endpoints[e.ID] = e
	}
	return r
}

func (r *fakeEndpointRepo) FindByID(ctx context.Context, id uuid.UUID) (*store.WebhookEndpoint, error) {
	if e, ok := r.endpoints[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEndpointRepo) ListEnabled(ctx context.Context) ([]store.WebhookEndpoint, error) {
	var result []store.WebhookEndpoint
	for _, e := range r.endpoints {
		if e.Enabled {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *fakeEndpointRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]store.WebhookEndpoint, error) {
	var result []store.WebhookEndpoint
	for _, e := range r.endpoints {
		if e.StoreID == storeID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *fakeEndpointRepo) Save(ctx context.Context, endpoint *store.WebhookEndpoint) error {
	r.endpoints[endpoint.ID] = endpoint
	return nil
}

func (r *fakeEndpointRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.endpoints[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.endpoints, id)
	return nil
}

type fakeRunRepo struct {
	runs []domainsync.Run
}

func (r *fakeRunRepo) Save(ctx context.Context, run *domainsync.Run) error {
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeRunRepo) ListRecent(ctx context.Context, limit int) ([]domainsync.Run, error) {
	if limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]domainsync.Run, limit)
	copy(out, r.runs[len(r.runs)-limit:])
	return out, nil
}

type fakeSource struct {
	fetchPage func(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error)
	fetchOne  func(ctx context.Context, externalID string) (domainsync.RawRecord, error)
	normalize func(record domainsync.RawRecord) (*catalog.Product, error)
}

func (s *fakeSource) FetchPage(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error) {
	if s.fetchPage == nil {
		return nil, false, nil
	}
	return s.fetchPage(ctx, page, pageSize)
}

func (s *fakeSource) FetchOne(ctx context.Context, externalID string) (domainsync.RawRecord, error) {
	if s.fetchOne == nil {
		return nil, domainsync.ErrSourceRecordNotFound
	}
	return s.fetchOne(ctx, externalID)
}

func (s *fakeSource) Normalize(record domainsync.RawRecord) (*catalog.Product, error) {
	if s.normalize == nil {
		return nil, domainsync.ErrSourceInvalidResponse
	}
	return s.normalize(record)
}

type fakeDispatcher struct {
	snapshots []domainsync.StockSnapshot
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, snapshot domainsync.StockSnapshot) domainsync.DispatchResult {
	d.snapshots = append(d.snapshots, snapshot)
	return domainsync.DispatchResult{}
}

func (d *fakeDispatcher) Enqueue(snapshot domainsync.StockSnapshot) bool {
	d.snapshots = append(d.snapshots, snapshot)
	return true
}

type fakeIdempotencyStore struct {
	seen map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.seen[eventID], nil
}

func (s *fakeIdempotencyStore) Unmark(ctx context.Context, eventID string) error {
	delete(s.seen, eventID)
	return nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }
