package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	storeapp "github.com/franchise/backend/internal/application/store"
	syncapp "github.com/franchise/backend/internal/application/sync"
	"github.com/franchise/backend/internal/domain/catalog"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/franchise/backend/internal/infrastructure/config"
	"github.com/franchise/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	reports     []storeapp.ReconcileReport
	lastPreview bool
}

func (r *stubReconciler) ReconcileAll(ctx context.Context, preview bool) ([]storeapp.ReconcileReport, error) {
	r.lastPreview = preview
	return r.reports, nil
}

type syncHandlerFixture struct {
	router      *gin.Engine
	source      *fakeSource
	productRepo *fakeProductRepo
	runRepo     *fakeRunRepo
	reconciler  *stubReconciler
}

func newSyncHandlerFixture(products ...*catalog.Product) *syncHandlerFixture {
	gin.SetMode(gin.TestMode)

	f := &syncHandlerFixture{
		source:      &fakeSource{},
		productRepo: newFakeProductRepo(products...),
		runRepo:     &fakeRunRepo{},
		reconciler:  &stubReconciler{},
	}

	engine := syncapp.NewUpsertEngine(f.productRepo, 100, nil)
	service := syncapp.NewSyncService(
		f.source, engine, f.reconciler, f.runRepo,
		config.SyncConfig{BatchSize: 100, MaxPages: 10},
		100, nil,
	)

	h := NewSyncHandler(service)
	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *syncHandlerFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		req = httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// sourcePage fakes one feed page of simple records
func sourcePage(ids ...string) []domainsync.RawRecord {
	records := make([]domainsync.RawRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domainsync.RawRecord{"id": id, "title": "Product " + id})
	}
	return records
}

func normalizeSimple(record domainsync.RawRecord) (*catalog.Product, error) {
	id, _ := record["id"].(string)
	name, _ := record["title"].(string)
	return catalog.NewProduct(id, name)
}

func TestSyncHandler_TriggerSync_EmptyBody(t *testing.T) {
	f := newSyncHandlerFixture()
	f.source.fetchPage = func(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error) {
		return sourcePage("100", "101"), false, nil
	}
	f.source.normalize = normalizeSimple

	w := f.do(http.MethodPost, "/api/v1/sync/catalog", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "SUCCESS", data["status"])
	assert.Equal(t, float64(2), data["created"])
	assert.Len(t, f.runRepo.runs, 1)
}

func TestSyncHandler_TriggerSync_SingleProduct(t *testing.T) {
	f := newSyncHandlerFixture()
	f.source.fetchOne = func(ctx context.Context, externalID string) (domainsync.RawRecord, error) {
		return domainsync.RawRecord{"id": externalID, "title": "Product " + externalID}, nil
	}
	f.source.normalize = normalizeSimple

	w := f.do(http.MethodPost, "/api/v1/sync/catalog", gin.H{"external_id": "77"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["created"])

	_, err := f.productRepo.FindByExternalID(context.Background(), "77")
	assert.NoError(t, err)
}

func TestSyncHandler_TriggerSync_DryRunPreviews(t *testing.T) {
	f := newSyncHandlerFixture()
	f.source.fetchPage = func(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error) {
		return sourcePage("100"), false, nil
	}
	f.source.normalize = normalizeSimple

	w := f.do(http.MethodPost, "/api/v1/sync/catalog", gin.H{"dry_run": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.reconciler.lastPreview)
	assert.Empty(t, f.productRepo.byExternal)
}

func TestSyncHandler_TriggerSync_TransportFailure(t *testing.T) {
	f := newSyncHandlerFixture()
	f.source.fetchPage = func(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error) {
		return nil, false, domainsync.ErrSourceRequestFailed
	}

	w := f.do(http.MethodPost, "/api/v1/sync/catalog", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	// the aborted run is still logged
	require.Len(t, f.runRepo.runs, 1)
	assert.Equal(t, domainsync.RunStatusFailed, f.runRepo.runs[0].Status)
}

func TestSyncHandler_TriggerSync_InvalidBody(t *testing.T) {
	f := newSyncHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/catalog", bytes.NewBufferString(`{"page": -3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_ListRuns(t *testing.T) {
	f := newSyncHandlerFixture()
	run := domainsync.NewRun(domainsync.RunTriggerManual, false)
	run.Finish(domainsync.RunResult{})
	require.NoError(t, f.runRepo.Save(context.Background(), run))

	w := f.do(http.MethodGet, "/api/v1/sync/runs", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestSyncHandler_ListRuns_InvalidLimit(t *testing.T) {
	f := newSyncHandlerFixture()

	w := f.do(http.MethodGet, "/api/v1/sync/runs?limit=0", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
