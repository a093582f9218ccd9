package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/franchise/backend/internal/domain/catalog"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/franchise/backend/internal/infrastructure/config"
)

// FeedClient implements sync.CatalogSource against the external provider's
// paginated product listing. The provider throttles aggressively, so every
// request passes through a shared rate limiter.
type FeedClient struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewFeedClient creates a feed client from configuration
func NewFeedClient(cfg config.SourceConfig, logger *zap.Logger) (*FeedClient, error) {
	if cfg.BaseURL == "" || cfg.Token == "" {
		return nil, domainsync.ErrSourceNotConfigured
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domainsync.ErrSourceNotConfigured, err)
	}

	return &FeedClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		normalizer: NewNormalizer(cfg.AssetHost),
		logger:     logger.Named("source"),
	}, nil
}

// FetchPage returns one page of raw records and whether more pages remain
func (c *FeedClient) FetchPage(ctx context.Context, page, pageSize int) ([]domainsync.RawRecord, bool, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = c.cfg.PageSize
	}

	endpoint := fmt.Sprintf("%s/products?page=%d&limit=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), page, pageSize)

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, false, err
	}

	records, hasMore, err := decodePage(body)
	if err != nil {
		return nil, false, err
	}

	// Providers without an explicit has_more flag signal the last page by
	// returning fewer records than requested.
	if hasMore == nil {
		full := len(records) == pageSize
		hasMore = &full
	}

	c.logger.Debug("fetched feed page",
		zap.Int("page", page),
		zap.Int("records", len(records)),
		zap.Bool("has_more", *hasMore),
	)

	return records, *hasMore, nil
}

// FetchOne returns the raw record for a single product
func (c *FeedClient) FetchOne(ctx context.Context, externalID string) (domainsync.RawRecord, error) {
	if externalID == "" {
		return nil, domainsync.ErrSourceRecordNotFound
	}

	endpoint := fmt.Sprintf("%s/products/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(externalID))

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	record, err := decodeRecord(body)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domainsync.ErrSourceRecordNotFound
	}
	return record, nil
}

// Normalize converts a raw record into a canonical product
func (c *FeedClient) Normalize(record domainsync.RawRecord) (*catalog.Product, error) {
	return c.normalizer.Normalize(record)
}

// doRequest performs an authenticated GET against the provider
func (c *FeedClient) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domainsync.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("source: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainsync.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("source: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domainsync.ErrSourceRecordNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", domainsync.ErrSourceRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// pageEnvelope is the optional wrapper some provider versions put around a
// page. Older versions return the bare array.
type pageEnvelope struct {
	Data    json.RawMessage `json:"data"`
	HasMore *bool           `json:"has_more"`
	Total   *int            `json:"total"`
	Page    *int            `json:"page"`
	PerPage *int            `json:"per_page"`
}

// decodePage accepts either a bare JSON array or an envelope with a data
// array. Returns the records and, when the envelope carries enough paging
// metadata, an explicit has-more flag.
func decodePage(body []byte) ([]domainsync.RawRecord, *bool, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil, domainsync.ErrSourceInvalidResponse
	}

	if strings.HasPrefix(trimmed, "[") {
		records, err := decodeRecordArray(body)
		return records, nil, err
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domainsync.ErrSourceInvalidResponse, err)
	}
	if envelope.Data == nil {
		return nil, nil, domainsync.ErrSourceInvalidResponse
	}

	records, err := decodeRecordArray(envelope.Data)
	if err != nil {
		return nil, nil, err
	}

	var hasMore *bool
	switch {
	case envelope.HasMore != nil:
		hasMore = envelope.HasMore
	case envelope.Total != nil && envelope.Page != nil && envelope.PerPage != nil && *envelope.PerPage > 0:
		more := *envelope.Page**envelope.PerPage < *envelope.Total
		hasMore = &more
	}

	return records, hasMore, nil
}

// decodeRecordArray parses a JSON array of feed records
func decodeRecordArray(data []byte) ([]domainsync.RawRecord, error) {
	var records []domainsync.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domainsync.ErrSourceInvalidResponse, err)
	}
	return records, nil
}

// decodeRecord parses a single-product response, unwrapping an optional
// data envelope
func decodeRecord(body []byte) (domainsync.RawRecord, error) {
	var record domainsync.RawRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", domainsync.ErrSourceInvalidResponse, err)
	}

	if inner, ok := record["data"].(map[string]any); ok {
		return domainsync.RawRecord(inner), nil
	}
	if len(record) == 0 {
		return nil, nil
	}
	return record, nil
}

// externalIDOf resolves the record's stable identifier. IDs arrive as
// strings or numbers depending on the provider version.
func externalIDOf(record domainsync.RawRecord) string {
	for _, key := range []string{"id", "external_id", "product_id"} {
		switch v := record[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Ensure FeedClient implements CatalogSource
var _ domainsync.CatalogSource = (*FeedClient)(nil)
