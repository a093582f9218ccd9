package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/franchise/backend/internal/domain/store"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/franchise/backend/internal/infrastructure/config"
)

// secretHeader carries the per-endpoint shared secret on cascade calls
const secretHeader = "X-Webhook-Secret"

// maxWebhookResponseSize bounds how much of a storefront's reply we read;
// the body is only drained for connection reuse
const maxWebhookResponseSize = 64 * 1024

// Dispatcher fans stock snapshots out to every enabled storefront endpoint.
// Each endpoint gets its own timeout and secret; one endpoint failing or
// hanging never delays or cancels delivery to the others.
type Dispatcher struct {
	endpoints  store.WebhookEndpointRepository
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger

	queue   chan domainsync.StockSnapshot
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewDispatcher creates a dispatcher and starts its worker pool
func NewDispatcher(cfg config.WebhookConfig, endpoints store.WebhookEndpointRepository, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		timeout: cfg.RequestTimeout,
		logger:  logger.Named("cascade"),
		queue:   make(chan domainsync.StockSnapshot, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Dispatch sends the snapshot to all enabled endpoints concurrently and
// blocks until every delivery attempt finishes. Zero configured endpoints is
// a no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, snapshot domainsync.StockSnapshot) domainsync.DispatchResult {
	targets, err := d.endpoints.ListEnabled(ctx)
	if err != nil {
		d.logger.Error("failed to load cascade endpoints",
			zap.String("external_id", snapshot.ExternalID),
			zap.Error(err),
		)
		return domainsync.DispatchResult{}
	}
	if len(targets) == 0 {
		return domainsync.DispatchResult{}
	}

	payload, err := json.Marshal(domainsync.CascadeEvent{
		Event:     domainsync.EventProductStockUpdated,
		Data:      snapshot,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		d.logger.Error("failed to encode cascade payload",
			zap.String("external_id", snapshot.ExternalID),
			zap.Error(err),
		)
		return domainsync.DispatchResult{}
	}

	type outcome struct {
		url string
		err error
	}

	results := make(chan outcome, len(targets))
	for i := range targets {
		endpoint := targets[i]
		go func() {
			results <- outcome{url: endpoint.URL, err: d.deliver(ctx, &endpoint, payload)}
		}()
	}

	result := domainsync.DispatchResult{Dispatched: len(targets)}
	for range targets {
		o := <-results
		if o.err != nil {
			result.Failed++
			result.Failures = append(result.Failures, domainsync.DispatchFailure{
				EndpointURL: o.url,
				Error:       o.err.Error(),
			})
			d.logger.Warn("cascade delivery failed",
				zap.String("external_id", snapshot.ExternalID),
				zap.String("endpoint", o.url),
				zap.Error(o.err),
			)
		} else {
			result.Succeeded++
		}
	}

	d.logger.Info("cascade dispatched",
		zap.String("external_id", snapshot.ExternalID),
		zap.Int("stock", snapshot.Stock),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)

	return result
}

// Enqueue hands the snapshot to the worker pool without waiting for
// delivery. Returns false when the queue is full or the dispatcher is
// shutting down; the caller treats a dropped notification as tolerable.
func (d *Dispatcher) Enqueue(snapshot domainsync.StockSnapshot) bool {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- snapshot:
		return true
	default:
		d.logger.Warn("cascade queue full, dropping notification",
			zap.String("external_id", snapshot.ExternalID),
		)
		return false
	}
}

// Close stops accepting snapshots and waits for queued deliveries to finish
func (d *Dispatcher) Close() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	d.wg.Wait()
}

// worker drains the queue, one blocking fan-out at a time
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for snapshot := range d.queue {
		d.Dispatch(context.Background(), snapshot)
	}
}

// deliver posts the payload to one endpoint with its own timeout and secret
func (d *Dispatcher) deliver(ctx context.Context, endpoint *store.WebhookEndpoint, payload []byte) error {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, endpoint.Secret)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, maxWebhookResponseSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: HTTP %d from %s", resp.StatusCode, endpoint.URL)
	}
	return nil
}

// Ensure Dispatcher implements CascadeDispatcher
var _ domainsync.CascadeDispatcher = (*Dispatcher)(nil)
