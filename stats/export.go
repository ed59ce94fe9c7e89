package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Exporter ships rollups to an external consumer. Export may buffer; Flush
// forces delivery of anything buffered.
type Exporter interface {
	Export(ctx context.Context, rollup *Rollup) error
	Flush(ctx context.Context) error
	Close() error
}

// HTTPExporter batches rollups and POSTs them as a JSON array. A partner
// reporting system or an ops collector sits on the other end.
type HTTPExporter struct {
	endpoint  string
	apiKey    string
	client    *http.Client
	batchSize int

	mu     sync.Mutex
	buffer []*Rollup
}

func NewHTTPExporter(endpoint, apiKey string, batchSize int) *HTTPExporter {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &HTTPExporter{
		endpoint:  endpoint,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		batchSize: batchSize,
	}
}

// Export buffers the rollup and flushes once the batch fills.
func (h *HTTPExporter) Export(ctx context.Context, rollup *Rollup) error {
	h.mu.Lock()
	h.buffer = append(h.buffer, rollup)
	full := len(h.buffer) >= h.batchSize
	h.mu.Unlock()
	if full {
		return h.Flush(ctx)
	}
	return nil
}

// Flush posts the buffered rollups. The buffer is kept on failure so the
// next flush retries them.
func (h *HTTPExporter) Flush(ctx context.Context) error {
	h.mu.Lock()
	batch := h.buffer
	h.buffer = nil
	h.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal rollup batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		h.requeue(batch)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.requeue(batch)
		return fmt.Errorf("failed to export rollups: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		h.requeue(batch)
		return fmt.Errorf("rollup export rejected with status %d", resp.StatusCode)
	}
	return nil
}

func (h *HTTPExporter) requeue(batch []*Rollup) {
	h.mu.Lock()
	h.buffer = append(batch, h.buffer...)
	h.mu.Unlock()
}

func (h *HTTPExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Flush(ctx)
}

// ConsoleExporter prints rollups to stdout. Useful in development profiles
// where no collector endpoint exists.
type ConsoleExporter struct {
	prefix string
}

func NewConsoleExporter(prefix string) *ConsoleExporter {
	return &ConsoleExporter{prefix: prefix}
}

func (c *ConsoleExporter) Export(_ context.Context, rollup *Rollup) error {
	fmt.Printf("%s %s %s: donations=%d raised=%.2f achievements=%d tiers=%d donors=%d\n",
		c.prefix, rollup.Period, rollup.Key, rollup.Donations, rollup.AmountRaised,
		rollup.Achievements, rollup.TierAdvances, rollup.ActiveDonors)
	return nil
}

func (c *ConsoleExporter) Flush(context.Context) error { return nil }
func (c *ConsoleExporter) Close() error                { return nil }

// MultiExporter fans rollups out to several exporters and keeps going past
// individual failures, returning the first error seen.
type MultiExporter struct {
	exporters []Exporter
}

func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

func (m *MultiExporter) Export(ctx context.Context, rollup *Rollup) error {
	var first error
	for _, e := range m.exporters {
		if err := e.Export(ctx, rollup); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiExporter) Flush(ctx context.Context) error {
	var first error
	for _, e := range m.exporters {
		if err := e.Flush(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiExporter) Close() error {
	var first error
	for _, e := range m.exporters {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
