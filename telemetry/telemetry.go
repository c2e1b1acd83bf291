// Package telemetry provides opt-in collection of compile and execute events.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/satishbabariya/tsqlgen/internal/debug"
	"github.com/satishbabariya/tsqlgen/query/translation"
)

// DisableEnv turns collection off regardless of configuration.
const DisableEnv = "TSQLGEN_TELEMETRY_DISABLED"

// Event types
const (
	EventCompile = "compile"
	EventExecute = "execute"
)

// Event represents a telemetry event. Events never carry parameter values.
type Event struct {
	EventType    string         `json:"event_type"`
	Table        string         `json:"table,omitempty"`
	Paging       string         `json:"paging,omitempty"`
	Duration     *time.Duration `json:"duration,omitempty"`
	Error        string         `json:"error,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	OS           string         `json:"os"`
	Architecture string         `json:"architecture"`
}

// Stats is a point-in-time copy of the collector's counters.
type Stats struct {
	Compiled      int
	CompileFailed int
	Executed      int
	ExecuteFailed int
	// ErrorKinds counts compile failures by translation error kind.
	ErrorKinds map[string]int
}

// Collector counts compile and execute outcomes and, when an endpoint is
// set, ships events to it in batches.
type Collector struct {
	enabled       bool
	endpoint      string
	version       string
	batchSize     int
	flushInterval time.Duration
	httpClient    *http.Client

	mu     sync.Mutex
	events []Event
	stats  Stats
	closed bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Collector.
type Option func(*Collector)

// WithEndpoint sets the URL events are POSTed to. Without one only counters
// are kept.
func WithEndpoint(url string) Option {
	return func(c *Collector) { c.endpoint = url }
}

// WithVersion sets the version reported with each event.
func WithVersion(v string) Option {
	return func(c *Collector) { c.version = v }
}

// WithBatchSize sets how many events trigger a flush.
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithFlushInterval sets the background flush period.
func WithFlushInterval(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

// WithHTTPClient sets the client used to send events.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Collector) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New creates a collector. It is disabled when enabled is false or when
// TSQLGEN_TELEMETRY_DISABLED is set to 1 or true.
func New(enabled bool, opts ...Option) *Collector {
	c := &Collector{
		enabled:       enabled && !isTelemetryDisabled(),
		version:       "dev",
		batchSize:     10,
		flushInterval: 30 * time.Second,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		events:        make([]Event, 0, 16),
		stats:         Stats{ErrorKinds: make(map[string]int)},
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.enabled && c.endpoint != "" {
		c.startBackgroundFlush()
	}
	return c
}

// Enabled reports whether events are being recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// RecordCompile records the outcome of one compilation.
func (c *Collector) RecordCompile(table, paging string, duration time.Duration, err error) {
	if !c.Enabled() {
		return
	}

	event := c.newEvent(EventCompile, duration, err)
	event.Table = table
	event.Paging = paging

	c.mu.Lock()
	if err != nil {
		c.stats.CompileFailed++
		c.stats.ErrorKinds[event.ErrorKind]++
	} else {
		c.stats.Compiled++
	}
	c.mu.Unlock()

	c.recordEvent(event)
}

// RecordExecute records the outcome of one statement execution.
func (c *Collector) RecordExecute(duration time.Duration, err error) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	if err != nil {
		c.stats.ExecuteFailed++
	} else {
		c.stats.Executed++
	}
	c.mu.Unlock()

	c.recordEvent(c.newEvent(EventExecute, duration, err))
}

func (c *Collector) newEvent(eventType string, duration time.Duration, err error) Event {
	event := Event{
		EventType:    eventType,
		Duration:     &duration,
		Timestamp:    time.Now(),
		Version:      c.version,
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if err != nil {
		event.Error = err.Error()
		event.ErrorKind = translation.KindName(err)
	}
	return event
}

// Snapshot returns a copy of the counters.
func (c *Collector) Snapshot() Stats {
	if c == nil {
		return Stats{ErrorKinds: map[string]int{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.ErrorKinds = maps.Clone(c.stats.ErrorKinds)
	return s
}

func (c *Collector) recordEvent(event Event) {
	if c.endpoint == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	if c.closed || len(c.events) < c.batchSize {
		return
	}

	// Shutdown waits for this flush.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Flush(context.Background()); err != nil {
			debug.Debug("telemetry flush failed", "error", err)
		}
	}()
}

// Flush sends buffered events to the endpoint and waits for the response.
func (c *Collector) Flush(ctx context.Context) error {
	if !c.Enabled() || c.endpoint == "" {
		return nil
	}

	c.mu.Lock()
	if len(c.events) == 0 {
		c.mu.Unlock()
		return nil
	}
	events := c.events
	c.events = make([]Event, 0, cap(events))
	c.mu.Unlock()

	return c.sendEvents(ctx, events)
}

func (c *Collector) sendEvents(ctx context.Context, events []Event) error {
	payload := map[string]any{
		"events": events,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("tsqlgen/%s", c.version))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	return nil
}

func (c *Collector) startBackgroundFlush() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.Flush(context.Background()); err != nil {
					debug.Debug("telemetry flush failed", "error", err)
				}
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Shutdown stops the background flush and sends what is left.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.stopChan)
	})
	c.wg.Wait()
	return c.Flush(ctx)
}

func isTelemetryDisabled() bool {
	v := os.Getenv(DisableEnv)
	return v == "1" || v == "true"
}
