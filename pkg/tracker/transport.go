package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

// DeliveryGuarantee describes what a transport promises about a payload.
type DeliveryGuarantee string

// BestEffortAtMostOnce is the only guarantee the tracker offers: each flush is
// attempted once, failures are logged and never retried, and a payload may be
// lost during shutdown.
const BestEffortAtMostOnce DeliveryGuarantee = "best-effort-at-most-once"

// Beaconer queues a payload for delivery without waiting for the result.
// Beacon reports whether the payload was accepted for delivery, not whether
// it was delivered.
type Beaconer interface {
	Beacon(body []byte) bool
}

// Sender delivers a payload and reports the outcome.
type Sender interface {
	Send(ctx context.Context, body []byte) error
}

const (
	defaultBeaconQueue   = 64
	defaultSendTimeout   = 5 * time.Second
	contentTypeJSON      = "application/json"
	maxDrainResponseBody = 4 << 10
)

// HTTPBeacon posts queued payloads from a single background worker. It is
// the in-process analogue of a browser beacon: enqueue never blocks, and
// Close gives outstanding payloads a bounded amount of time to leave.
type HTTPBeacon struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan []byte
	done   chan struct{}
}

// BeaconOption configures an HTTPBeacon.
type BeaconOption func(*HTTPBeacon)

// WithBeaconClient sets the HTTP client used by the worker.
func WithBeaconClient(c *http.Client) BeaconOption {
	return func(b *HTTPBeacon) {
		if c != nil {
			b.client = c
		}
	}
}

// WithBeaconLogger sets the logger used for delivery failures.
func WithBeaconLogger(l *slog.Logger) BeaconOption {
	return func(b *HTTPBeacon) { b.log = logger.OrNoop(l) }
}

// WithBeaconQueueSize sets how many payloads may wait for the worker.
func WithBeaconQueueSize(n int) BeaconOption {
	return func(b *HTTPBeacon) {
		if n > 0 {
			b.queue = make(chan []byte, n)
		}
	}
}

// NewHTTPBeacon starts a beacon worker posting to endpoint.
func NewHTTPBeacon(endpoint string, opts ...BeaconOption) *HTTPBeacon {
	b := &HTTPBeacon{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultSendTimeout},
		log:      logger.Noop(),
		queue:    make(chan []byte, defaultBeaconQueue),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Beacon implements Beaconer. It returns false when the queue is full or the
// beacon is closed.
func (b *HTTPBeacon) Beacon(body []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.queue <- body:
		return true
	default:
		return false
	}
}

// Close stops accepting payloads and waits for queued ones until ctx ends.
func (b *HTTPBeacon) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *HTTPBeacon) run() {
	defer close(b.done)
	for body := range b.queue {
		if err := post(context.Background(), b.client, b.endpoint, body); err != nil {
			b.log.Warn("beacon delivery failed",
				logger.Component("tracker.beacon"),
				logger.Error(err),
			)
		}
	}
}

// KeepAliveSender posts payloads over a pooled keep-alive connection.
type KeepAliveSender struct {
	endpoint string
	client   *http.Client
}

// NewKeepAliveSender returns a sender for endpoint. A nil client gets a
// dedicated keep-alive transport and a request timeout.
func NewKeepAliveSender(endpoint string, client *http.Client) *KeepAliveSender {
	if client == nil {
		client = &http.Client{
			Timeout: defaultSendTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 2 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &KeepAliveSender{endpoint: endpoint, client: client}
}

// Send implements Sender.
func (s *KeepAliveSender) Send(ctx context.Context, body []byte) error {
	return post(ctx, s.client, s.endpoint, body)
}

func post(ctx context.Context, client *http.Client, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainResponseBody))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
