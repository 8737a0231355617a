// Package webhook delivers fire-and-forget notifications when a route with a
// webhook URL is matched.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/util"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 5 * time.Second

// Outcomes reported to an observer.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// Payload is the JSON body posted to the webhook URL.
type Payload struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   any    `json:"body"`
}

// Failure is a delivery that did not succeed.
type Failure struct {
	URL string
	Err error
}

// Notifier posts payloads in background goroutines. Failures are only logged.
type Notifier struct {
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
	observe func(outcome string)

	failures chan Failure
	inflight sync.WaitGroup
	loopDone chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// WithTimeout bounds each delivery.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithLogger sets the logger failures are written to.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) { n.log = logging.OrNop(log) }
}

// WithObserver is called with the outcome of every delivery.
func WithObserver(fn func(outcome string)) Option {
	return func(n *Notifier) { n.observe = fn }
}

// New creates a Notifier and starts its failure logger.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		log:      logging.Nop(),
		failures: make(chan Failure, 64),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	go n.logFailures()
	return n
}

// Notify posts p to url in the background and returns immediately.
// Calls after Close are dropped.
func (n *Notifier) Notify(url string, p Payload) {
	if url == "" {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		err := n.deliver(url, p)
		if err == nil {
			n.report(OutcomeDelivered)
			return
		}
		n.report(OutcomeFailed)
		n.failures <- Failure{URL: url, Err: err}
	}()
}

// Close waits for in-flight deliveries, bounded by ctx, then stops the logger.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(n.failures)
		close(drained)
	}()

	select {
	case <-drained:
		<-n.loopDone
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) deliver(url string, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 400 {
		if len(body) == 0 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, util.TruncateBody(string(body), 256))
	}
	return nil
}

func (n *Notifier) logFailures() {
	defer close(n.loopDone)
	for f := range n.failures {
		n.log.Warn("webhook delivery failed", "url", f.URL, "error", f.Err)
	}
}

func (n *Notifier) report(outcome string) {
	if n.observe != nil {
		n.observe(outcome)
	}
}
