package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Headers set on every webhook delivery. Receivers can route and alert on
// them without decoding the body.
const (
	HeaderEvent  = "X-Parity-Event"  // "run" | "snapshot"
	HeaderRunID  = "X-Parity-Run-Id" // run deliveries
	HeaderHigh   = "X-Parity-High"   // count of HIGH recommendations
	HeaderTarget = "X-Parity-Target" // snapshot deliveries
	HeaderKey    = "Idempotency-Key" // stable across retries of one delivery
)

// Webhook POSTs run and snapshot notices to a URL with retry and
// exponential backoff. A 4xx other than 408 and 429 is not retried.
type Webhook struct {
	url        string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// WebhookOption configures a Webhook sink.
type WebhookOption func(*Webhook)

// WithWebhookRetries sets the maximum number of retries. Default: 3.
func WithWebhookRetries(n int) WebhookOption {
	return func(w *Webhook) { w.maxRetries = n }
}

// WithWebhookBackoff sets the first retry delay, doubled on each retry.
// Default: 1s.
func WithWebhookBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.backoff = d }
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWebhook creates a Webhook sink targeting the given URL.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// RunNotice is the body of a run delivery: the verdict up front, the full
// run under Run.
type RunNotice struct {
	Event           string                   `json:"event"`
	RunID           string                   `json:"run_id"`
	StartedAt       time.Time                `json:"started_at"`
	Targets         [2]feature.Target        `json:"targets"`
	BothAccessible  bool                     `json:"both_accessible"`
	Differences     []feature.ID             `json:"differences"`
	High            int                      `json:"high"`
	Recommendations []feature.Recommendation `json:"recommendations"`
	Run             *feature.Run             `json:"run"`
}

// SnapshotNotice is the body of a snapshot delivery.
type SnapshotNotice struct {
	Event      string           `json:"event"`
	Target     feature.Target   `json:"target"`
	Accessible bool             `json:"accessible"`
	Error      string           `json:"error,omitempty"`
	Snapshot   feature.Snapshot `json:"snapshot"`
}

// NewRunNotice summarizes run for a webhook receiver.
func NewRunNotice(run *feature.Run) RunNotice {
	n := RunNotice{
		Event:           "run",
		RunID:           run.ID,
		StartedAt:       run.StartedAt,
		Targets:         run.Report.Targets,
		BothAccessible:  run.Report.BothAccessible,
		Differences:     []feature.ID{},
		High:            highCount(run.Recommendations),
		Recommendations: run.Recommendations,
		Run:             run,
	}
	for _, d := range run.Report.Diffs {
		if !d.Equal {
			n.Differences = append(n.Differences, d.Feature)
		}
	}
	return n
}

func highCount(recs []feature.Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.Priority == feature.PriorityHigh {
			n++
		}
	}
	return n
}

func (w *Webhook) SendSnapshot(ctx context.Context, snap feature.Snapshot) error {
	h := http.Header{}
	h.Set(HeaderEvent, "snapshot")
	h.Set(HeaderTarget, snap.Target.Name)
	if snap.ID != "" {
		h.Set(HeaderKey, snap.ID)
	}
	return w.post(ctx, h, SnapshotNotice{
		Event:      "snapshot",
		Target:     snap.Target,
		Accessible: snap.Accessible,
		Error:      snap.Error,
		Snapshot:   snap,
	})
}

func (w *Webhook) SendRun(ctx context.Context, run *feature.Run) error {
	n := NewRunNotice(run)
	h := http.Header{}
	h.Set(HeaderEvent, "run")
	h.Set(HeaderRunID, run.ID)
	h.Set(HeaderHigh, strconv.Itoa(n.High))
	h.Set(HeaderKey, run.ID)
	return w.post(ctx, h, n)
}

func (w *Webhook) Close() error { return nil }

func (w *Webhook) post(ctx context.Context, h http.Header, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	event := h.Get(HeaderEvent)

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(w.backoff << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: new request: %w", err)
		}
		req.Header = h.Clone()
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("webhook: request failed", "event", event, "attempt", attempt+1, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook: status %d", resp.StatusCode)
		if !retryable(resp.StatusCode) {
			return lastErr
		}
		w.logger.Warn("webhook: bad status", "event", event, "attempt", attempt+1, "status", resp.StatusCode)
	}
	return fmt.Errorf("webhook: all retries exhausted: %w", lastErr)
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
}
