package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Router fans out to all configured sinks. One sink error does not block
// the others: errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Len is the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) SendSnapshot(ctx context.Context, snap feature.Snapshot) error {
	return r.each(func(s Sink) error { return s.SendSnapshot(ctx, snap) }, "sink: send snapshot failed")
}

func (r *Router) SendRun(ctx context.Context, run *feature.Run) error {
	return r.each(func(s Sink) error { return s.SendRun(ctx, run) }, "sink: send run failed")
}

func (r *Router) Close() error {
	return r.each(Sink.Close, "sink: close failed")
}

func (r *Router) each(fn func(Sink) error, msg string) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := fn(s); err != nil {
			r.logger.Warn(msg, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
