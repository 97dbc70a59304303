package sink

import (
	"context"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// SnapshotFunc is called for each captured snapshot.
type SnapshotFunc func(ctx context.Context, snap feature.Snapshot) error

// RunFunc is called for each finished run.
type RunFunc func(ctx context.Context, run *feature.Run) error

// Callback delivers results through Go function calls, for embedding the
// checker in another process.
type Callback struct {
	onSnapshot SnapshotFunc
	onRun      RunFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onSnapshot SnapshotFunc, onRun RunFunc) *Callback {
	return &Callback{onSnapshot: onSnapshot, onRun: onRun}
}

func (c *Callback) SendSnapshot(ctx context.Context, snap feature.Snapshot) error {
	if c.onSnapshot != nil {
		return c.onSnapshot(ctx, snap)
	}
	return nil
}

func (c *Callback) SendRun(ctx context.Context, run *feature.Run) error {
	if c.onRun != nil {
		return c.onRun(ctx, run)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
