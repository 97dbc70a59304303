// Package sink defines output backends for comparison runs.
package sink

import (
	"context"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Sink is the output interface. Snapshots are delivered as soon as each
// target is captured; the run once the report and recommendations exist.
type Sink interface {
	SendSnapshot(ctx context.Context, snap feature.Snapshot) error
	SendRun(ctx context.Context, run *feature.Run) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
