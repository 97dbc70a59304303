package parity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hazyhaar/paritycheck/dbopen"
	"github.com/hazyhaar/paritycheck/parity/internal/config"
	"github.com/hazyhaar/paritycheck/parity/internal/sink"
	"github.com/hazyhaar/paritycheck/parity/internal/store"
)

// Sink is the output interface. Re-exported from internal.
type Sink = sink.Sink

// Store is the SQLite run history.
type Store = store.Store

// RunSummary is the listing view of a stored run.
type RunSummary = store.Summary

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = store.ErrNotFound

// NewStdoutSink creates a sink that writes JSON lines to w (nil = os.Stdout).
func NewStdoutSink(w io.Writer) Sink { return sink.NewStdout(w) }

// NewWebhookSink creates a sink that POSTs JSON to url.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewFileSink creates a sink writing JSON, HTML and Markdown reports to dir.
func NewFileSink(dir string) (Sink, error) { return sink.NewFile(dir) }

// NewCallbackSink creates an in-process sink. Either handler may be nil.
func NewCallbackSink(onSnapshot sink.SnapshotFunc, onRun sink.RunFunc) Sink {
	return sink.NewCallback(onSnapshot, onRun)
}

// NewStoreSink creates a sink recording runs in st.
func NewStoreSink(st *Store) Sink { return sink.NewStore(st) }

// OpenStore opens (or creates) the run history database at path, together
// with the target pair table.
func OpenStore(path string) (*Store, error) {
	db, err := dbopen.Open(path,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(store.Schema),
		dbopen.WithSchema(config.Schema),
	)
	if err != nil {
		return nil, fmt.Errorf("parity: open store: %w", err)
	}
	return store.New(db), nil
}

// SaveTargets records a named target pair in st.
func SaveTargets(ctx context.Context, st *Store, pair string, left, right Target) error {
	return config.SaveTargets(ctx, st.DB(), pair, left, right, time.Now().UnixMilli())
}

// LoadTargets reads a named target pair from st.
func LoadTargets(ctx context.Context, st *Store, pair string) (left, right Target, err error) {
	ts, err := config.LoadTargets(ctx, st.DB(), pair)
	if err != nil {
		return left, right, err
	}
	return ts[0], ts[1], nil
}

// BuildSinks instantiates the sinks listed in cfg. A "store" sink needs st.
func BuildSinks(cfg *Config, st *Store, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, NewStdoutSink(nil))
		case "webhook":
			out = append(out, NewWebhookSink(sc.URL, logger))
		case "file":
			f, err := NewFileSink(sc.Dir)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		case "store":
			if st == nil {
				return nil, fmt.Errorf("parity: store sink needs store.path")
			}
			out = append(out, NewStoreSink(st))
		default:
			return nil, fmt.Errorf("parity: unknown sink type %q", sc.Type)
		}
	}
	return out, nil
}
