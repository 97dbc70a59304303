// Package parity checks that two live deployments of the same web
// application expose the same UI features.
//
// A Checker snapshots both targets concurrently in separate browser tabs,
// diffs the snapshots feature by feature and derives prioritised
// recommendations. Unreachable targets and failing probes are recorded in
// the result instead of aborting the run.
package parity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/paritycheck/idgen"
	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/browser"
	"github.com/hazyhaar/paritycheck/parity/internal/compare"
	"github.com/hazyhaar/paritycheck/parity/internal/config"
	"github.com/hazyhaar/paritycheck/parity/internal/fetcher"
	"github.com/hazyhaar/paritycheck/parity/internal/probe"
	"github.com/hazyhaar/paritycheck/parity/internal/recommend"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
	"github.com/hazyhaar/paritycheck/parity/internal/sink"
	"github.com/hazyhaar/paritycheck/parity/internal/snapshot"
	"github.com/hazyhaar/paritycheck/parity/internal/store"
)

// PageOpener opens a fresh page session for one target. The returned
// function releases it.
type PageOpener func(ctx context.Context, target feature.Target) (session.Page, func() error, error)

// Checker is the top-level orchestrator. Create one per process; Run may
// be called concurrently.
type Checker struct {
	cfg     *config.Config
	mgr     *browser.Manager
	reg     *probe.Registry
	rules   recommend.Rules
	builder *snapshot.Builder
	engine  *recommend.Engine
	sinkR   *sink.Router
	logger  *slog.Logger

	mu      sync.RWMutex // guards open and history
	open    PageOpener
	history *store.Store
}

// New creates a Checker from configuration. It fails when the probe
// registry or the recommendation rule table does not cover the whole
// feature vocabulary.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) (*Checker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	reg := probe.Default()
	if err := reg.Complete(); err != nil {
		return nil, fmt.Errorf("parity: %w", err)
	}
	rules := recommend.DefaultRules()
	engine, err := recommend.New(rules, cfg.Recommend)
	if err != nil {
		return nil, fmt.Errorf("parity: %w", err)
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Bin:              cfg.Browser.Bin,
		Headful:          cfg.Browser.Stealth == "headful",
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		NavTimeout:       cfg.Browser.NavTimeout,
		Settle:           cfg.Browser.Settle,
		OpTimeout:        cfg.Browser.OpTimeout,
		IgnoreCertErrors: cfg.Browser.IgnoreCertErrors,
		Logger:           logger,
	})

	var preflight snapshot.Preflighter
	if !cfg.Preflight.Disabled {
		opts := []fetcher.Option{fetcher.WithLogger(logger)}
		if cfg.Preflight.UserAgent != "" {
			opts = append(opts, fetcher.WithUserAgent(cfg.Preflight.UserAgent))
		}
		preflight = timedPreflight{f: fetcher.New(opts...), timeout: cfg.Preflight.Timeout}
	}

	c := &Checker{
		cfg:    cfg,
		mgr:    mgr,
		reg:    reg,
		rules:  rules,
		engine: engine,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
		builder: snapshot.New(reg, snapshot.Config{
			Probe:     cfg.Probe,
			Preflight: preflight,
			Logger:    logger,
		}),
	}
	c.open = c.openTab
	return c, nil
}

// UsePages replaces the browser with another page source. Runs already in
// progress keep the source they started with.
func (c *Checker) UsePages(open PageOpener) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *Checker) opener() PageOpener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// UseStore enables run history queries (Runs, GetRun) on st.
func (c *Checker) UseStore(st *Store) {
	c.mu.Lock()
	c.history = st
	c.mu.Unlock()
}

func (c *Checker) openTab(ctx context.Context, _ feature.Target) (session.Page, func() error, error) {
	p, err := c.mgr.NewPage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

// Targets returns the two configured targets, or an error when the
// configuration does not hold exactly two valid ones.
func (c *Checker) Targets() (left, right feature.Target, err error) {
	if err := c.cfg.Validate(); err != nil {
		return left, right, err
	}
	return c.cfg.Targets[0], c.cfg.Targets[1], nil
}

// Run compares left and right. It fails only when a target is malformed;
// a target whose page session cannot be opened is reported inaccessible.
// Unnamed targets are called T1 and T2.
func (c *Checker) Run(ctx context.Context, left, right feature.Target) (*feature.Run, error) {
	if left.Name == "" {
		left.Name = "T1"
	}
	if right.Name == "" {
		right.Name = "T2"
	}
	for _, t := range []feature.Target{left, right} {
		if err := config.ValidateTarget(t); err != nil {
			return nil, err
		}
	}

	run := &feature.Run{
		ID:        idgen.New(),
		StartedAt: time.Now().UTC(),
	}
	log := c.logger.With("run", run.ID)
	log.Info("parity: run started", "left", left.URL, "right", right.URL)

	var snaps [2]feature.Snapshot
	var g errgroup.Group
	for i, t := range [2]feature.Target{left, right} {
		g.Go(func() error {
			snaps[i] = c.snapshot(ctx, t, log)
			if err := c.sinkR.SendSnapshot(ctx, snaps[i]); err != nil {
				log.Warn("parity: deliver snapshot", "target", t.Name, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	run.Left, run.Right = snaps[0], snaps[1]
	run.Report = compare.Compare(run.Left, run.Right, compare.Options{
		Features:        c.reg.Features(),
		NormalizeErrors: c.cfg.Compare.NormalizeErrors,
	})
	run.Recommendations = c.engine.Recommend(run.Report, run.Left, run.Right)
	run.Duration = time.Since(run.StartedAt)

	if err := c.sinkR.SendRun(ctx, run); err != nil {
		log.Warn("parity: deliver run", "error", err)
	}
	log.Info("parity: run finished",
		"both_accessible", run.Report.BothAccessible,
		"differences", len(run.Report.Differences()),
		"recommendations", len(run.Recommendations),
		"duration", run.Duration)
	return run, nil
}

// snapshot captures t in its own page session.
func (c *Checker) snapshot(ctx context.Context, t feature.Target, log *slog.Logger) feature.Snapshot {
	page, release, err := c.opener()(ctx, t)
	if err != nil {
		return c.builder.Unreachable(ctx, t, fmt.Errorf("parity: open page: %w", err))
	}
	if release != nil {
		defer func() {
			if err := release(); err != nil {
				log.Debug("parity: release page", "target", t.Name, "error", err)
			}
		}()
	}
	return c.builder.Build(ctx, t, page)
}

// FeatureInfo describes one registered feature and its rule.
type FeatureInfo struct {
	ID        feature.ID       `json:"id"`
	DependsOn feature.ID       `json:"depends_on,omitempty"`
	Navigates bool             `json:"navigates,omitempty"`
	Critical  bool             `json:"critical"`
	Priority  feature.Priority `json:"priority"`
	Issue     string           `json:"issue"`
}

// Features lists the vocabulary in registry order.
func (c *Checker) Features() []FeatureInfo {
	out := make([]FeatureInfo, 0, len(c.reg.Probes()))
	for _, p := range c.reg.Probes() {
		r := c.rules[p.Feature]
		out = append(out, FeatureInfo{
			ID:        p.Feature,
			DependsOn: p.DependsOn,
			Navigates: p.Navigates,
			Critical:  r.Critical,
			Priority:  r.Priority,
			Issue:     r.Issue,
		})
	}
	return out
}

// ErrNoHistory is returned by the history queries when no store is set.
var ErrNoHistory = fmt.Errorf("parity: run history is not enabled")

// Runs lists recent runs, newest first.
func (c *Checker) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	st := c.store()
	if st == nil {
		return nil, ErrNoHistory
	}
	return st.List(ctx, limit)
}

// GetRun loads a stored run. It returns ErrRunNotFound for unknown IDs.
func (c *Checker) GetRun(ctx context.Context, id string) (*feature.Run, error) {
	st := c.store()
	if st == nil {
		return nil, ErrNoHistory
	}
	id, err := idgen.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunNotFound, err)
	}
	return st.Get(ctx, id)
}

func (c *Checker) store() *store.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history
}

// Close flushes sinks and shuts the browser down.
func (c *Checker) Close() error {
	err := c.sinkR.Close()
	c.mgr.Close()
	return err
}

// timedPreflight bounds the deployment fetch so a slow origin cannot delay
// the browser pass.
type timedPreflight struct {
	f       *fetcher.Fetcher
	timeout time.Duration
}

func (t timedPreflight) Deployment(ctx context.Context, url string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.f.Deployment(ctx, url)
}
