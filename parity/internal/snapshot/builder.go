// Package snapshot runs the probe registry against one target and
// assembles an immutable feature.Snapshot. Page accessibility is the only
// all-or-nothing step: a faulting probe is recorded as an Error result for
// its own feature and the remaining probes still run.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/paritycheck/idgen"
	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/probe"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Preflighter collects informational deployment metadata for a URL
// outside the browser session.
type Preflighter interface {
	Deployment(ctx context.Context, url string) (map[string]string, error)
}

// Config configures a Builder.
type Config struct {
	Probe     probe.Config
	Preflight Preflighter // optional
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = idgen.New
	}
}

// Builder builds snapshots. It holds no per-target state and is safe to
// share between goroutines as long as each call gets its own page.
type Builder struct {
	reg *probe.Registry
	cfg Config
}

// New creates a Builder over reg.
func New(reg *probe.Registry, cfg Config) *Builder {
	cfg.defaults()
	return &Builder{reg: reg, cfg: cfg}
}

// Build navigates page to target.URL, runs every registered probe in
// registry order and collects SEVERE console entries. It never fails: an
// unreachable target yields a Snapshot with Accessible=false.
func (b *Builder) Build(ctx context.Context, target feature.Target, page session.Page) feature.Snapshot {
	log := b.cfg.Logger.With("target", target.Name, "url", target.URL)
	snap := b.start(ctx, target, log)

	if page == nil {
		return inaccessible(snap, errors.New("snapshot: no page session"), log)
	}
	ok, err := page.Navigate(ctx, target.URL)
	if err == nil && !ok {
		err = session.ErrNoPage
	}
	if err != nil {
		return inaccessible(snap, err, log)
	}
	title, err := page.Title(ctx)
	if errors.Is(err, session.ErrNoPage) {
		return inaccessible(snap, err, log)
	}
	if err != nil {
		log.Warn("snapshot: read title", "error", err)
	}
	snap.Accessible = true
	snap.PageTitle = title

	env := probe.NewEnv(page, target, b.cfg.Probe, log, nil)
	navigated := false
	for _, p := range b.reg.Probes() {
		r := feature.NotFound()
		if p.DependsOn == "" || env.Dep(p.DependsOn).IsFound() {
			// Console errors belong to the target page load only, not to
			// the sub-pages navigating probes open.
			if p.Navigates && !navigated {
				snap.ConsoleErrors = severe(ctx, page, log)
				navigated = true
			}
			r = b.run(ctx, p, env, log)
		}
		env.Record(p.Feature, r)
		snap.Results[p.Feature] = r
	}

	if navigated {
		if _, err := page.Navigate(ctx, target.URL); err != nil {
			log.Warn("snapshot: restore target page", "error", err)
		}
	} else {
		snap.ConsoleErrors = severe(ctx, page, log)
	}

	log.Info("snapshot: captured",
		"title", snap.PageTitle,
		"features", len(snap.Results),
		"console_errors", len(snap.ConsoleErrors))
	return snap
}

// run invokes one probe, turning faults and panics into an Error result.
func (b *Builder) run(ctx context.Context, p probe.Probe, env *probe.Env, log *slog.Logger) (r feature.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("snapshot: probe panicked", "feature", p.Feature, "panic", rec)
			r = feature.Error(fmt.Sprintf("probe panicked: %v", rec))
		}
	}()

	start := time.Now()
	res, err := p.Run(ctx, env)
	if err != nil {
		log.Warn("snapshot: probe fault", "feature", p.Feature, "error", err)
		return feature.Error(err.Error())
	}
	log.Debug("snapshot: probe done", "feature", p.Feature, "status", res.Status, "elapsed", time.Since(start))
	return res
}

// Unreachable returns the Snapshot of a target for which no page session
// could be obtained.
func (b *Builder) Unreachable(ctx context.Context, target feature.Target, cause error) feature.Snapshot {
	log := b.cfg.Logger.With("target", target.Name, "url", target.URL)
	return inaccessible(b.start(ctx, target, log), cause, log)
}

// start creates the empty Snapshot and fills its deployment metadata.
func (b *Builder) start(ctx context.Context, target feature.Target, log *slog.Logger) feature.Snapshot {
	snap := feature.Snapshot{
		ID:            b.cfg.NewID(),
		Target:        target,
		Vocabulary:    feature.VocabularyVersion,
		Results:       make(map[feature.ID]feature.Result),
		ConsoleErrors: []feature.ConsoleEntry{},
		CapturedAt:    b.cfg.Now().UTC(),
	}
	if b.cfg.Preflight != nil {
		info, err := b.cfg.Preflight.Deployment(ctx, target.URL)
		if err != nil {
			log.Debug("snapshot: preflight failed", "error", err)
		}
		snap.Deployment = info
	}
	return snap
}

// severe returns the SEVERE entries logged so far, repeats included.
func severe(ctx context.Context, page session.Page, log *slog.Logger) []feature.ConsoleEntry {
	entries, err := page.ConsoleLog(ctx)
	if err != nil {
		log.Warn("snapshot: read console log", "error", err)
	}
	out := []feature.ConsoleEntry{}
	for _, e := range entries {
		if session.Severe(e.Level) {
			out = append(out, e)
		}
	}
	return out
}

func inaccessible(snap feature.Snapshot, err error, log *slog.Logger) feature.Snapshot {
	log.Warn("snapshot: target not accessible", "error", err)
	snap.Accessible = false
	snap.Error = err.Error()
	return snap
}
