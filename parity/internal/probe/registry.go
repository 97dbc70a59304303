// Package probe is the registry of feature probes. Each probe is a small
// function keyed by feature ID; containment (a sub-feature that only makes
// sense once its container was found) is declared as a DependsOn edge and
// resolved by the caller before the probe runs.
package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Func probes one feature on an already-navigated page. A missing DOM
// signature is reported as feature.NotFound(); a returned error means the
// query mechanism itself faulted.
type Func func(ctx context.Context, env *Env) (feature.Result, error)

// Probe is one registry entry.
type Probe struct {
	Feature feature.ID
	// DependsOn names the container feature. When the container was not
	// found the probe is not invoked and the feature reads NotFound.
	DependsOn feature.ID
	// Navigates marks probes that may leave the target URL.
	Navigates bool
	Run       Func
}

// Env is what a probe sees: the page, the target it was loaded from, and
// the results of the probes that ran before it.
type Env struct {
	Page   session.Page
	Target feature.Target
	Config Config
	Logger *slog.Logger
	prior  map[feature.ID]feature.Result
}

// NewEnv creates a probe environment. prior may be nil.
func NewEnv(page session.Page, target feature.Target, cfg Config, logger *slog.Logger, prior map[feature.ID]feature.Result) *Env {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if prior == nil {
		prior = make(map[feature.ID]feature.Result)
	}
	return &Env{Page: page, Target: target, Config: cfg, Logger: logger, prior: prior}
}

// Dep returns the result already recorded for id, NotFound if none.
func (e *Env) Dep(id feature.ID) feature.Result {
	if r, ok := e.prior[id]; ok {
		return r
	}
	return feature.NotFound()
}

// Record stores the result of a probe so later dependants can read it.
func (e *Env) Record(id feature.ID, r feature.Result) {
	e.prior[id] = r
}

// Registry is an ordered, validated set of probes.
type Registry struct {
	probes []Probe
	index  map[feature.ID]int
}

// NewRegistry validates probes and returns them as a Registry. Order is
// preserved. A dependency must be registered before its dependant.
func NewRegistry(probes ...Probe) (*Registry, error) {
	r := &Registry{index: make(map[feature.ID]int, len(probes))}
	for i, p := range probes {
		if !p.Feature.Valid() {
			return nil, fmt.Errorf("probe: unknown feature %q", p.Feature)
		}
		if p.Run == nil {
			return nil, fmt.Errorf("probe: %s has no probe function", p.Feature)
		}
		if _, dup := r.index[p.Feature]; dup {
			return nil, fmt.Errorf("probe: %s registered twice", p.Feature)
		}
		if p.DependsOn != "" {
			if _, ok := r.index[p.DependsOn]; !ok {
				return nil, fmt.Errorf("probe: %s depends on %s which is not registered before it", p.Feature, p.DependsOn)
			}
		}
		r.index[p.Feature] = i
		r.probes = append(r.probes, p)
	}
	return r, nil
}

// Default returns the registry covering the whole feature vocabulary, in
// vocabulary order.
func Default() *Registry {
	r, err := NewRegistry(
		Probe{Feature: feature.PrimaryTitle, Run: primaryTitle},
		Probe{Feature: feature.TitleGradient, DependsOn: feature.PrimaryTitle, Run: titleGradient},
		Probe{Feature: feature.BoldSubtitles, Run: boldSubtitles},
		Probe{Feature: feature.BackendIntegration, Run: backendIntegration},
		Probe{Feature: feature.AnimatedBackground, Run: animatedBackground},
		Probe{Feature: feature.AdminEntryPoint, Run: adminEntryPoint},
		Probe{Feature: feature.AdminSubtitle, DependsOn: feature.AdminEntryPoint, Navigates: true, Run: adminSubtitle},
		Probe{Feature: feature.CheckboxControl, DependsOn: feature.AdminEntryPoint, Navigates: true, Run: checkboxControl},
	)
	if err != nil {
		panic(err)
	}
	if err := r.Complete(); err != nil {
		panic(err)
	}
	return r
}

// Probes returns the registered probes in order.
func (r *Registry) Probes() []Probe {
	return append([]Probe(nil), r.probes...)
}

// Features returns the registered feature IDs in order.
func (r *Registry) Features() []feature.ID {
	out := make([]feature.ID, len(r.probes))
	for i, p := range r.probes {
		out[i] = p.Feature
	}
	return out
}

// Lookup returns the probe registered for id.
func (r *Registry) Lookup(id feature.ID) (Probe, bool) {
	i, ok := r.index[id]
	if !ok {
		return Probe{}, false
	}
	return r.probes[i], true
}

// Complete checks that every feature of the vocabulary has a probe.
func (r *Registry) Complete() error {
	for _, id := range feature.Vocabulary() {
		if _, ok := r.index[id]; !ok {
			return fmt.Errorf("probe: no probe registered for %s", id)
		}
	}
	return nil
}
