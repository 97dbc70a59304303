// Package recommend turns a parity report into prioritised findings by
// applying a closed rule table.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Config tunes the engine's messages.
type Config struct {
	KnownGoodRef string `yaml:"known_good_ref"`
	PreviewLen   int    `yaml:"preview_len"`
	PreviewCount int    `yaml:"preview_count"`
}

func (c *Config) defaults() {
	if c.KnownGoodRef == "" {
		c.KnownGoodRef = "the last known-good deployment"
	}
	if c.PreviewLen <= 0 {
		c.PreviewLen = 50
	}
	if c.PreviewCount <= 0 {
		c.PreviewCount = 3
	}
}

// Engine applies the rule table. It is stateless after construction.
type Engine struct {
	rules Rules
	cfg   Config
}

// New validates rules against the full vocabulary and returns an engine.
func New(rules Rules, cfg Config) (*Engine, error) {
	if err := rules.Validate(feature.Vocabulary()); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &Engine{rules: rules, cfg: cfg}, nil
}

// Recommend evaluates the per-target rules for left then right, then the
// report-level closing rule. The result is ordered by priority; ties keep
// rule order.
func (e *Engine) Recommend(rep feature.Report, left, right feature.Snapshot) []feature.Recommendation {
	var out []feature.Recommendation
	for side, snap := range [2]feature.Snapshot{left, right} {
		out = append(out, e.target(rep, side, snap)...)
	}
	if len(out) > 0 {
		out = append(out, feature.Recommendation{
			Priority: feature.PriorityAction,
			Issue:    fmt.Sprintf("%d issues found across deployments", len(out)),
			Remedy:   fmt.Sprintf("review the changes since %s and redeploy", e.cfg.KnownGoodRef),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

func (e *Engine) target(rep feature.Report, side int, snap feature.Snapshot) []feature.Recommendation {
	subject := snap.Target
	if !snap.Accessible {
		issue := subject.Name + " not accessible"
		if snap.Error != "" {
			issue += ": " + e.preview(snap.Error)
		}
		return []feature.Recommendation{{
			Priority: feature.PriorityHigh,
			Subject:  &subject,
			Issue:    issue,
			Remedy:   "check that " + subject.URL + " is reachable and that the deployment status is healthy",
		}}
	}

	var out []feature.Recommendation
	for _, d := range rep.Diffs {
		rule := e.rules[d.Feature]
		if !rule.Critical {
			continue
		}
		r := d.Left
		if side == 1 {
			r = d.Right
		}
		if r.Satisfied() {
			continue
		}
		issue := subject.Name + ": " + rule.Issue
		if r.Status == feature.StatusError {
			issue += " (probe error: " + e.preview(r.Message) + ")"
		}
		out = append(out, feature.Recommendation{
			Priority: rule.Priority,
			Subject:  &subject,
			Feature:  d.Feature,
			Issue:    issue,
			Remedy:   rule.Remedy,
		})
	}

	if n := len(snap.ConsoleErrors); n > 0 {
		previews := make([]string, 0, e.cfg.PreviewCount)
		for _, c := range snap.ConsoleErrors {
			if len(previews) == e.cfg.PreviewCount {
				break
			}
			previews = append(previews, e.preview(c.Message))
		}
		out = append(out, feature.Recommendation{
			Priority: feature.PriorityHigh,
			Subject:  &subject,
			Issue:    fmt.Sprintf("%s: %d console errors: %s", subject.Name, n, strings.Join(previews, " | ")),
			Remedy:   "inspect the browser console of " + subject.URL + " and fix the failing scripts or resources",
		})
	}
	return out
}

// preview strips markup and cuts s to the configured length in runes.
func (e *Engine) preview(s string) string {
	s = strings.Join(strings.Fields(Plain(s)), " ")
	if r := []rune(s); len(r) > e.cfg.PreviewLen {
		return string(r[:e.cfg.PreviewLen]) + "..."
	}
	return s
}
