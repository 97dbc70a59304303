package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

const (
	subtitleSelector   = ".font-semibold, [class*='font-semibold'], h2, h3"
	backgroundSelector = "[id*='tsparticles'], [class*='tsparticles'], canvas"

	// minSubtitleLen skips empty and decorative headings.
	minSubtitleLen = 6
)

func boldSubtitles(ctx context.Context, env *Env) (feature.Result, error) {
	els, err := env.Page.QueryAll(ctx, subtitleSelector)
	if err != nil {
		return feature.Result{}, fmt.Errorf("query subtitles: %w", err)
	}
	var items []string
	for _, el := range els {
		txt, err := el.Text(ctx)
		if err != nil {
			return feature.Result{}, err
		}
		if len(txt) >= minSubtitleLen {
			items = append(items, txt)
		}
	}
	if len(items) == 0 {
		return feature.NotFound(), nil
	}
	return feature.Found(feature.Count{Count: len(items), Items: items}), nil
}

func backendIntegration(ctx context.Context, env *Env) (feature.Result, error) {
	v, err := env.Page.Evaluate(ctx, session.ScriptDocumentHTML)
	if err != nil {
		return feature.Result{}, fmt.Errorf("read page source: %w", err)
	}
	src, ok := v.(string)
	if !ok {
		return feature.Result{}, fmt.Errorf("read page source: got %T, want string", v)
	}
	src = strings.ToLower(src)

	var matched []string
	for _, sig := range env.Config.BackendSignatures {
		if strings.Contains(src, strings.ToLower(sig)) {
			matched = append(matched, sig)
		}
	}
	if len(matched) == 0 {
		return feature.NotFound(), nil
	}
	return feature.Found(feature.Indicators{Matched: matched}), nil
}

func animatedBackground(ctx context.Context, env *Env) (feature.Result, error) {
	els, err := env.Page.QueryAll(ctx, backgroundSelector)
	if err != nil {
		return feature.Result{}, fmt.Errorf("query animation layers: %w", err)
	}
	if len(els) == 0 {
		return feature.NotFound(), nil
	}
	items := make([]string, 0, len(els))
	for _, el := range els {
		tag, err := el.Tag(ctx)
		if err != nil {
			return feature.Result{}, err
		}
		items = append(items, strings.ToLower(tag))
	}
	return feature.Found(feature.Count{Count: len(els), Items: items}), nil
}
