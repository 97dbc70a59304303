package probe

import (
	"context"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// titleSelectors is tried in order; the first element whose text contains
// the configured title wins.
var titleSelectors = []string{
	"h1",
	"[class*='gradient']",
	"[class*='title']",
	".bg-gradient-to-r",
}

// gradientStyleProps are read from the title element.
var gradientStyleProps = []string{
	"background-image",
	"background-clip",
	"-webkit-background-clip",
	"animation-name",
}

func locateTitle(ctx context.Context, env *Env) (session.Element, error) {
	return firstMatch(ctx, env.Page, titleSelectors, textContains(ctx, env.Config.TitleText))
}

func primaryTitle(ctx context.Context, env *Env) (feature.Result, error) {
	el, err := locateTitle(ctx, env)
	if err != nil || el == nil {
		return feature.NotFound(), err
	}
	desc, err := describe(ctx, el)
	if err != nil {
		return feature.Result{}, err
	}
	return feature.Found(desc), nil
}

func titleGradient(ctx context.Context, env *Env) (feature.Result, error) {
	el, err := locateTitle(ctx, env)
	if err != nil || el == nil {
		return feature.NotFound(), err
	}
	styles := make(map[string]string, len(gradientStyleProps))
	for _, prop := range gradientStyleProps {
		v, err := env.Page.ComputedStyle(ctx, el, prop)
		if err != nil {
			return feature.Result{}, err
		}
		styles[prop] = v
	}
	classes, err := session.Classes(ctx, el)
	if err != nil {
		return feature.Result{}, err
	}
	return feature.Found(ClassifyTextGradient(styles, classes)), nil
}

// ClassifyTextGradient decides whether computed styles render text as a
// gradient. Both conditions are required: a gradient function in
// background-image and a background clipped to text. A gradient alone
// paints a box behind the text, not the text itself.
func ClassifyTextGradient(styles map[string]string, classes []string) feature.TextGradient {
	bgImage := strings.TrimSpace(styles["background-image"])
	clip := strings.TrimSpace(styles["background-clip"])
	webkitClip := strings.TrimSpace(styles["-webkit-background-clip"])
	anim := strings.TrimSpace(styles["animation-name"])

	hasGradient := strings.Contains(strings.ToLower(bgImage), "gradient(")
	clipped := clip == "text" || webkitClip == "text"

	g := feature.TextGradient{
		IsTextGradient: hasGradient && clipped,
		HasAnimation:   anim != "" && anim != "none",
		BackgroundClip: clip,
	}
	if webkitClip == "text" {
		g.BackgroundClip = webkitClip
	}
	if bgImage != "none" {
		g.BackgroundImage = bgImage
	}
	for _, c := range classes {
		if strings.Contains(strings.ToLower(c), "gradient") {
			g.GradientClasses = append(g.GradientClasses, c)
		}
	}
	return g
}
