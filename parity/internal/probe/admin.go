package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

var (
	adminSelectors = []string{
		"a[href*='admin']",
		"button[class*='admin']",
		"[data-testid='admin']",
	}
	// adminTextSelector is the fallback when no structural signature
	// matches: any link or button whose text names the admin area.
	adminTextSelector = "a, button"

	subtitleTextSelectors = []string{"p", "h2", "h3", "span", "div"}

	dialogSelectors = []string{
		".modal",
		"[role='dialog']",
		".fixed",
		".z-50",
	}
	checkboxSelector = "input[type='checkbox'], [role='checkbox']"
)

func adminEntryPoint(ctx context.Context, env *Env) (feature.Result, error) {
	el, err := firstMatch(ctx, env.Page, adminSelectors, anyElement)
	if err != nil {
		return feature.Result{}, err
	}
	if el == nil {
		el, err = firstMatch(ctx, env.Page, []string{adminTextSelector}, textContains(ctx, env.Config.AdminLinkText))
		if err != nil {
			return feature.Result{}, err
		}
	}
	if el == nil {
		return feature.NotFound(), nil
	}

	desc, err := describe(ctx, el)
	if err != nil {
		return feature.Result{}, err
	}
	// The raw attribute keeps the payload comparable across hosts.
	if desc.Tag == "a" {
		href, _, err := el.Attribute(ctx, "href")
		if err != nil {
			return feature.Result{}, err
		}
		desc.Href = href
	}
	desc.Classes = nil
	return feature.Found(desc), nil
}

// openAdmin navigates to the admin page linked by the entry point. It
// returns false when the entry point is not a link.
func openAdmin(ctx context.Context, env *Env) (bool, error) {
	entry, ok := env.Dep(feature.AdminEntryPoint).Payload.(feature.Element)
	if !ok || entry.Href == "" {
		return false, nil
	}
	target, err := resolve(env.Target.URL, entry.Href)
	if err != nil {
		return false, err
	}
	if _, err := env.Page.Navigate(ctx, target); err != nil {
		return false, fmt.Errorf("navigate admin page: %w", err)
	}
	return true, nil
}

func adminSubtitle(ctx context.Context, env *Env) (feature.Result, error) {
	opened, err := openAdmin(ctx, env)
	if err != nil || !opened {
		return feature.NotFound(), err
	}
	el, err := firstMatch(ctx, env.Page, subtitleTextSelectors, textContains(ctx, env.Config.AdminSubtitleText))
	if err != nil || el == nil {
		return feature.NotFound(), err
	}
	desc, err := describe(ctx, el)
	if err != nil {
		return feature.Result{}, err
	}
	desc.Classes = nil
	return feature.Found(desc), nil
}

func checkboxControl(ctx context.Context, env *Env) (feature.Result, error) {
	opened, err := openAdmin(ctx, env)
	if err != nil || !opened {
		return feature.NotFound(), err
	}

	opener, err := firstMatch(ctx, env.Page, []string{adminTextSelector}, textContains(ctx, env.Config.DialogOpeners...))
	if err != nil || opener == nil {
		return feature.NotFound(), err
	}
	if err := opener.Click(ctx); err != nil {
		return feature.Result{}, fmt.Errorf("open dialog: %w", err)
	}

	var dialog session.Element
	err = waitFor(ctx, env.Config.DialogSettle, env.Config.PollInterval, func() (bool, error) {
		el, err := firstMatch(ctx, env.Page, dialogSelectors, func(el session.Element) (bool, error) {
			return el.Visible(ctx)
		})
		dialog = el
		return el != nil, err
	})
	if errors.Is(err, errSettle) {
		env.Logger.Debug("probe: dialog never became visible", "target", env.Target.Name)
		return feature.NotFound(), nil
	}
	if err != nil {
		return feature.Result{}, err
	}

	controls, err := describeControls(ctx, dialog)
	if err != nil {
		return feature.Result{}, err
	}
	if controls.Count == 0 {
		return feature.NotFound(), nil
	}

	// Leave the page as we found it: reloading the admin page closes the dialog.
	if _, err := openAdmin(ctx, env); err != nil {
		env.Logger.Debug("probe: reload admin page after dialog", "error", err)
	}
	return feature.Found(controls), nil
}

func describeControls(ctx context.Context, container session.Element) (feature.Controls, error) {
	els, err := container.QueryAll(ctx, checkboxSelector)
	if err != nil {
		return feature.Controls{}, fmt.Errorf("query checkboxes: %w", err)
	}
	var c feature.Controls
	for _, el := range els {
		c.Count++
		cls, _, err := el.Attribute(ctx, "class")
		if err != nil {
			return c, err
		}
		if cls != "" {
			c.Classes = append(c.Classes, cls)
		}
		parent, err := el.Parent(ctx)
		if err != nil {
			return c, err
		}
		if parent == nil {
			continue
		}
		pcls, _, err := parent.Attribute(ctx, "class")
		if err != nil {
			return c, err
		}
		if strings.Contains(pcls, "backdrop") {
			c.Glassmorphic++
		}
	}
	return c, nil
}
