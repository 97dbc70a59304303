package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// element bounds each call to timeout, like the Page it came from.
type element struct {
	el      *rod.Element
	timeout time.Duration
}

func wrap(els rod.Elements, timeout time.Duration) []session.Element {
	out := make([]session.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el, timeout: timeout}
	}
	return out
}

func (e *element) bound(ctx context.Context) (*rod.Element, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	return e.el.Context(ctx), cancel
}

func (e *element) Tag(ctx context.Context) (string, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	res, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", fmt.Errorf("browser: tag: %w", err)
	}
	return res.Value.Str(), nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	s, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("browser: text: %w", err)
	}
	return s, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("browser: attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *element) QueryAll(ctx context.Context, selector string) ([]session.Element, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	els, err := el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return wrap(els, e.timeout), nil
}

func (e *element) Parent(ctx context.Context) (session.Element, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	res, err := el.Eval(`() => this.parentElement === null`)
	if err != nil {
		return nil, fmt.Errorf("browser: parent: %w", err)
	}
	if res.Value.Bool() {
		return nil, nil
	}
	parent, err := el.Parent()
	if err != nil {
		return nil, fmt.Errorf("browser: parent: %w", err)
	}
	return &element{el: parent, timeout: e.timeout}, nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	el, cancel := e.bound(ctx)
	defer cancel()
	v, err := el.Visible()
	if err != nil {
		return false, fmt.Errorf("browser: visible: %w", err)
	}
	return v, nil
}

// Click uses a real mouse click and falls back to a DOM click for elements
// the pointer cannot reach (covered or off-screen).
func (e *element) Click(ctx context.Context) error {
	el, cancel := e.bound(ctx)
	defer cancel()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}
