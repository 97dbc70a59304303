package sessiontest

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// queryLocked returns the descendants of scope matching selector, in
// document order. The caller holds p.mu.
func (p *Page) queryLocked(scope *html.Node, selector string) ([]session.Element, error) {
	if err := p.faults[selector]; err != nil {
		return nil, err
	}
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("sessiontest: selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(scope, sel)
	out := make([]session.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &element{page: p, node: n}
	}
	return out, nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
