// Package sessiontest provides an in-memory session.Page backed by static
// HTML documents, for tests that exercise probes without a browser.
package sessiontest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Fault keys accepted by Page.Fail besides plain selectors.
const (
	FaultTitle   = "title"
	FaultEval    = "eval"
	FaultConsole = "console"
	FaultClick   = "click"
)

// FaultStyle is the fault key for ComputedStyle(prop).
func FaultStyle(prop string) string { return "style:" + prop }

type doc struct {
	html    string
	console []feature.ConsoleEntry
}

// Page is a fake session.Page. Documents are re-parsed on every navigation
// so clicks never leak between loads, like a real page reload.
//
// Conventions understood by the fake:
//   - inline style="..." declarations are the computed style;
//   - an element with data-toggle="ID" un-hides the element with id=ID
//     when clicked;
//   - hidden attributes and display:none hide an element and its subtree.
type Page struct {
	mu          sync.Mutex
	docs        map[string]doc
	faults      map[string]error
	scripts     map[string]any
	root        *html.Node
	url         string
	console     []feature.ConsoleEntry
	navigations []string
}

// New returns an empty fake page.
func New() *Page {
	return &Page{
		docs:    make(map[string]doc),
		faults:  make(map[string]error),
		scripts: make(map[string]any),
	}
}

// AddPage registers the document served at url. An empty body makes
// navigation succeed without loading anything.
func (p *Page) AddPage(url, body string, console ...feature.ConsoleEntry) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[url] = doc{html: body, console: console}
	return p
}

// Fail makes the operation identified by key return err. Keys are CSS
// selectors (QueryAll), FaultStyle(prop), or one of the Fault* constants.
func (p *Page) Fail(key string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults[key] = err
	return p
}

// SetScript makes Evaluate(script) return v.
func (p *Page) SetScript(script string, v any) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[script] = v
	return p
}

// Navigations returns every URL passed to Navigate, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// URL is the currently loaded URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Navigate(_ context.Context, url string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)

	d, ok := p.docs[url]
	if !ok {
		p.root, p.url = nil, ""
		return false, fmt.Errorf("sessiontest: navigate %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	if d.html == "" {
		p.root, p.url = nil, ""
		return false, session.ErrNoPage
	}
	root, err := html.Parse(strings.NewReader(d.html))
	if err != nil {
		return false, fmt.Errorf("sessiontest: parse %s: %w", url, err)
	}
	p.root, p.url = root, url
	p.console = append(p.console, d.console...)
	return true, nil
}

func (p *Page) Title(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faults[FaultTitle]; err != nil {
		return "", err
	}
	if p.root == nil {
		return "", session.ErrNoPage
	}
	var title string
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			title = textOf(n)
			return false
		}
		return true
	})
	return title, nil
}

func (p *Page) QueryAll(_ context.Context, selector string) ([]session.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.root == nil {
		return nil, session.ErrNoPage
	}
	return p.queryLocked(p.root, selector)
}

func (p *Page) ComputedStyle(_ context.Context, el session.Element, property string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faults[FaultStyle(property)]; err != nil {
		return "", err
	}
	e, ok := el.(*element)
	if !ok {
		return "", fmt.Errorf("sessiontest: foreign element %T", el)
	}
	if v, ok := inlineStyle(e.node)[property]; ok {
		return v, nil
	}
	switch property {
	case "background-image", "animation-name":
		return "none", nil
	case "background-clip", "-webkit-background-clip":
		return "border-box", nil
	}
	return "", nil
}

func (p *Page) Evaluate(_ context.Context, script string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faults[FaultEval]; err != nil {
		return nil, err
	}
	if v, ok := p.scripts[script]; ok {
		return v, nil
	}
	if script == session.ScriptDocumentHTML {
		if p.root == nil {
			return nil, session.ErrNoPage
		}
		var buf bytes.Buffer
		if err := html.Render(&buf, p.root); err != nil {
			return nil, err
		}
		return buf.String(), nil
	}
	return nil, fmt.Errorf("sessiontest: unsupported script %q", script)
}

func (p *Page) ConsoleLog(_ context.Context) ([]feature.ConsoleEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faults[FaultConsole]; err != nil {
		return nil, err
	}
	return append([]feature.ConsoleEntry(nil), p.console...), nil
}

type element struct {
	page *Page
	node *html.Node
}

func (e *element) Tag(context.Context) (string, error) { return e.node.Data, nil }

func (e *element) Text(context.Context) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return textOf(e.node), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	v, ok := attr(e.node, name)
	return v, ok, nil
}

func (e *element) QueryAll(_ context.Context, selector string) ([]session.Element, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.queryLocked(e.node, selector)
}

func (e *element) Parent(context.Context) (session.Element, error) {
	if e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return nil, nil
	}
	return &element{page: e.page, node: e.node.Parent}, nil
}

func (e *element) Visible(context.Context) (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if _, hidden := attr(n, "hidden"); hidden {
			return false, nil
		}
		if inlineStyle(n)["display"] == "none" {
			return false, nil
		}
	}
	return true, nil
}

func (e *element) Click(context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if err := e.page.faults[FaultClick]; err != nil {
		return err
	}
	id, ok := attr(e.node, "data-toggle")
	if !ok || e.page.root == nil {
		return nil
	}
	walk(e.page.root, func(n *html.Node) bool {
		if v, _ := attr(n, "id"); n.Type == html.ElementNode && v == id {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Key != "hidden" {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
			return false
		}
		return true
	})
	return nil
}

// walk visits n and its descendants in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		case c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style"):
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			collect(k)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func inlineStyle(n *html.Node) map[string]string {
	out := make(map[string]string)
	v, ok := attr(n, "style")
	if !ok {
		return out
	}
	for _, decl := range strings.Split(v, ";") {
		k, val, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}
	return out
}
