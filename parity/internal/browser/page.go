package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Page is a stealth Chrome tab implementing session.Page. Console
// messages are recorded from the moment the tab opens.
type Page struct {
	page    *rod.Page
	cfg     *Config
	router  *rod.HijackRouter
	stop    context.CancelFunc
	release func()

	// acceptDialog answers the JavaScript dialog currently open. CDP calls
	// on the page block until it is answered.
	acceptDialog func() error

	mu      sync.Mutex
	console []feature.ConsoleEntry
	closed  bool
}

var _ session.Page = (*Page)(nil)

func newPage(b *rod.Browser, cfg *Config, release func()) (*Page, error) {
	rp, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	evCtx, stop := context.WithCancel(context.Background())
	p := &Page{page: rp, cfg: cfg, stop: stop, release: release}
	p.acceptDialog = func() error {
		return proto.PageHandleJavaScriptDialog{Accept: true}.Call(rp)
	}

	if len(cfg.ResourceBlocking) > 0 {
		if p.router, err = blockResources(rp, cfg.ResourceBlocking); err != nil {
			cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	if err := (proto.RuntimeEnable{}).Call(rp); err != nil {
		cfg.Logger.Warn("browser: runtime domain", "error", err)
	}
	if err := (proto.LogEnable{}).Call(rp); err != nil {
		cfg.Logger.Warn("browser: log domain", "error", err)
	}

	// Subscribe before the first navigation so load-time errors are kept.
	wait := rp.Context(evCtx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) { p.record(consoleEntry(e)) },
		func(e *proto.RuntimeExceptionThrown) { p.record(exceptionEntry(e)) },
		func(e *proto.LogEntryAdded) { p.record(logEntry(e)) },
		p.onDialog,
	)
	go wait()

	return p, nil
}

func (p *Page) record(e feature.ConsoleEntry) {
	p.mu.Lock()
	p.console = append(p.console, e)
	p.mu.Unlock()
}

// onDialog accepts alert, confirm and prompt dialogs as soon as they open
// and keeps their text in the console log.
func (p *Page) onDialog(e *proto.PageJavascriptDialogOpening) {
	p.record(dialogEntry(e))
	// Answered from a new goroutine: the event loop must keep running
	// while the CDP call waits for its response.
	go func() {
		if err := p.acceptDialog(); err != nil {
			p.cfg.Logger.Warn("browser: accept dialog", "type", e.Type, "error", err)
		}
	}()
}

// bound limits one page or element operation to OpTimeout.
func (p *Page) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.cfg.OpTimeout)
}

// Navigate loads url and waits for the load event, then up to Settle for
// the network to go idle. The whole call is bounded by NavTimeout.
func (p *Page) Navigate(ctx context.Context, url string) (bool, error) {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavTimeout)
	defer cancel()
	page := p.page.Context(navCtx)

	if err := page.Navigate(url); err != nil {
		return false, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		p.cfg.Logger.Warn("browser: wait load", "url", url, "error", err)
	}
	if err := page.WaitIdle(p.cfg.Settle); err != nil {
		p.cfg.Logger.Debug("browser: page did not settle", "url", url, "error", err)
	}

	info, err := page.Info()
	if err != nil {
		return false, fmt.Errorf("browser: page info: %w", err)
	}
	if noPage(info.URL) {
		return false, session.ErrNoPage
	}
	return true, nil
}

// noPage reports whether Chrome is showing a placeholder instead of a
// loaded document.
func noPage(url string) bool {
	return url == "" || url == "about:blank" || strings.HasPrefix(url, "chrome-error://")
}

func (p *Page) Title(ctx context.Context) (string, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	if noPage(info.URL) {
		return "", session.ErrNoPage
	}
	return info.Title, nil
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]session.Element, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return wrap(els, p.cfg.OpTimeout), nil
}

func (p *Page) ComputedStyle(ctx context.Context, el session.Element, property string) (string, error) {
	e, ok := el.(*element)
	if !ok {
		return "", fmt.Errorf("browser: foreign element %T", el)
	}
	ctx, cancel := p.bound(ctx)
	defer cancel()
	res, err := e.el.Context(ctx).Eval(`(prop) => getComputedStyle(this).getPropertyValue(prop)`, property)
	if err != nil {
		return "", fmt.Errorf("browser: computed style %s: %w", property, err)
	}
	return strings.TrimSpace(res.Value.Str()), nil
}

// Evaluate runs script in the page, bounded by NavTimeout, and returns its
// JSON-decoded result.
func (p *Page) Evaluate(ctx context.Context, script string) (any, error) {
	evalCtx, cancel := context.WithTimeout(ctx, p.cfg.NavTimeout)
	defer cancel()
	res, err := p.page.Context(evalCtx).Eval(script)
	if err != nil {
		return nil, fmt.Errorf("browser: evaluate: %w", err)
	}
	return res.Value.Val(), nil
}

func (p *Page) ConsoleLog(context.Context) ([]feature.ConsoleEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]feature.ConsoleEntry(nil), p.console...), nil
}

// Close closes the tab and stops its event listeners. Safe to call twice.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.stop()
	if p.router != nil {
		p.router.Stop()
	}
	err := p.page.Close()
	if p.release != nil {
		p.release()
	}
	return err
}
