// Package session defines the page capability surface that probes and the
// snapshot builder run against. The browser package provides the Chrome
// implementation; sessiontest provides an in-memory one for tests.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// ErrNoPage is returned when navigation completed but nothing was loaded
// (blank page, browser error page).
var ErrNoPage = errors.New("session: no page loaded")

// ScriptDocumentHTML evaluates to the serialised document.
const ScriptDocumentHTML = `() => document.documentElement.outerHTML`

// Page is one navigable browser page. A Page is not safe for concurrent
// use: it holds a single navigation state.
type Page interface {
	// Navigate loads url. It reports false with a non-nil error when the
	// page could not be loaded within the adapter's bounded wait.
	Navigate(ctx context.Context, url string) (bool, error)
	Title(ctx context.Context) (string, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	ComputedStyle(ctx context.Context, el Element, property string) (string, error)
	Evaluate(ctx context.Context, script string) (any, error)
	// ConsoleLog returns every console entry seen since the page was opened.
	ConsoleLog(ctx context.Context) ([]feature.ConsoleEntry, error)
}

// Element is a handle on one DOM element of a Page.
type Element interface {
	Tag(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is set.
	Attribute(ctx context.Context, name string) (string, bool, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Parent returns nil at the document root.
	Parent(ctx context.Context) (Element, error)
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Severe reports whether a console level is SEVERE-equivalent.
func Severe(level string) bool {
	switch strings.ToLower(level) {
	case "error", "severe", "exception":
		return true
	}
	return false
}

// Classes splits an element's class attribute into its tokens.
func Classes(ctx context.Context, el Element) ([]string, error) {
	v, ok, err := el.Attribute(ctx, "class")
	if err != nil || !ok {
		return nil, err
	}
	return strings.Fields(v), nil
}
