package parity

import (
	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/config"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Config is the top-level paritycheck configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle and page loads.
type BrowserConfig = config.BrowserConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// Target identifies one deployment under test.
type Target = feature.Target

// Page is the page session capability the probes need, for use with
// Checker.UsePages.
type Page = session.Page

// Element is a handle to one DOM element of a Page.
type Element = session.Element

// ErrNoPage reports that a session has no document loaded.
var ErrNoPage = session.ErrNoPage

// ErrInvalidTarget is wrapped by Run when a target lacks a name or an
// absolute http(s) URL.
var ErrInvalidTarget = config.ErrInvalidTarget

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
