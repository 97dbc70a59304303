package probe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

// Config holds the text signatures and waits the probes use.
type Config struct {
	TitleText         string        `yaml:"title_text"`
	AdminLinkText     string        `yaml:"admin_link_text"`
	AdminSubtitleText string        `yaml:"admin_subtitle_text"`
	DialogOpeners     []string      `yaml:"dialog_openers"`
	BackendSignatures []string      `yaml:"backend_signatures"`
	DialogSettle      time.Duration `yaml:"dialog_settle"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

func (c *Config) defaults() {
	if c.TitleText == "" {
		c.TitleText = "Urban Directory"
	}
	if c.AdminLinkText == "" {
		c.AdminLinkText = "Admin"
	}
	if c.AdminSubtitleText == "" {
		c.AdminSubtitleText = "Manage your video directory"
	}
	if len(c.DialogOpeners) == 0 {
		c.DialogOpeners = []string{"Add", "Edit"}
	}
	if len(c.BackendSignatures) == 0 {
		c.BackendSignatures = []string{"firebase", "firestore", "googleapis.com"}
	}
	if c.DialogSettle <= 0 {
		c.DialogSettle = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
}

// errSettle is returned by waitFor when the condition never held.
var errSettle = errors.New("probe: state did not settle")

// firstMatch tries selectors in order and returns the first element that
// accept approves. A nil element with a nil error means nothing matched.
func firstMatch(ctx context.Context, q querier, selectors []string, accept func(session.Element) (bool, error)) (session.Element, error) {
	for _, sel := range selectors {
		els, err := q.QueryAll(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", sel, err)
		}
		for _, el := range els {
			ok, err := accept(el)
			if err != nil {
				return nil, err
			}
			if ok {
				return el, nil
			}
		}
	}
	return nil, nil
}

type querier interface {
	QueryAll(ctx context.Context, selector string) ([]session.Element, error)
}

func anyElement(session.Element) (bool, error) { return true, nil }

func textContains(ctx context.Context, substrs ...string) func(session.Element) (bool, error) {
	return func(el session.Element) (bool, error) {
		txt, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		for _, s := range substrs {
			if strings.Contains(txt, s) {
				return true, nil
			}
		}
		return false, nil
	}
}

// describe builds the Element payload for el.
func describe(ctx context.Context, el session.Element) (feature.Element, error) {
	tag, err := el.Tag(ctx)
	if err != nil {
		return feature.Element{}, err
	}
	txt, err := el.Text(ctx)
	if err != nil {
		return feature.Element{}, err
	}
	classes, err := session.Classes(ctx, el)
	if err != nil {
		return feature.Element{}, err
	}
	return feature.Element{Tag: strings.ToLower(tag), Text: txt, Classes: classes}, nil
}

// waitFor polls cond until it holds, the settle budget runs out, or ctx is
// done.
func waitFor(ctx context.Context, budget, interval time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(budget)
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errSettle
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// resolve turns an href found on the target page into an absolute URL.
func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse target url: %w", err)
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return b.ResolveReference(h).String(), nil
}
