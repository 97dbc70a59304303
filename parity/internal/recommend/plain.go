package recommend

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

var (
	strict  = bluemonday.StrictPolicy()
	tagOpen = regexp.MustCompile(`<(/?)([A-Za-z][A-Za-z0-9-]*)`)
)

// Plain strips HTML markup from s and returns its text. A "<" that does not
// open a known HTML element is text, as in the stack frame
// "(<anonymous>:1:5)".
func Plain(s string) string {
	s = tagOpen.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.ToLower(strings.TrimPrefix(m[1:], "/"))
		if atom.Lookup([]byte(name)) != 0 {
			return m
		}
		return "&lt;" + m[1:]
	})
	return html.UnescapeString(strict.Sanitize(s))
}
