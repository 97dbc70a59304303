package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Empty mount points left by client-side frameworks.
var shellIndicators = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	"<noscript>you need to enable javascript",
	"<noscript>enable javascript",
}

// Rendering guesses how the page is rendered from its raw HTML: "server"
// when the markup already carries readable text, "client" for an SPA
// shell that only fills in under JavaScript.
func Rendering(body []byte) string {
	lower := bytes.ToLower(body)
	for _, ind := range shellIndicators {
		if bytes.Contains(lower, []byte(ind)) {
			return "client"
		}
	}
	text := visibleText(body)
	// Less than 200 visible characters or under 10% of the document.
	if text < 200 || float64(text)/float64(len(body)) < 0.10 {
		return "client"
	}
	return "server"
}

// visibleText counts non-whitespace text bytes outside script and style.
func visibleText(body []byte) int {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return n
		case html.StartTagToken:
			if name, _ := z.TagName(); isRaw(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRaw(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				n += len(strings.Join(strings.Fields(string(z.Text())), ""))
			}
		}
	}
}

func isRaw(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style" || s == "noscript"
}
