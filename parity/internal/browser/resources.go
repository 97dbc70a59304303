package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Config names accepted besides the raw CDP resource types.
var resourceAliases = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockSet normalises configured names to CDP resource types. Stylesheets
// can be blocked, but gradient and visibility probes then read defaults.
func blockSet(names []string) map[proto.NetworkResourceType]bool {
	set := make(map[proto.NetworkResourceType]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if t, ok := resourceAliases[n]; ok {
			set[t] = true
			continue
		}
		for _, t := range []proto.NetworkResourceType{
			proto.NetworkResourceTypeImage, proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeMedia, proto.NetworkResourceTypeStylesheet,
			proto.NetworkResourceTypeScript, proto.NetworkResourceTypeXHR,
			proto.NetworkResourceTypeFetch, proto.NetworkResourceTypeWebSocket,
			proto.NetworkResourceTypeOther,
		} {
			if strings.ToLower(string(t)) == n {
				set[t] = true
			}
		}
	}
	return set
}

// blockResources fails requests of the blocked types. The returned router
// must be stopped when the page closes.
func blockResources(page *rod.Page, names []string) (*rod.HijackRouter, error) {
	set := blockSet(names)
	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if set[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return nil, err
	}
	go router.Run()
	return router, nil
}
