package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html><html><head>
<meta charset="utf-8">
<meta name="app-version" content="1.4.2">
<meta property="build:sha" content="3f2a1bc">
<meta name="description" content="a video directory">
<title>Urban Reel</title></head>
<body><div id="root"></div><script src="/assets/index.js"></script></body></html>`

func TestDeployment(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Server", "Vercel")
		w.Header().Set("X-Vercel-Cache", "HIT")
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	info, err := New(WithUserAgent("probe/1")).Deployment(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"status":           "200",
		"server":           "Vercel",
		"x-vercel-cache":   "HIT",
		"etag":             `"abc"`,
		"meta:app-version": "1.4.2",
		"meta:build:sha":   "3f2a1bc",
		"rendering":        "client",
	}
	for k, v := range want {
		if info[k] != v {
			t.Errorf("%s = %q, want %q", k, info[k], v)
		}
	}
	if _, ok := info["meta:description"]; ok {
		t.Error("unrelated meta tag collected")
	}
	if ua != "probe/1" {
		t.Errorf("user agent = %q", ua)
	}
}

func TestDeployment_ErrorStatusIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	info, err := New().Deployment(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if info["status"] != "502" {
		t.Errorf("status = %q", info["status"])
	}
}

func TestDeployment_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New().Deployment(context.Background(), url); err == nil || !strings.HasPrefix(err.Error(), "fetcher: do:") {
		t.Errorf("err = %v", err)
	}
}

func TestRendering(t *testing.T) {
	static := `<!DOCTYPE html><html><head><title>Test Page</title></head><body><main><article>
<h1>Article Title</h1>
<p>Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur.</p>
</article></main></body></html>`
	scripted := `<html><body><p>short</p><script>` + strings.Repeat("var x = 1;", 100) + `</script></body></html>`

	tests := []struct {
		name, body, want string
	}{
		{"static article", static, "server"},
		{"spa shell", page, "client"},
		{"tiny", `<html><body>hi</body></html>`, "client"},
		{"empty", ``, "client"},
		{"script heavy", scripted, "client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rendering([]byte(tt.body)); got != tt.want {
				t.Errorf("Rendering = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetaTags_SelfClosing(t *testing.T) {
	got := MetaTags([]byte(`<meta name="Deploy-ID" content="dpl_123"/><meta name="release">`))
	if len(got) != 1 || got["deploy-id"] != "dpl_123" {
		t.Errorf("MetaTags = %v", got)
	}
}
