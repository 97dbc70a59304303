package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/hazyhaar/paritycheck/parity"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		in   string
		want parity.Target
	}{
		{"prod=https://a.example", parity.Target{Name: "prod", URL: "https://a.example"}},
		{"https://a.example/?q=1", parity.Target{Name: "T1", URL: "https://a.example/?q=1"}},
		{"", parity.Target{Name: "T1"}},
	}
	for _, tc := range cases {
		if got := parseTarget(tc.in, "T1"); got != tc.want {
			t.Errorf("parseTarget(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parity.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sinkTypes(cfg *parity.Config) []string {
	var out []string
	for _, sc := range cfg.Sinks {
		out = append(out, sc.Type)
	}
	return out
}

func TestResolveConfig_StdoutSink(t *testing.T) {
	path := writeConfig(t, `
targets:
  - {name: prod, url: "https://a.example"}
  - {name: next, url: "https://b.example"}
sinks:
  - {type: stdout}
  - {type: file, dir: /tmp/parity}
`)
	cases := []struct {
		name string
		o    options
		want []string
	}{
		{"one-shot", options{configPath: path}, []string{"file"}},
		{"mcp", options{configPath: path, mcpStdio: true}, []string{"file"}},
		{"mcp wins over serve", options{configPath: path, mcpStdio: true, serve: ":0"}, []string{"file"}},
		{"serve", options{configPath: path, serve: ":0"}, []string{"stdout", "file"}},
		{"flags only one-shot", options{left: "https://a.example", right: "https://b.example"}, nil},
		{"flags only serve", options{left: "https://a.example", right: "https://b.example", serve: ":0"}, []string{"stdout"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := resolveConfig(tc.o)
			if err != nil {
				t.Fatal(err)
			}
			if got := sinkTypes(cfg); !slices.Equal(got, tc.want) {
				t.Errorf("sinks = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveConfig_DefaultsOnEveryPath(t *testing.T) {
	cfg, err := resolveConfig(options{left: "https://a.example", right: "next=https://b.example"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.NavTimeout != 30*time.Second || cfg.Browser.OpTimeout != 10*time.Second {
		t.Errorf("browser defaults not applied: %+v", cfg.Browser)
	}
	if cfg.Targets[0].Name != "T1" || cfg.Targets[1].Name != "next" {
		t.Errorf("targets = %+v", cfg.Targets)
	}
}

func TestResolveConfig_Usage(t *testing.T) {
	if _, err := resolveConfig(options{}); !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want errUsage", err)
	}
}
