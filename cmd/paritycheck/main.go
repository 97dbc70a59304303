// Command paritycheck compares two live deployments of the same web
// application feature by feature.
//
// Usage:
//
//	paritycheck -config parity.yaml                          # check the configured pair once
//	paritycheck -left prod=https://a.example -right next=https://b.example
//	paritycheck -db parity.db -pair staging                  # check a saved pair
//	paritycheck -db parity.db -save staging -left ... -right ...
//	paritycheck -config parity.yaml -serve :8090             # HTTP API (+ MCP at /mcp)
//	paritycheck -config parity.yaml -mcp                     # MCP over stdio
//
// A one-shot check prints the run as JSON and exits 2 when any HIGH
// recommendation was produced.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/paritycheck/parity"
	"github.com/hazyhaar/paritycheck/parity/feature"
)

const version = "0.1.0"

const usage = "usage: paritycheck -config <file> | -left <name=url> -right <name=url> | -db <path> -pair <name> [-serve <addr> | -mcp]"

var errUsage = errors.New("usage")

type options struct {
	configPath string
	left       string
	right      string
	pair       string
	save       string
	dbPath     string
	serve      string
	mcpStdio   bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to parity.yaml config file")
	flag.StringVar(&o.left, "left", "", "left target as name=url or url")
	flag.StringVar(&o.right, "right", "", "right target as name=url or url")
	flag.StringVar(&o.pair, "pair", "", "check the target pair saved under this name (needs -db)")
	flag.StringVar(&o.save, "save", "", "save -left/-right under this pair name and exit (needs -db)")
	flag.StringVar(&o.dbPath, "db", "", "path to SQLite run history (overrides store.path)")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address")
	flag.BoolVar(&o.mcpStdio, "mcp", false, "serve MCP over stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := run(ctx, logger, o)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("paritycheck: fatal", "error", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(ctx context.Context, logger *slog.Logger, o options) (int, error) {
	cfg, err := resolveConfig(o)
	if err != nil {
		return 0, err
	}

	var st *parity.Store
	if cfg.Store.Path != "" {
		st, err = parity.OpenStore(cfg.Store.Path)
		if err != nil {
			return 0, err
		}
		defer st.Close()
	}

	if o.save != "" {
		return 0, savePair(ctx, st, o)
	}

	sinks, err := parity.BuildSinks(cfg, st, logger)
	if err != nil {
		return 0, err
	}
	c, err := parity.New(cfg, logger, sinks...)
	if err != nil {
		return 0, fmt.Errorf("init: %w", err)
	}
	defer c.Close()
	if st != nil {
		c.UseStore(st)
	}

	switch {
	case o.mcpStdio:
		srv := newMCPServer(c)
		logger.Info("paritycheck: mcp on stdio")
		return 0, srv.Run(ctx, &mcp.StdioTransport{})
	case o.serve != "":
		return 0, serve(ctx, logger, c, o.serve)
	}

	left, right, err := pickTargets(ctx, c, st, o)
	if err != nil {
		return 0, err
	}
	r, err := c.Run(ctx, left, right)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return 0, err
	}
	for _, rec := range r.Recommendations {
		if rec.Priority == feature.PriorityHigh {
			return 2, nil
		}
	}
	return 0, nil
}

// resolveConfig merges the config file with the command-line overrides and
// fills defaults, so every invocation path sees the same settings.
func resolveConfig(o options) (*parity.Config, error) {
	cfg := &parity.Config{}
	if o.configPath != "" {
		var err error
		if cfg, err = parity.LoadConfigFile(o.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if o.dbPath != "" {
		cfg.Store.Path = o.dbPath
	}
	if o.left != "" || o.right != "" {
		cfg.Targets = []parity.Target{parseTarget(o.left, "T1"), parseTarget(o.right, "T2")}
	}
	if o.configPath == "" && o.pair == "" && len(cfg.Targets) == 0 && !o.mcpStdio && o.serve == "" {
		return nil, errUsage
	}
	cfg.ApplyDefaults()
	cfg.Sinks = sinksFor(cfg.Sinks, o)
	return cfg, nil
}

// sinksFor drops stdout sinks where stdout is already spoken for: the MCP
// stdio transport owns it, and a one-shot check prints the run itself.
func sinksFor(in []parity.SinkConfig, o options) []parity.SinkConfig {
	if !o.mcpStdio && o.serve != "" {
		return in
	}
	out := make([]parity.SinkConfig, 0, len(in))
	for _, sc := range in {
		if sc.Type != "stdout" {
			out = append(out, sc)
		}
	}
	return out
}

// parseTarget accepts "name=url" or a bare URL.
func parseTarget(s, def string) parity.Target {
	if name, u, ok := strings.Cut(s, "="); ok && !strings.Contains(name, "/") {
		return parity.Target{Name: name, URL: u}
	}
	return parity.Target{Name: def, URL: s}
}

func pickTargets(ctx context.Context, c *parity.Checker, st *parity.Store, o options) (left, right parity.Target, err error) {
	if o.pair == "" {
		return c.Targets()
	}
	if st == nil {
		return left, right, errors.New("-pair needs -db or store.path")
	}
	return parity.LoadTargets(ctx, st, o.pair)
}

func savePair(ctx context.Context, st *parity.Store, o options) error {
	if st == nil {
		return errors.New("-save needs -db or store.path")
	}
	if o.left == "" || o.right == "" {
		return errors.New("-save needs -left and -right")
	}
	return parity.SaveTargets(ctx, st, o.save, parseTarget(o.left, "T1"), parseTarget(o.right, "T2"))
}

func newMCPServer(c *parity.Checker) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "paritycheck", Version: version}, nil)
	c.RegisterMCP(srv)
	return srv
}

func serve(ctx context.Context, logger *slog.Logger, c *parity.Checker, addr string) error {
	mcpSrv := newMCPServer(c)
	r := chi.NewRouter()
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))
	r.Mount("/", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// A run drives two browser tabs through every probe.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("paritycheck: serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("paritycheck: shutdown", "error", err)
	}
	logger.Info("paritycheck: stopped")
	return nil
}
