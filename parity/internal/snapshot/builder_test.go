package snapshot

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/probe"
	"github.com/hazyhaar/paritycheck/parity/internal/session/sessiontest"
)

const (
	home  = "https://t1.example/"
	admin = "https://t1.example/admin"
)

const homeHTML = `<!DOCTYPE html><html><head><title>Urban Reel</title></head><body>
<a href="/admin">Admin</a>
<h1 class="gradient" style="background-image: linear-gradient(90deg, red, blue); background-clip: text">Urban Directory</h1>
<h2 class="font-semibold">Discover the city</h2>
<canvas></canvas>
<script src="https://www.gstatic.com/firebasejs/9.0.0/firebase-app.js"></script>
</body></html>`

const adminHTML = `<!DOCTYPE html><html><head><title>Admin</title></head><body>
<p>Manage your video directory</p>
<button data-toggle="dlg">Add Video</button>
<div id="dlg" role="dialog" hidden><div class="backdrop-blur"><input type="checkbox"></div></div>
</body></html>`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newBuilder(reg *probe.Registry) *Builder {
	if reg == nil {
		reg = probe.Default()
	}
	return New(reg, Config{
		Probe: probe.Config{DialogSettle: 20 * time.Millisecond, PollInterval: time.Millisecond},
		Now:   func() time.Time { return fixedNow },
		NewID: func() string { return "snap-1" },
	})
}

func sitePage() *sessiontest.Page {
	return sessiontest.New().
		AddPage(home, homeHTML,
			feature.ConsoleEntry{Level: "log", Message: "booted"},
			feature.ConsoleEntry{Level: "error", Message: "Failed to load resource: 404"},
		).
		AddPage(admin, adminHTML)
}

var target = feature.Target{Name: "T1", URL: home}

func TestBuild_Accessible(t *testing.T) {
	page := sitePage()
	snap := newBuilder(nil).Build(context.Background(), target, page)

	if !snap.Accessible || snap.Error != "" {
		t.Fatalf("accessible=%v error=%q", snap.Accessible, snap.Error)
	}
	if snap.PageTitle != "Urban Reel" {
		t.Errorf("title = %q", snap.PageTitle)
	}
	if snap.ID != "snap-1" || !snap.CapturedAt.Equal(fixedNow) {
		t.Errorf("id=%q capturedAt=%v", snap.ID, snap.CapturedAt)
	}
	if snap.Vocabulary != feature.VocabularyVersion {
		t.Errorf("vocabulary = %d", snap.Vocabulary)
	}
	for _, id := range feature.Vocabulary() {
		r, ok := snap.Results[id]
		if !ok {
			t.Errorf("%s: missing result", id)
			continue
		}
		if !r.IsFound() {
			t.Errorf("%s: got %v, want found", id, r)
		}
	}
	if len(snap.Results) != len(feature.Vocabulary()) {
		t.Errorf("results = %d entries", len(snap.Results))
	}

	want := []feature.ConsoleEntry{{Level: "error", Message: "Failed to load resource: 404"}}
	if !reflect.DeepEqual(snap.ConsoleErrors, want) {
		t.Errorf("console errors = %+v, want %+v", snap.ConsoleErrors, want)
	}

	navs := page.Navigations()
	if navs[0] != home || navs[len(navs)-1] != home {
		t.Errorf("navigations = %v, want to start and end on the target", navs)
	}
}

func TestBuild_RepeatedConsoleErrorsCounted(t *testing.T) {
	notFound := feature.ConsoleEntry{Level: "error", Message: "Failed to load resource: 404"}
	page := sessiontest.New().AddPage(home, `<html><head><title>Bare</title></head><body></body></html>`, notFound, notFound)
	snap := newBuilder(nil).Build(context.Background(), target, page)

	if !reflect.DeepEqual(snap.ConsoleErrors, []feature.ConsoleEntry{notFound, notFound}) {
		t.Errorf("console errors = %+v, want both entries", snap.ConsoleErrors)
	}
}

func TestBuild_SubPageConsoleErrorsExcluded(t *testing.T) {
	page := sessiontest.New().
		AddPage(home, homeHTML, feature.ConsoleEntry{Level: "error", Message: "home failed"}).
		AddPage(admin, adminHTML, feature.ConsoleEntry{Level: "error", Message: "admin failed"})
	snap := newBuilder(nil).Build(context.Background(), target, page)

	want := []feature.ConsoleEntry{{Level: "error", Message: "home failed"}}
	if !reflect.DeepEqual(snap.ConsoleErrors, want) {
		t.Errorf("console errors = %+v, want %+v", snap.ConsoleErrors, want)
	}
	if !snap.Results[feature.AdminSubtitle].IsFound() {
		t.Error("admin page was not visited")
	}
}

func TestBuild_Unreachable(t *testing.T) {
	page := sessiontest.New()
	snap := newBuilder(nil).Build(context.Background(), target, page)

	if snap.Accessible {
		t.Fatal("expected inaccessible snapshot")
	}
	if snap.Error == "" {
		t.Error("expected a snapshot-level error")
	}
	if len(snap.Results) != 0 || len(snap.ConsoleErrors) != 0 {
		t.Errorf("results=%v console=%v, want empty", snap.Results, snap.ConsoleErrors)
	}
	if got := len(page.Navigations()); got != 1 {
		t.Errorf("navigations = %d, want 1", got)
	}
}

func TestBuild_NoPageLoaded(t *testing.T) {
	page := sessiontest.New().AddPage(home, "")
	snap := newBuilder(nil).Build(context.Background(), target, page)
	if snap.Accessible || snap.Error == "" {
		t.Fatalf("accessible=%v error=%q", snap.Accessible, snap.Error)
	}
}

func TestBuild_NilPage(t *testing.T) {
	snap := newBuilder(nil).Build(context.Background(), target, nil)
	if snap.Accessible {
		t.Fatal("expected inaccessible snapshot")
	}
}

func TestBuild_ProbeFaultIsIsolated(t *testing.T) {
	boom := errors.New("stale element")
	page := sitePage().Fail("h1", boom)
	snap := newBuilder(nil).Build(context.Background(), target, page)

	if !snap.Accessible {
		t.Fatal("a probe fault must not make the target inaccessible")
	}
	if got := snap.Results[feature.PrimaryTitle]; got.Status != feature.StatusError {
		t.Errorf("title: got %v, want error", got)
	}
	// Dependent probe short-circuits instead of faulting again.
	if got := snap.Results[feature.TitleGradient]; got.Status != feature.StatusNotFound {
		t.Errorf("gradient: got %v, want not found", got)
	}
	if got := snap.Results[feature.AdminEntryPoint]; !got.IsFound() {
		t.Errorf("admin: got %v, want found", got)
	}
}

func TestBuild_PanicIsIsolated(t *testing.T) {
	reg, err := probe.NewRegistry(
		probe.Probe{Feature: feature.PrimaryTitle, Run: func(context.Context, *probe.Env) (feature.Result, error) {
			panic("nil map")
		}},
		probe.Probe{Feature: feature.AnimatedBackground, Run: func(context.Context, *probe.Env) (feature.Result, error) {
			return feature.Found(feature.Count{Count: 1, Items: []string{"canvas"}}), nil
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	snap := newBuilder(reg).Build(context.Background(), target, sitePage())

	if got := snap.Results[feature.PrimaryTitle]; got.Status != feature.StatusError || got.Message != "probe panicked: nil map" {
		t.Errorf("panicking probe: got %v", got)
	}
	if got := snap.Results[feature.AnimatedBackground]; !got.IsFound() {
		t.Errorf("next probe: got %v", got)
	}
}

func TestBuild_ConsoleFaultKeepsResults(t *testing.T) {
	page := sitePage().Fail(sessiontest.FaultConsole, errors.New("log domain disabled"))
	snap := newBuilder(nil).Build(context.Background(), target, page)
	if !snap.Accessible || len(snap.ConsoleErrors) != 0 {
		t.Fatalf("accessible=%v console=%v", snap.Accessible, snap.ConsoleErrors)
	}
	if !snap.Results[feature.PrimaryTitle].IsFound() {
		t.Error("results lost on console fault")
	}
}

type stubPreflight map[string]string

func (s stubPreflight) Deployment(context.Context, string) (map[string]string, error) {
	return s, nil
}

func TestBuild_Deployment(t *testing.T) {
	b := New(probe.Default(), Config{Preflight: stubPreflight{"version": "1.4.2"}})
	snap := b.Build(context.Background(), target, sessiontest.New())
	if snap.Deployment["version"] != "1.4.2" {
		t.Errorf("deployment = %v", snap.Deployment)
	}
}

func TestUnreachable(t *testing.T) {
	b := New(probe.Default(), Config{Preflight: stubPreflight{"status": "503"}})
	snap := b.Unreachable(context.Background(), target, errors.New("open page: chrome not found"))
	if snap.Accessible || snap.Error != "open page: chrome not found" {
		t.Fatalf("accessible=%v error=%q", snap.Accessible, snap.Error)
	}
	if len(snap.Results) != 0 || len(snap.ConsoleErrors) != 0 {
		t.Errorf("results=%v console=%v", snap.Results, snap.ConsoleErrors)
	}
	if snap.Deployment["status"] != "503" {
		t.Errorf("deployment = %v", snap.Deployment)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	b := newBuilder(nil)
	first := b.Build(context.Background(), target, sitePage())
	second := b.Build(context.Background(), target, sitePage())

	if first.Accessible != second.Accessible || first.PageTitle != second.PageTitle {
		t.Fatalf("header differs: %+v vs %+v", first, second)
	}
	for _, id := range feature.Vocabulary() {
		if !first.Result(id).Equal(second.Result(id)) {
			t.Errorf("%s: %v != %v", id, first.Result(id), second.Result(id))
		}
	}
	if !reflect.DeepEqual(first.ConsoleErrors, second.ConsoleErrors) {
		t.Errorf("console differs: %v vs %v", first.ConsoleErrors, second.ConsoleErrors)
	}
}
