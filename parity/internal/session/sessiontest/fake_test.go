package sessiontest

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/paritycheck/parity/internal/session"
)

const fixture = `<!DOCTYPE html><html><head><title>Urban</title></head><body>
<h1 class="gradient text-transparent" style="background-image: linear-gradient(red, blue)">Urban Directory</h1>
<a href="/admin" data-testid="admin">Admin</a>
<button data-toggle="dlg">Add Video</button>
<div id="dlg" role="dialog" hidden><input type="checkbox" class="peer"></div>
<script>var x = "firebase";</script>
</body></html>`

func TestSelectors(t *testing.T) {
	ctx := context.Background()
	p := New().AddPage("https://t", fixture)
	if ok, err := p.Navigate(ctx, "https://t"); !ok || err != nil {
		t.Fatalf("navigate: %v %v", ok, err)
	}

	tests := []struct {
		sel  string
		want int
	}{
		{"h1", 1},
		{"[class*='gradient']", 1},
		{".text-transparent", 1},
		{"a[href*='admin']", 1},
		{"[data-testid='admin']", 1},
		{"input[type='checkbox'], [role='checkbox']", 1},
		{"h2, h3", 0},
		{"*[role=dialog]", 1},
		{"div > input", 1},
		{"[role='dialog'] input[type='checkbox']", 1},
		{"body > input", 0},
	}
	for _, tt := range tests {
		els, err := p.QueryAll(ctx, tt.sel)
		if err != nil {
			t.Fatalf("%s: %v", tt.sel, err)
		}
		if len(els) != tt.want {
			t.Errorf("%s: got %d matches, want %d", tt.sel, len(els), tt.want)
		}
	}

	if _, err := p.QueryAll(ctx, "[role='dialog'"); err == nil {
		t.Error("malformed selector should fail")
	}
}

func TestClickTogglesDialog(t *testing.T) {
	ctx := context.Background()
	p := New().AddPage("https://t", fixture)
	p.Navigate(ctx, "https://t")

	dlg, _ := p.QueryAll(ctx, "[role='dialog']")
	if vis, _ := dlg[0].Visible(ctx); vis {
		t.Fatal("dialog should start hidden")
	}
	btn, _ := p.QueryAll(ctx, "button")
	if err := btn[0].Click(ctx); err != nil {
		t.Fatal(err)
	}
	if vis, _ := dlg[0].Visible(ctx); !vis {
		t.Error("dialog should be visible after click")
	}

	// A reload restores the original document.
	p.Navigate(ctx, "https://t")
	dlg, _ = p.QueryAll(ctx, "[role='dialog']")
	if vis, _ := dlg[0].Visible(ctx); vis {
		t.Error("dialog should be hidden after reload")
	}
}

func TestStylesAndText(t *testing.T) {
	ctx := context.Background()
	p := New().AddPage("https://t", fixture)
	p.Navigate(ctx, "https://t")

	h1, _ := p.QueryAll(ctx, "h1")
	if txt, _ := h1[0].Text(ctx); txt != "Urban Directory" {
		t.Errorf("text: got %q", txt)
	}
	if v, _ := p.ComputedStyle(ctx, h1[0], "background-image"); v != "linear-gradient(red, blue)" {
		t.Errorf("background-image: got %q", v)
	}
	if v, _ := p.ComputedStyle(ctx, h1[0], "background-clip"); v != "border-box" {
		t.Errorf("background-clip default: got %q", v)
	}
	if title, _ := p.Title(ctx); title != "Urban" {
		t.Errorf("title: got %q", title)
	}
}

func TestNavigateFailures(t *testing.T) {
	ctx := context.Background()
	p := New().AddPage("https://blank", "")

	if ok, err := p.Navigate(ctx, "https://missing"); ok || err == nil {
		t.Error("unknown URL must fail")
	}
	ok, err := p.Navigate(ctx, "https://blank")
	if ok || !errors.Is(err, session.ErrNoPage) {
		t.Errorf("blank page: got %v %v, want ErrNoPage", ok, err)
	}
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	p := New().AddPage("https://t", fixture).Fail("h1", boom).Fail(FaultEval, boom)
	p.Navigate(ctx, "https://t")

	if _, err := p.QueryAll(ctx, "h1"); !errors.Is(err, boom) {
		t.Errorf("query fault: got %v", err)
	}
	if _, err := p.Evaluate(ctx, session.ScriptDocumentHTML); !errors.Is(err, boom) {
		t.Errorf("eval fault: got %v", err)
	}
}
