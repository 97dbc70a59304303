package compare

import (
	"testing"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

func snap(name string, accessible bool, title string, results map[feature.ID]feature.Result) feature.Snapshot {
	if results == nil {
		results = map[feature.ID]feature.Result{}
	}
	return feature.Snapshot{
		Target:     feature.Target{Name: name, URL: "https://" + name + ".example/"},
		Accessible: accessible,
		PageTitle:  title,
		Results:    results,
	}
}

var titleEl = feature.Found(feature.Element{Tag: "h1", Text: "Urban Directory", Classes: []string{"gradient", "text-transparent"}})

func TestCompare_GradientDivergence(t *testing.T) {
	left := snap("t1", true, "Urban Reel", map[feature.ID]feature.Result{
		feature.PrimaryTitle:  titleEl,
		feature.TitleGradient: feature.Found(feature.TextGradient{IsTextGradient: true, BackgroundImage: "linear-gradient(red, blue)", BackgroundClip: "text"}),
	})
	right := snap("t2", true, "Urban Reel", map[feature.ID]feature.Result{
		feature.PrimaryTitle:  titleEl,
		feature.TitleGradient: feature.Found(feature.TextGradient{BackgroundImage: "none", BackgroundClip: "border-box"}),
	})

	rep := Compare(left, right, Options{})
	if !rep.BothAccessible || !rep.TitleMatch {
		t.Fatalf("bothAccessible=%v titleMatch=%v", rep.BothAccessible, rep.TitleMatch)
	}
	if len(rep.Diffs) != len(feature.Vocabulary()) {
		t.Fatalf("diffs = %d", len(rep.Diffs))
	}
	for i, id := range feature.Vocabulary() {
		if rep.Diffs[i].Feature != id {
			t.Fatalf("diff %d = %s, want %s", i, rep.Diffs[i].Feature, id)
		}
	}
	if !rep.Diffs[0].Equal {
		t.Error("title diff should be equal")
	}
	if rep.Diffs[1].Equal {
		t.Error("gradient diff should differ")
	}
	// Both sides absent: implicit NotFound on each side.
	if !rep.Diffs[2].Equal || rep.Diffs[2].Left.Status != feature.StatusNotFound {
		t.Errorf("absent feature: %+v", rep.Diffs[2])
	}
	if got := len(rep.Differences()); got != 1 {
		t.Errorf("differences = %d, want 1", got)
	}
}

func TestCompare_Symmetry(t *testing.T) {
	left := snap("t1", true, "A", map[feature.ID]feature.Result{
		feature.PrimaryTitle:       titleEl,
		feature.BackendIntegration: feature.Error("timeout"),
	})
	right := snap("t2", true, "B", map[feature.ID]feature.Result{
		feature.BackendIntegration: feature.Error("timeout"),
		feature.AnimatedBackground: feature.Found(feature.Count{Count: 1, Items: []string{"canvas"}}),
	})

	ab := Compare(left, right, Options{})
	ba := Compare(right, left, Options{})
	if ab.TitleMatch || ba.TitleMatch {
		t.Error("titles differ")
	}
	for i := range ab.Diffs {
		x, y := ab.Diffs[i], ba.Diffs[i]
		if x.Equal != y.Equal {
			t.Errorf("%s: equal %v vs %v", x.Feature, x.Equal, y.Equal)
		}
		if !x.Left.Equal(y.Right) || !x.Right.Equal(y.Left) {
			t.Errorf("%s: sides not swapped", x.Feature)
		}
	}
	if ab.Targets[0] != ba.Targets[1] {
		t.Error("targets not swapped")
	}
}

func TestCompare_Inaccessible(t *testing.T) {
	left := snap("t1", true, "Urban Reel", map[feature.ID]feature.Result{feature.PrimaryTitle: titleEl})
	right := snap("t2", false, "", nil)
	right.Error = "net::ERR_CONNECTION_REFUSED"

	rep := Compare(left, right, Options{})
	if rep.BothAccessible || rep.TitleMatch {
		t.Fatalf("bothAccessible=%v titleMatch=%v", rep.BothAccessible, rep.TitleMatch)
	}
	if rep.Diffs[0].Equal || rep.Diffs[0].Right.Status != feature.StatusNotFound {
		t.Errorf("title diff: %+v", rep.Diffs[0])
	}

	// Two inaccessible targets with empty titles still do not match.
	rep = Compare(snap("t1", false, "", nil), right, Options{})
	if rep.TitleMatch {
		t.Error("titleMatch must be false when a side is inaccessible")
	}
}

func TestCompare_VersionSkew(t *testing.T) {
	left := snap("t1", true, "x", map[feature.ID]feature.Result{
		feature.CheckboxControl: feature.Found(feature.Controls{Count: 2}),
	})
	left.Vocabulary = 2
	right := snap("t2", true, "x", map[feature.ID]feature.Result{})
	right.Vocabulary = 1

	rep := Compare(left, right, Options{})
	d := rep.Diffs[len(rep.Diffs)-1]
	if d.Feature != feature.CheckboxControl || d.Right.Status != feature.StatusNotFound || d.Equal {
		t.Errorf("skewed feature: %+v", d)
	}
}

func TestCompare_ErrorMessages(t *testing.T) {
	left := snap("t1", true, "x", map[feature.ID]feature.Result{
		feature.BackendIntegration: feature.Error("request 4711 failed at 2026-03-01T10:00:00Z"),
	})
	right := snap("t2", true, "x", map[feature.ID]feature.Result{
		feature.BackendIntegration: feature.Error("request 4712 failed at 2026-03-01T10:00:03Z"),
	})
	idx := 3 // backend-integration-present

	if Compare(left, right, Options{}).Diffs[idx].Equal {
		t.Error("exact policy must keep divergent messages apart")
	}
	if !Compare(left, right, Options{NormalizeErrors: true}).Diffs[idx].Equal {
		t.Error("normalized policy should treat volatile messages as equal")
	}

	right.Results[feature.BackendIntegration] = feature.Error("script timeout")
	if Compare(left, right, Options{NormalizeErrors: true}).Diffs[idx].Equal {
		t.Error("different faults must still differ after normalization")
	}
}

func TestCompare_CustomOrder(t *testing.T) {
	ids := []feature.ID{feature.AdminEntryPoint, feature.PrimaryTitle}
	rep := Compare(snap("a", true, "", nil), snap("b", true, "", nil), Options{Features: ids})
	if len(rep.Diffs) != 2 || rep.Diffs[0].Feature != feature.AdminEntryPoint {
		t.Errorf("diffs = %+v", rep.Diffs)
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain failure", "plain failure"},
		{"doc 0190a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b missing", "doc <uuid> missing"},
		{"at 2026-03-01T10:00:00.123Z", "at <time>"},
		{"commit deadbeef01 rejected", "commit <hex> rejected"},
		{"chunk 12345678 lost", "chunk <n> lost"},
		{"face cafe", "face cafe"},
		{"retry 3 of 5", "retry <n> of <n>"},
	}
	for _, tt := range tests {
		if got := NormalizeMessage(tt.in); got != tt.want {
			t.Errorf("NormalizeMessage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
