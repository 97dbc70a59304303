package feature

import (
	"encoding/json"
	"testing"
)

func TestResultEqual_VariantTag(t *testing.T) {
	if NotFound().Equal(Error("")) {
		t.Error("NotFound must differ from Error with empty message")
	}
	if !Found(Element{Tag: "h1", Text: "Urban Directory"}).Equal(Found(Element{Tag: "h1", Text: "Urban Directory"})) {
		t.Error("identical Found results must be equal")
	}
	if Found(Count{Count: 1}).Equal(Found(Count{Count: 2})) {
		t.Error("payload mismatch must not be equal")
	}
}

func TestResultEqual_ErrorMessagesExact(t *testing.T) {
	a := Error("eval: timeout after 5s (req 81f2)")
	b := Error("eval: timeout after 5s (req 9a1c)")
	if a.Equal(b) {
		t.Error("differing error messages must not compare equal")
	}
	if !a.Equal(Error("eval: timeout after 5s (req 81f2)")) {
		t.Error("same error message must compare equal")
	}
}

func TestResultSatisfied(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want bool
	}{
		{"element", Found(Element{Tag: "a"}), true},
		{"gradient absent", Found(TextGradient{IsTextGradient: false}), false},
		{"gradient present", Found(TextGradient{IsTextGradient: true}), true},
		{"zero controls", Found(Controls{}), false},
		{"no indicators", Found(Indicators{}), false},
		{"not found", NotFound(), false},
		{"error", Error("boom"), false},
	}
	for _, tt := range tests {
		if got := tt.r.Satisfied(); got != tt.want {
			t.Errorf("%s: Satisfied() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRunJSONKeepsPayloadTypes(t *testing.T) {
	run := &Run{
		ID: "run-1",
		Left: Snapshot{
			Target:     Target{Name: "T1", URL: "https://a.example"},
			Accessible: true,
			Results: map[ID]Result{
				PrimaryTitle:    Found(Element{Tag: "h1", Text: "Urban Directory", Classes: []string{"gradient", "text-transparent"}}),
				TitleGradient:   Found(TextGradient{IsTextGradient: true, BackgroundClip: "text"}),
				AdminSubtitle:   NotFound(),
				CheckboxControl: Error("click: detached node"),
			},
		},
	}

	data, err := MarshalRun(run)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalRun(data)
	if err != nil {
		t.Fatal(err)
	}
	for id, want := range run.Left.Results {
		if !got.Left.Results[id].Equal(want) {
			t.Errorf("%s: got %v, want %v", id, got.Left.Results[id], want)
		}
	}
}

func TestResultUnmarshal_UnknownKind(t *testing.T) {
	var r Result
	err := json.Unmarshal([]byte(`{"status":"found","kind":"hologram","payload":{}}`), &r)
	if err == nil {
		t.Fatal("expected error for unknown payload kind")
	}
}

func TestSnapshotResult_MissingReadsNotFound(t *testing.T) {
	s := Snapshot{Accessible: true, Results: map[ID]Result{PrimaryTitle: Found(Element{})}}
	if r := s.Result(CheckboxControl); r.Status != StatusNotFound {
		t.Errorf("missing feature: got %v, want NotFound", r)
	}
}

func TestVocabulary(t *testing.T) {
	v := Vocabulary()
	v[0] = "mutated"
	if Vocabulary()[0] != PrimaryTitle {
		t.Error("Vocabulary must return a copy")
	}
	for _, id := range Vocabulary() {
		if !id.Valid() {
			t.Errorf("%s not valid", id)
		}
	}
	if ID("made-up").Valid() {
		t.Error("ad-hoc IDs must not be valid")
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityAction.Rank()) {
		t.Error("priority ranks out of order")
	}
}
