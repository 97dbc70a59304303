package feature

import "time"

// FeatureDiff compares one feature across the two snapshots of a report.
type FeatureDiff struct {
	Feature ID     `json:"feature"`
	Left    Result `json:"left"`
	Right   Result `json:"right"`
	Equal   bool   `json:"equal"`
}

// Report is the structured diff between exactly two snapshots.
type Report struct {
	Targets        [2]Target     `json:"targets"`
	BothAccessible bool          `json:"both_accessible"`
	TitleMatch     bool          `json:"title_match"`
	Diffs          []FeatureDiff `json:"diffs"`
}

// Differences returns the diffs whose sides disagree.
func (r Report) Differences() []FeatureDiff {
	var out []FeatureDiff
	for _, d := range r.Diffs {
		if !d.Equal {
			out = append(out, d)
		}
	}
	return out
}

// Priority orders recommendations. Lower Rank sorts first.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityAction Priority = "ACTION"
)

// Rank is the sort key of p.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is a prioritised, actionable finding. Subject is nil for
// report-level recommendations.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Subject  *Target  `json:"subject,omitempty"`
	Feature  ID       `json:"feature,omitempty"`
	Issue    string   `json:"issue"`
	Remedy   string   `json:"remedy"`
}

// Run is everything one comparison produced.
type Run struct {
	ID              string           `json:"id"` // UUIDv7
	StartedAt       time.Time        `json:"started_at"`
	Duration        time.Duration    `json:"duration"`
	Left            Snapshot         `json:"left"`
	Right           Snapshot         `json:"right"`
	Report          Report           `json:"report"`
	Recommendations []Recommendation `json:"recommendations"`
}
