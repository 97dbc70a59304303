package feature

import "time"

// Target identifies one deployment under test.
type Target struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// ConsoleEntry is one browser console log line.
type ConsoleEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Snapshot is every probe result captured for one Target at one point in
// time. When Accessible is false, Results and ConsoleErrors are empty and
// Error explains why.
type Snapshot struct {
	ID            string            `json:"id"`
	Target        Target            `json:"target"`
	Accessible    bool              `json:"accessible"`
	PageTitle     string            `json:"page_title,omitempty"`
	Error         string            `json:"error,omitempty"`
	Vocabulary    int               `json:"vocabulary"`
	Results       map[ID]Result     `json:"results"`
	ConsoleErrors []ConsoleEntry    `json:"console_errors"`
	Deployment    map[string]string `json:"deployment,omitempty"` // informational, never diffed
	CapturedAt    time.Time         `json:"captured_at"`
}

// Result returns the stored result for id. A feature missing from Results
// (older vocabulary, inaccessible page) reads as NotFound.
func (s Snapshot) Result(id ID) Result {
	if r, ok := s.Results[id]; ok {
		return r
	}
	return NotFound()
}
