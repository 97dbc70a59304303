// Package feature defines the structured types produced by a parity check.
// These are the public API contract: sinks, the run store and any external
// consumer import this package to read snapshots, reports and recommendations.
package feature

// ID names one checkable feature. The set is closed: a new feature needs a
// new constant here and a probe registered for it.
type ID string

const (
	PrimaryTitle       ID = "primary-title-present"
	TitleGradient      ID = "title-has-animated-gradient"
	BoldSubtitles      ID = "bold-subtitles-present"
	BackendIntegration ID = "backend-integration-present"
	AnimatedBackground ID = "animated-background-present"
	AdminEntryPoint    ID = "admin-entry-point-present"
	AdminSubtitle      ID = "admin-subtitle-present"
	CheckboxControl    ID = "interactive-checkbox-control-present"
)

// VocabularyVersion is bumped whenever a feature is added or removed.
// Snapshots record the version they were captured with.
const VocabularyVersion = 1

// vocabulary is in registry order. Probes run in this order and report
// diffs are emitted in this order.
var vocabulary = []ID{
	PrimaryTitle,
	TitleGradient,
	BoldSubtitles,
	BackendIntegration,
	AnimatedBackground,
	AdminEntryPoint,
	AdminSubtitle,
	CheckboxControl,
}

// Vocabulary returns a copy of the feature IDs in registry order.
func Vocabulary() []ID {
	out := make([]ID, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Valid reports whether id belongs to the current vocabulary.
func (id ID) Valid() bool {
	for _, v := range vocabulary {
		if v == id {
			return true
		}
	}
	return false
}
