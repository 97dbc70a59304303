// Package compare diffs two snapshots feature by feature.
package compare

import (
	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Options tunes a comparison. The zero value compares the full
// vocabulary with exact error messages.
type Options struct {
	// Features fixes the diff order. Empty means feature.Vocabulary().
	Features []feature.ID
	// NormalizeErrors replaces volatile substrings of Error messages
	// before comparing them.
	NormalizeErrors bool
}

// Compare builds the parity report of left and right. A feature missing
// from either snapshot's results compares as NotFound.
func Compare(left, right feature.Snapshot, opts Options) feature.Report {
	ids := opts.Features
	if len(ids) == 0 {
		ids = feature.Vocabulary()
	}

	rep := feature.Report{
		Targets:        [2]feature.Target{left.Target, right.Target},
		BothAccessible: left.Accessible && right.Accessible,
		Diffs:          make([]feature.FeatureDiff, 0, len(ids)),
	}
	rep.TitleMatch = rep.BothAccessible && left.PageTitle == right.PageTitle

	for _, id := range ids {
		l, r := left.Result(id), right.Result(id)
		rep.Diffs = append(rep.Diffs, feature.FeatureDiff{
			Feature: id,
			Left:    l,
			Right:   r,
			Equal:   equal(l, r, opts.NormalizeErrors),
		})
	}
	return rep
}

func equal(a, b feature.Result, normalize bool) bool {
	if normalize && a.Status == feature.StatusError && b.Status == feature.StatusError {
		return NormalizeMessage(a.Message) == NormalizeMessage(b.Message)
	}
	return a.Equal(b)
}
