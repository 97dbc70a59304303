package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Rule is the static recommendation policy of one feature.
type Rule struct {
	Critical bool
	Priority feature.Priority
	Issue    string // what is wrong when the feature fails
	Remedy   string
}

// Rules maps every feature of the vocabulary to its rule.
type Rules map[feature.ID]Rule

// DefaultRules is the rule table for the current vocabulary.
func DefaultRules() Rules {
	return Rules{
		feature.PrimaryTitle: {
			Critical: true, Priority: feature.PriorityHigh,
			Issue:  "main title missing",
			Remedy: "check that the header component renders the application title",
		},
		feature.TitleGradient: {
			Critical: true, Priority: feature.PriorityHigh,
			Issue:  "title lacks gradient",
			Remedy: "check that the gradient text classes and CSS (background-clip: text) are deployed",
		},
		feature.BoldSubtitles: {
			Priority: feature.PriorityMedium,
			Issue:    "bold subtitles missing",
			Remedy:   "check the font-semibold styles in the deployed stylesheet",
		},
		feature.BackendIntegration: {
			Critical: true, Priority: feature.PriorityHigh,
			Issue:  "backend integration not detected",
			Remedy: "check the backend SDK configuration and environment variables of the deployment",
		},
		feature.AnimatedBackground: {
			Priority: feature.PriorityMedium,
			Issue:    "animated background missing",
			Remedy:   "check that the particles script is bundled and initialised",
		},
		feature.AdminEntryPoint: {
			Critical: true, Priority: feature.PriorityMedium,
			Issue:  "admin entry point missing",
			Remedy: "check the navigation component and the admin route",
		},
		feature.AdminSubtitle: {
			Priority: feature.PriorityMedium,
			Issue:    "admin subtitle missing",
			Remedy:   "check the admin page header",
		},
		feature.CheckboxControl: {
			Critical: true, Priority: feature.PriorityMedium,
			Issue:  "interactive checkbox controls missing",
			Remedy: "check the admin dialog form and its checkbox component",
		},
	}
}

// Validate fails when a feature of ids has no rule, or a critical rule has
// no actionable priority.
func (r Rules) Validate(ids []feature.ID) error {
	var missing []string
	for _, id := range ids {
		rule, ok := r[id]
		if !ok {
			missing = append(missing, string(id))
			continue
		}
		if rule.Critical && rule.Priority != feature.PriorityHigh && rule.Priority != feature.PriorityMedium {
			return fmt.Errorf("recommend: rule %s: critical rule with priority %q", id, rule.Priority)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("recommend: no rule for %s", strings.Join(missing, ", "))
	}
	return nil
}
