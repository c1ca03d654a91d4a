package groundtruth

import (
	"fmt"
	"strings"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// LabelSeparator splits crop and condition in dataset-style labels
// (e.g. "Tomato___Late_blight").
const LabelSeparator = "___"

// MatchKind says which branch of the resolver produced the advice.
type MatchKind string

const (
	MatchSubstring   MatchKind = "substring"
	MatchHealthy     MatchKind = "healthy_fallback"
	MatchSynthesized MatchKind = "synthesized"
)

// Rule is one deterministic step of label resolution.
type Rule interface {
	// ID returns a unique identifier for this rule.
	ID() string
	// Match returns true if this rule applies to the raw label.
	Match(label string) bool
	// Advice returns the advice for a label this rule matched.
	Advice(label string) types.Advice
	// Kind reports which resolution branch the rule belongs to.
	Kind() MatchKind
}

// substringRule fires when its key is contained in the label, case-sensitively.
type substringRule struct {
	entry Entry
}

func (r substringRule) ID() string                { return r.entry.Key }
func (r substringRule) Match(label string) bool   { return strings.Contains(label, r.entry.Key) }
func (r substringRule) Advice(string) types.Advice { return r.entry.Advice.Clone() }
func (r substringRule) Kind() MatchKind           { return MatchSubstring }

// healthyRule catches "Healthy Rose", "HEALTHY" and friends that the
// case-sensitive key scan misses.
type healthyRule struct {
	entry Entry
}

func (r healthyRule) ID() string { return "healthy-any-case" }
func (r healthyRule) Match(label string) bool {
	return strings.Contains(strings.ToLower(label), HealthyKey)
}
func (r healthyRule) Advice(string) types.Advice { return r.entry.Advice.Clone() }
func (r healthyRule) Kind() MatchKind           { return MatchHealthy }

// rules is the ordered strategy list: every dataset key in declaration
// order, then the case-insensitive healthy fallback.
var rules = buildRules(dataset)

func buildRules(entries []Entry) []Rule {
	out := make([]Rule, 0, len(entries)+1)
	var healthy *Entry
	for i := range entries {
		out = append(out, substringRule{entry: entries[i]})
		if entries[i].Key == HealthyKey {
			healthy = &entries[i]
		}
	}
	if healthy != nil {
		out = append(out, healthyRule{entry: *healthy})
	}
	return out
}

// Resolution is the outcome of resolving one label.
type Resolution struct {
	RuleID string
	Kind   MatchKind
	Advice types.Advice
}

// Resolve walks the rule list and returns the first match, or a synthesized
// generic record when nothing matches.
func Resolve(label string) Resolution {
	for _, r := range rules {
		if r.Match(label) {
			logging.AdviceDebug("label %q resolved by rule %s", label, r.ID())
			return Resolution{RuleID: r.ID(), Kind: r.Kind(), Advice: r.Advice(label)}
		}
	}
	logging.AdviceDebug("label %q has no ground truth, synthesizing", label)
	return Resolution{Kind: MatchSynthesized, Advice: synthesize(label)}
}

// ResolveAdvice maps a raw, possibly noisy label to technical advice. It never
// returns an empty explanation or empty step lists.
func ResolveAdvice(label string) types.Advice {
	return Resolve(label).Advice
}

// SplitLabel extracts a best-effort crop/condition pair from a label.
func SplitLabel(label string) (crop, condition string) {
	parts := strings.Split(label, LabelSeparator)
	crop = parts[0]
	if crop == "" {
		crop = "Crop"
	}
	if len(parts) > 1 && parts[1] != "" {
		condition = strings.ReplaceAll(parts[1], "_", " ")
	} else {
		condition = "Condition"
	}
	return crop, condition
}

func synthesize(label string) types.Advice {
	crop, condition := SplitLabel(label)
	return types.Advice{
		Explanation: fmt.Sprintf("The scan detected %s on your %s. This condition is typically triggered by environmental stress or localized fungal spores that take advantage of high humidity or poor soil drainage.", condition, crop),
		TreatmentSteps: []string{
			"Isolate the affected area immediately.",
			"Apply a broad-spectrum organic fungicide.",
			"Check the underside of leaves for hidden pests.",
		},
		PreventionTips: []string{
			"Increase plant spacing for better airflow.",
			"Clean your tools before moving to healthy plants.",
		},
		IsSafeOrganic: true,
	}
}
