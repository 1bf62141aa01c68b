package segment

import "strings"

// Label is one canonical investment-evaluation topic. The set is closed;
// anything else parses to LabelUnknown.
type Label string

const (
	LabelOverview      Label = "overview"
	LabelMarket        Label = "market"
	LabelProduct       Label = "product"
	LabelBusinessModel Label = "business_model"
	LabelTraction      Label = "traction"
	LabelRisks         Label = "risks"
	LabelTeam          Label = "team"
	LabelTerms         Label = "terms"
	LabelICP           Label = "icp"
	LabelDistribution  Label = "distribution"
	LabelCompetition   Label = "competition"
	LabelFinancials    Label = "financials"

	LabelUnknown Label = "unknown"
)

var canonicalLabels = []Label{
	LabelOverview,
	LabelMarket,
	LabelProduct,
	LabelBusinessModel,
	LabelTraction,
	LabelRisks,
	LabelTeam,
	LabelTerms,
	LabelICP,
	LabelDistribution,
	LabelCompetition,
	LabelFinancials,
}

// AllLabels returns the canonical label set, excluding LabelUnknown,
// in stable order.
func AllLabels() []Label {
	out := make([]Label, len(canonicalLabels))
	copy(out, canonicalLabels)
	return out
}

// ParseLabel normalizes s into a canonical label. The second return is
// false when s is empty or not part of the closed set.
func ParseLabel(s string) (Label, bool) {
	v := Label(strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), "-", "_"))
	for _, l := range canonicalLabels {
		if v == l {
			return l, true
		}
	}
	return LabelUnknown, false
}

func (l Label) Known() bool {
	return l != "" && l != LabelUnknown
}
