// Package scoring maps upstream claims onto the eight canonical
// evaluation sections and computes per-section evidence support, the
// overall trace audit, and the node-evidence gate.
package scoring

import "strings"

// The canonical section set is closed, like the segment label set.
const (
	SectionMarket        = "market"
	SectionICP           = "icp"
	SectionProduct       = "product"
	SectionBusinessModel = "business_model"
	SectionTraction      = "traction"
	SectionTeam          = "team"
	SectionFinancials    = "financials"
	SectionTerms         = "terms"
)

// SectionKeys returns the canonical sections in report order.
func SectionKeys() []string {
	return []string{
		SectionMarket,
		SectionICP,
		SectionProduct,
		SectionBusinessModel,
		SectionTraction,
		SectionTeam,
		SectionFinancials,
		SectionTerms,
	}
}

// categoryToSection is the fixed claim-category routing table.
var categoryToSection = map[string]string{
	"market":                SectionMarket,
	"market_size":           SectionMarket,
	"industry":              SectionMarket,
	"competition":           SectionMarket,
	"competitive_landscape": SectionMarket,

	"icp":             SectionICP,
	"customer":        SectionICP,
	"target_customer": SectionICP,
	"buyer_persona":   SectionICP,

	"product":    SectionProduct,
	"technology": SectionProduct,
	"roadmap":    SectionProduct,

	"business_model": SectionBusinessModel,
	"pricing":        SectionBusinessModel,
	"revenue_model":  SectionBusinessModel,
	"unit_economics": SectionBusinessModel,

	"traction":   SectionTraction,
	"growth":     SectionTraction,
	"retention":  SectionTraction,
	"milestones": SectionTraction,

	"team":     SectionTeam,
	"founders": SectionTeam,
	"advisors": SectionTeam,

	"financials":  SectionFinancials,
	"projections": SectionFinancials,
	"burn":        SectionFinancials,
	"runway":      SectionFinancials,

	"terms":     SectionTerms,
	"valuation": SectionTerms,
	"round":     SectionTerms,
	"fundraise": SectionTerms,
}

var icpTextSignals = []string{"icp", "ideal customer", "buyer persona", "target customer"}

// SectionFor routes one claim to exactly one section. Market-tagged
// claims whose text signals ICP are rerouted to icp. The second return
// is false for categories outside the table; callers skip those claims.
func SectionFor(category, text string) (string, bool) {
	key := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(category)), "-", "_")
	section, ok := categoryToSection[key]
	if !ok {
		return "", false
	}
	if section == SectionMarket {
		lower := strings.ToLower(text)
		for _, sig := range icpTextSignals {
			if strings.Contains(lower, sig) {
				return SectionICP, true
			}
		}
	}
	return section, true
}
