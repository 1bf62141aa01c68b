package segment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keyword is one weighted positive signal for a label.
type Keyword struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

// Rule is the match configuration for a single label.
type Rule struct {
	Keywords []Keyword `yaml:"keywords"`
	Negative []string  `yaml:"negative,omitempty"`
}

// Cue is a high-precision phrase used by the cue-rescue fallback. Cues are
// intentionally few: they only fire on near-empty structured blocks.
type Cue struct {
	Phrase string `yaml:"phrase"`
	Label  Label  `yaml:"label"`
}

// Ruleset is the versioned, immutable classifier configuration. It is
// passed explicitly into Classify and the Resolver so tests can inject
// alternate rule tables.
type Ruleset struct {
	Version string         `yaml:"version"`
	Rules   map[Label]Rule `yaml:"rules"`
	Cues    []Cue          `yaml:"cues"`

	// Acceptance thresholds by extraction provenance. Structured-native
	// content is cleaner than OCR output, so it gets a lower bar.
	StructuredThreshold float64 `yaml:"structured_threshold"`
	VisionThreshold     float64 `yaml:"vision_threshold"`

	// TieMargin: when the top two candidates land within this margin the
	// result is ambiguous unless a hint breaks the tie.
	TieMargin float64 `yaml:"tie_margin"`

	// DocHintShare: minimum share of a document's non-empty blocks a
	// majority label must cover before the doc-hint fallback applies.
	DocHintShare float64 `yaml:"doc_hint_share"`

	// TopN caps the candidates carried in the debug trace.
	TopN int `yaml:"top_n"`

	// Scorer combines keyword hits into a label score. Nil selects the
	// built-in hit scorer. The exact interpolation is a heuristic, not a
	// contract; see HitScorer.
	Scorer Scorer `yaml:"-"`
}

// DefaultRuleset returns the built-in v1 rule table.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Version:             "v1",
		StructuredThreshold: 1.0,
		VisionThreshold:     2.0,
		TieMargin:           0.5,
		DocHintShare:        0.6,
		TopN:                5,
		Rules: map[Label]Rule{
			LabelOverview: {
				// "what we do" lives in the cue table, not here: keeping it
				// out of the scored keywords is what lets the cue-rescue
				// path stay observable for boilerplate-only blocks.
				Keywords: []Keyword{
					{Term: "our mission", Weight: 2},
					{Term: "vision", Weight: 1},
					{Term: "at a glance", Weight: 2},
					{Term: "elevator pitch", Weight: 2},
					{Term: "company overview", Weight: 2},
				},
			},
			LabelMarket: {
				Keywords: []Keyword{
					{Term: "market size", Weight: 2},
					{Term: "tam", Weight: 2},
					{Term: "sam", Weight: 1.5},
					{Term: "som", Weight: 1.5},
					{Term: "addressable market", Weight: 2},
					{Term: "market opportunity", Weight: 2},
					{Term: "industry trend", Weight: 1},
				},
				Negative: []string{"go to market"},
			},
			LabelProduct: {
				Keywords: []Keyword{
					{Term: "product", Weight: 1},
					{Term: "platform", Weight: 1},
					{Term: "features", Weight: 1},
					{Term: "how it works", Weight: 2},
					{Term: "demo", Weight: 1},
					{Term: "roadmap", Weight: 1.5},
					{Term: "technology", Weight: 1},
				},
			},
			LabelBusinessModel: {
				Keywords: []Keyword{
					{Term: "business model", Weight: 2.5},
					{Term: "pricing", Weight: 1.5},
					{Term: "revenue model", Weight: 2},
					{Term: "unit economics", Weight: 2},
					{Term: "subscription", Weight: 1},
					{Term: "take rate", Weight: 1.5},
				},
			},
			LabelTraction: {
				Keywords: []Keyword{
					{Term: "traction", Weight: 2.5},
					{Term: "arr", Weight: 2},
					{Term: "mrr", Weight: 2},
					{Term: "growth", Weight: 1},
					{Term: "retention", Weight: 1.5},
					{Term: "active users", Weight: 1.5},
					{Term: "milestones", Weight: 1},
					{Term: "customers", Weight: 1},
				},
			},
			LabelRisks: {
				Keywords: []Keyword{
					{Term: "risk", Weight: 2},
					{Term: "challenges", Weight: 1.5},
					{Term: "mitigation", Weight: 2},
					{Term: "dependencies", Weight: 1},
					{Term: "regulatory", Weight: 1},
				},
			},
			LabelTeam: {
				Keywords: []Keyword{
					{Term: "team", Weight: 1.5},
					{Term: "founder", Weight: 2},
					{Term: "ceo", Weight: 1},
					{Term: "cto", Weight: 1},
					{Term: "advisors", Weight: 1.5},
					{Term: "leadership", Weight: 1},
					{Term: "previously at", Weight: 1.5},
				},
			},
			LabelTerms: {
				Keywords: []Keyword{
					{Term: "term sheet", Weight: 2.5},
					{Term: "valuation", Weight: 2},
					{Term: "raising", Weight: 1.5},
					{Term: "round", Weight: 1},
					{Term: "use of funds", Weight: 2},
					{Term: "cap table", Weight: 2},
					{Term: "safe", Weight: 1},
				},
			},
			LabelICP: {
				Keywords: []Keyword{
					{Term: "icp", Weight: 2.5},
					{Term: "ideal customer", Weight: 2.5},
					{Term: "target customer", Weight: 2},
					{Term: "buyer persona", Weight: 2},
					{Term: "customer profile", Weight: 2},
				},
			},
			LabelDistribution: {
				Keywords: []Keyword{
					{Term: "go to market", Weight: 2.5},
					{Term: "gtm", Weight: 2},
					{Term: "distribution", Weight: 2},
					{Term: "sales channel", Weight: 2},
					{Term: "acquisition channel", Weight: 2},
					{Term: "partnerships", Weight: 1},
					{Term: "funnel", Weight: 1.5},
				},
			},
			LabelCompetition: {
				Keywords: []Keyword{
					{Term: "competitors", Weight: 2.5},
					{Term: "competitive landscape", Weight: 2.5},
					{Term: "alternatives", Weight: 1.5},
					{Term: "moat", Weight: 2},
					{Term: "differentiation", Weight: 1.5},
					{Term: "vs.", Weight: 0.5},
				},
			},
			LabelFinancials: {
				Keywords: []Keyword{
					{Term: "financials", Weight: 2.5},
					{Term: "p&l", Weight: 2},
					{Term: "income statement", Weight: 2},
					{Term: "burn rate", Weight: 2},
					{Term: "runway", Weight: 1.5},
					{Term: "forecast", Weight: 1.5},
					{Term: "projections", Weight: 1.5},
					{Term: "gross margin", Weight: 1.5},
				},
			},
		},
		Cues: []Cue{
			{Phrase: "what we do", Label: LabelOverview},
			{Phrase: "who we are", Label: LabelOverview},
			{Phrase: "business model", Label: LabelBusinessModel},
			{Phrase: "the team", Label: LabelTeam},
			{Phrase: "market opportunity", Label: LabelMarket},
			{Phrase: "the problem", Label: LabelOverview},
			{Phrase: "the ask", Label: LabelTerms},
		},
	}
}

// LoadRuleset reads a YAML ruleset override from path. Threshold fields
// and TopN fall back to the v1 defaults when left zero so partial
// overrides stay usable.
func LoadRuleset(path string) (Ruleset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read ruleset: %w", err)
	}
	var rs Ruleset
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return Ruleset{}, fmt.Errorf("parse ruleset: %w", err)
	}
	if rs.Version == "" {
		return Ruleset{}, fmt.Errorf("ruleset %s: missing version", path)
	}
	if len(rs.Rules) == 0 {
		return Ruleset{}, fmt.Errorf("ruleset %s: no rules", path)
	}
	for label := range rs.Rules {
		if !label.Known() {
			return Ruleset{}, fmt.Errorf("ruleset %s: unknown label %q", path, label)
		}
	}
	def := DefaultRuleset()
	if rs.StructuredThreshold == 0 {
		rs.StructuredThreshold = def.StructuredThreshold
	}
	if rs.VisionThreshold == 0 {
		rs.VisionThreshold = def.VisionThreshold
	}
	if rs.TieMargin == 0 {
		rs.TieMargin = def.TieMargin
	}
	if rs.DocHintShare == 0 {
		rs.DocHintShare = def.DocHintShare
	}
	if rs.TopN == 0 {
		rs.TopN = def.TopN
	}
	return rs, nil
}
