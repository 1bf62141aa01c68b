package segment

import (
	"testing"
	"time"
)

func TestResolver_HumanOverrideAlwaysWins(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Flags: QualityFlags{SegmentKey: "team", SegmentSource: string(SourceHumanOverride)},
		Features: Features{
			Title:   "Financials",
			Snippet: "burn rate, runway, projections, p&l",
			Source:  SourceStructured,
		},
	})
	if out.Effective.Label != LabelTeam {
		t.Fatalf("expected override label team, got %q", out.Effective.Label)
	}
	if out.Effective.Source != SourceHumanOverride {
		t.Fatalf("expected human_override source, got %q", out.Effective.Source)
	}
	if out.Computed.Label != LabelFinancials {
		t.Fatalf("expected computed financials in trail, got %q", out.Computed.Label)
	}
	if len(out.RulePath) != 1 || out.RulePath[0] != string(SourceHumanOverride) {
		t.Fatalf("unexpected rule path %v", out.RulePath)
	}
}

func TestResolver_PersistedBeatsComputed(t *testing.T) {
	promotedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Flags: QualityFlags{
			SegmentKey:        "market",
			SegmentSource:     string(SourcePersisted),
			SegmentConfidence: 0.8,
			SegmentPromotedAt: &promotedAt,
		},
		Features: Features{Snippet: "founder and team bios", Source: SourceStructured},
	})
	if out.Effective.Label != LabelMarket || out.Effective.Source != SourcePersisted {
		t.Fatalf("expected persisted market, got %+v", out.Effective)
	}
	if out.Effective.Confidence != 0.8 {
		t.Fatalf("expected stored confidence 0.8, got %v", out.Effective.Confidence)
	}
	if out.Persisted != LabelMarket {
		t.Fatalf("expected persisted trail market, got %q", out.Persisted)
	}
}

func TestResolver_ComputedWhenNoStoredLabel(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Features: Features{Title: "The Team", Snippet: "founder, cto, advisors", Source: SourceStructured},
	})
	if out.Effective.Label != LabelTeam || out.Effective.Source != SourceComputed {
		t.Fatalf("expected computed team, got %+v", out.Effective)
	}
}

func TestResolver_DocHintForEmptyStructuredBlock(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	// Empty section; 5 of 7 non-empty sibling blocks are product.
	out := r.Resolve(ResolveInput{
		Features:        Features{Source: SourceStructured},
		StructuredBlock: true,
		Doc: DocContext{
			SiblingLabels:  []Label{LabelProduct, LabelProduct, LabelProduct, LabelProduct, LabelProduct, LabelMarket, LabelTeam},
			NonEmptyBlocks: 7,
		},
	})
	if out.Computed.Label != LabelUnknown || out.Computed.Debug.Reason != ReasonNoText {
		t.Fatalf("expected NO_TEXT computed, got %+v", out.Computed)
	}
	if out.Effective.Label != LabelProduct || out.Effective.Source != SourceDocHint {
		t.Fatalf("expected doc_hint_v1 product, got %+v", out.Effective)
	}
	last := out.RulePath[len(out.RulePath)-1]
	if last != string(SourceDocHint) {
		t.Fatalf("expected rule path ending in doc_hint_v1, got %v", out.RulePath)
	}
}

func TestResolver_DocHintRequiresMajorityShare(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Features:        Features{Source: SourceStructured},
		StructuredBlock: true,
		Doc: DocContext{
			// 4 of 10 is below the 60% share bar.
			SiblingLabels:  []Label{LabelProduct, LabelProduct, LabelProduct, LabelProduct},
			NonEmptyBlocks: 10,
		},
	})
	if out.Effective.Label != LabelUnknown {
		t.Fatalf("doc hint applied below share threshold: %+v", out.Effective)
	}
}

func TestResolver_CueRescueOnBoilerplateBlock(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Features: Features{
			Snippet:    "Company: Acme — What We Do: we automate X",
			BrandTerms: []string{"Acme"},
			Source:     SourceStructured,
		},
		StructuredBlock: true,
	})
	if out.Effective.Label != LabelOverview || out.Effective.Source != SourceCueRescue {
		t.Fatalf("expected docx_cue_v1 overview, got %+v", out.Effective)
	}
}

func TestResolver_CueRescueSkipsLongContent(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	long := "what we do "
	for len(long) <= cueRescueMaxChars {
		long += "plus a lot of additional unrelated prose about nothing in particular "
	}
	out := r.Resolve(ResolveInput{
		Features:        Features{Snippet: long, Source: SourceStructured},
		StructuredBlock: true,
	})
	if out.Effective.Source == SourceCueRescue {
		t.Fatalf("cue rescue applied to a content-heavy block")
	}
}

func TestResolver_FallbacksSkippedForVisionUnits(t *testing.T) {
	r := NewResolver(DefaultRuleset())
	out := r.Resolve(ResolveInput{
		Features: Features{Snippet: "what we do", Source: SourceVision},
		Doc: DocContext{
			SiblingLabels:  []Label{LabelProduct, LabelProduct, LabelProduct},
			NonEmptyBlocks: 3,
		},
	})
	if out.Effective.Label != LabelUnknown {
		t.Fatalf("fallback applied to non-structured unit: %+v", out.Effective)
	}
	last := out.RulePath[len(out.RulePath)-1]
	if last != "unknown" {
		t.Fatalf("expected terminal unknown, got %v", out.RulePath)
	}
}
