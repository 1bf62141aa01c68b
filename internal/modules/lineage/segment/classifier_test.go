package segment

import (
	"reflect"
	"testing"
)

func TestClassify_EmptyTextReturnsNoText(t *testing.T) {
	rs := DefaultRuleset()
	out := Classify(rs, Features{Source: SourceStructured})
	if out.Label != LabelUnknown {
		t.Fatalf("expected unknown, got %q", out.Label)
	}
	if out.Debug == nil || out.Debug.Reason != ReasonNoText {
		t.Fatalf("expected NO_TEXT reason, got %+v", out.Debug)
	}
	if out.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", out.Confidence)
	}
}

func TestClassify_KeywordMatchPicksLabel(t *testing.T) {
	rs := DefaultRuleset()
	out := Classify(rs, Features{
		Title:   "Market Opportunity",
		Snippet: "Our TAM is $4B with a growing addressable market.",
		Source:  SourceStructured,
	})
	if out.Label != LabelMarket {
		t.Fatalf("expected market, got %q", out.Label)
	}
	if out.Confidence <= 0 || out.Confidence >= 1 {
		t.Fatalf("confidence out of range: %v", out.Confidence)
	}
	if out.Debug == nil || len(out.Debug.Candidates) == 0 {
		t.Fatalf("expected debug candidates")
	}
	if out.Debug.Candidates[0].Label != LabelMarket {
		t.Fatalf("expected market as top candidate, got %q", out.Debug.Candidates[0].Label)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	rs := DefaultRuleset()
	f := Features{
		Title:   "Traction",
		Snippet: "ARR grew 3x, retention at 95%, 200 active users.",
		Source:  SourceVision,
	}
	a := Classify(rs, f)
	b := Classify(rs, f)
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Fatalf("classification not idempotent: %+v vs %+v", a, b)
	}
	if !reflect.DeepEqual(a.Debug.Candidates, b.Debug.Candidates) {
		t.Fatalf("debug candidates differ between runs")
	}
}

func TestClassify_VisionThresholdStricter(t *testing.T) {
	rs := DefaultRuleset()
	f := Features{Snippet: "roadmap"} // single weight-1.5 product hit

	f.Source = SourceStructured
	structured := Classify(rs, f)
	if structured.Label != LabelProduct {
		t.Fatalf("expected product for structured source, got %q", structured.Label)
	}

	f.Source = SourceVision
	vision := Classify(rs, f)
	if vision.Label != LabelUnknown {
		t.Fatalf("expected unknown for vision source, got %q", vision.Label)
	}
	if vision.Debug.Reason != ReasonLowSignal {
		t.Fatalf("expected LOW_SIGNAL, got %q", vision.Debug.Reason)
	}
}

func TestClassify_BrandTermsStripped(t *testing.T) {
	rs := DefaultRuleset()
	out := Classify(rs, Features{
		Snippet:    "Traction Labs builds developer tooling.",
		BrandTerms: []string{"Traction Labs"},
		Source:     SourceStructured,
	})
	if out.Label == LabelTraction {
		t.Fatalf("brand term leaked into classification")
	}
}

func TestClassify_TieWithoutHintIsAmbiguous(t *testing.T) {
	rs := DefaultRuleset()
	rs.Rules = map[Label]Rule{
		LabelMarket:  {Keywords: []Keyword{{Term: "alpha", Weight: 2}}},
		LabelProduct: {Keywords: []Keyword{{Term: "beta", Weight: 2}}},
	}
	f := Features{Snippet: "alpha beta", Source: SourceStructured}

	out := Classify(rs, f)
	if out.Label != LabelUnknown || out.Debug.Reason != ReasonAmbiguousTie {
		t.Fatalf("expected AMBIGUOUS_TIE, got %+v", out)
	}

	f.Hint = LabelProduct
	f.UseHint = true
	hinted := Classify(rs, f)
	if hinted.Label != LabelProduct {
		t.Fatalf("expected hint to break tie, got %q", hinted.Label)
	}
	if !hinted.Debug.HintApplied {
		t.Fatalf("expected hint_applied in debug")
	}
}

func TestClassify_HintCannotOverrideClearWinner(t *testing.T) {
	rs := DefaultRuleset()
	f := Features{
		Title:   "Financials",
		Snippet: "P&L, burn rate, runway and projections.",
		Hint:    LabelTeam,
		UseHint: true,
		Source:  SourceStructured,
	}
	out := Classify(rs, f)
	if out.Label != LabelFinancials {
		t.Fatalf("hint overrode a clear winner: got %q", out.Label)
	}
	if out.Debug.HintApplied {
		t.Fatalf("hint should not apply outside ties")
	}
}

func TestClassify_NegativeKeywordsSubtract(t *testing.T) {
	rs := DefaultRuleset()
	out := Classify(rs, Features{
		Snippet: "Our go to market motion and distribution channels.",
		Source:  SourceStructured,
	})
	if out.Label != LabelDistribution {
		t.Fatalf("expected distribution, got %q", out.Label)
	}
}
