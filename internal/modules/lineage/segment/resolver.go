package segment

import "strings"

// DocContext carries document-level signals used by the doc-hint
// fallback: the non-unknown labels of sibling blocks in the same
// document and how many non-empty blocks the document has overall.
type DocContext struct {
	SiblingLabels  []Label
	NonEmptyBlocks int
}

// ResolveInput bundles everything the precedence chain looks at for one
// unit.
type ResolveInput struct {
	Flags    QualityFlags
	Features Features

	// Computed may be supplied by callers that already classified the
	// unit; when zero the resolver classifies internally.
	Computed Classification

	// StructuredBlock marks section-style units from native office
	// formats; only those are eligible for the doc-hint and cue-rescue
	// fallbacks.
	StructuredBlock bool

	Doc DocContext
}

// Resolved is the full decision trail for one unit. Downstream consumers
// must be able to show why a label was chosen, so the raw persisted and
// computed values ride along with the effective classification.
type Resolved struct {
	Effective Classification `json:"effective"`
	Persisted Label          `json:"persisted"`
	Computed  Classification `json:"computed"`

	// RulePath lists every strategy consulted, in order, ending with the
	// one that resolved.
	RulePath []string `json:"rule_path"`
}

// Strategy is one named resolution rule. It either resolves the unit or
// passes to the next strategy. Precedence is the order of the strategy
// list, nothing else.
type Strategy interface {
	Name() string
	Resolve(rs Ruleset, in ResolveInput) (Classification, bool)
}

type Resolver struct {
	rs         Ruleset
	strategies []Strategy
}

// NewResolver builds the standard precedence chain:
// override > persisted > computed > doc hint > cue rescue > unknown.
func NewResolver(rs Ruleset) *Resolver {
	return &Resolver{
		rs: rs,
		strategies: []Strategy{
			overrideStrategy{},
			persistedStrategy{},
			computedStrategy{},
			docHintStrategy{},
			cueRescueStrategy{},
		},
	}
}

func (r *Resolver) Ruleset() Ruleset { return r.rs }

func (r *Resolver) Resolve(in ResolveInput) Resolved {
	if in.Computed.Label == "" {
		in.Computed = Classify(r.rs, in.Features)
	}
	out := Resolved{
		Persisted: in.Flags.PersistedLabel(),
		Computed:  in.Computed,
	}
	for _, s := range r.strategies {
		out.RulePath = append(out.RulePath, s.Name())
		if cls, ok := s.Resolve(r.rs, in); ok {
			out.Effective = cls
			return out
		}
	}
	out.RulePath = append(out.RulePath, "unknown")
	out.Effective = Classification{Label: LabelUnknown, Source: SourceComputed, Debug: in.Computed.Debug}
	return out
}

// overrideStrategy: an operator-entered label always wins. A freshly
// computed label must never displace it.
type overrideStrategy struct{}

func (overrideStrategy) Name() string { return string(SourceHumanOverride) }

func (overrideStrategy) Resolve(_ Ruleset, in ResolveInput) (Classification, bool) {
	if !in.Flags.HumanOverride() {
		return Classification{}, false
	}
	label, ok := ParseLabel(in.Flags.SegmentKey)
	if !ok {
		return Classification{}, false
	}
	return Classification{Label: label, Confidence: 1, Source: SourceHumanOverride}, true
}

// persistedStrategy: a label promoted by a prior promotion run wins over
// anything computed now.
type persistedStrategy struct{}

func (persistedStrategy) Name() string { return string(SourcePersisted) }

func (persistedStrategy) Resolve(_ Ruleset, in ResolveInput) (Classification, bool) {
	if !in.Flags.Promoted() {
		return Classification{}, false
	}
	label := in.Flags.PersistedLabel()
	if !label.Known() {
		return Classification{}, false
	}
	return Classification{Label: label, Confidence: in.Flags.SegmentConfidence, Source: SourcePersisted}, true
}

type computedStrategy struct{}

func (computedStrategy) Name() string { return string(SourceComputed) }

func (computedStrategy) Resolve(_ Ruleset, in ResolveInput) (Classification, bool) {
	if !in.Computed.Label.Known() {
		return Classification{}, false
	}
	return in.Computed, true
}

// docHintStrategy: for low-signal structured blocks, adopt the majority
// non-unknown label among sibling blocks, but only when that label covers
// at least DocHintShare of the document's non-empty blocks.
type docHintStrategy struct{}

func (docHintStrategy) Name() string { return string(SourceDocHint) }

func (docHintStrategy) Resolve(rs Ruleset, in ResolveInput) (Classification, bool) {
	if !in.StructuredBlock || in.Doc.NonEmptyBlocks <= 0 {
		return Classification{}, false
	}
	counts := map[Label]int{}
	for _, l := range in.Doc.SiblingLabels {
		if l.Known() {
			counts[l]++
		}
	}
	var best Label
	bestCount := 0
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best = label
			bestCount = n
		}
	}
	if bestCount == 0 {
		return Classification{}, false
	}
	share := float64(bestCount) / float64(in.Doc.NonEmptyBlocks)
	if share < rs.DocHintShare {
		return Classification{}, false
	}
	return Classification{Label: best, Confidence: share, Source: SourceDocHint, Debug: in.Computed.Debug}, true
}

// cueRescueStrategy: a short table of high-precision phrases applied to
// structured blocks whose text is boilerplate beyond the cue itself.
type cueRescueStrategy struct{}

func (cueRescueStrategy) Name() string { return string(SourceCueRescue) }

// cueRescueMaxChars bounds how much text a block may carry and still be
// considered boilerplate-only.
const cueRescueMaxChars = 280

// cueRescueConfidence is fixed: cue hits are precise but carry no scoring
// signal of their own.
const cueRescueConfidence = 0.6

func (cueRescueStrategy) Resolve(rs Ruleset, in ResolveInput) (Classification, bool) {
	if !in.StructuredBlock {
		return Classification{}, false
	}
	text := in.Features.ClassificationText()
	if text == "" || len(text) > cueRescueMaxChars {
		return Classification{}, false
	}
	for _, cue := range rs.Cues {
		phrase := strings.ToLower(strings.TrimSpace(cue.Phrase))
		if phrase == "" || !cue.Label.Known() {
			continue
		}
		if strings.Contains(text, phrase) {
			return Classification{Label: cue.Label, Confidence: cueRescueConfidence, Source: SourceCueRescue, Debug: in.Computed.Debug}, true
		}
	}
	return Classification{}, false
}
