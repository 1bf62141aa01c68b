package segment

import (
	"sort"
	"strings"
)

// Reason codes attached to unknown classifications.
type Reason string

const (
	ReasonNoText       Reason = "NO_TEXT"
	ReasonLowSignal    Reason = "LOW_SIGNAL"
	ReasonAmbiguousTie Reason = "AMBIGUOUS_TIE"
)

// Source identifies which rule produced an effective label.
type Source string

const (
	SourceHumanOverride Source = "human_override"
	SourcePersisted     Source = "persisted"
	SourceDocHint       Source = "doc_hint_v1"
	SourceCueRescue     Source = "docx_cue_v1"
	SourceComputed      Source = "computed"
	SourceGroupInherit  Source = "group_inherit"
)

// Candidate is one scored label in the debug trace.
type Candidate struct {
	Label   Label    `json:"label"`
	Score   float64  `json:"score"`
	Matched []string `json:"matched,omitempty"`
}

// Debug makes a classification decision reproducible: the scored
// candidates, the threshold that applied, and why unknown was returned.
type Debug struct {
	Candidates  []Candidate `json:"candidates"`
	Threshold   float64     `json:"threshold"`
	TieMargin   float64     `json:"tie_margin"`
	Reason      Reason      `json:"reason,omitempty"`
	HintApplied bool        `json:"hint_applied,omitempty"`
}

// Classification is the classifier/resolver output for one unit.
type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	Debug      *Debug  `json:"debug,omitempty"`
}

// Scorer combines a rule's keyword hits over the classification text into
// a single score plus the matched terms. The weighting here is a
// heuristic (positive hits minus negative hits), deliberately behind an
// interface so alternates can be swapped in.
type Scorer interface {
	Score(rule Rule, text string) (float64, []string)
}

// HitScorer is the default Scorer: sum of weights of matched positive
// terms minus one point per matched negative term.
type HitScorer struct{}

func (HitScorer) Score(rule Rule, text string) (float64, []string) {
	var score float64
	var matched []string
	for _, kw := range rule.Keywords {
		term := strings.ToLower(strings.TrimSpace(kw.Term))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			w := kw.Weight
			if w == 0 {
				w = 1
			}
			score += w
			matched = append(matched, term)
		}
	}
	for _, neg := range rule.Negative {
		term := strings.ToLower(strings.TrimSpace(neg))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			score -= 1
			matched = append(matched, "-"+term)
		}
	}
	return score, matched
}

// Classify maps a feature bundle to a label. Pure and deterministic:
// the same ruleset and features always yield the same output.
func Classify(rs Ruleset, f Features) Classification {
	debug := &Debug{TieMargin: rs.TieMargin, Threshold: rs.thresholdFor(f.Source)}

	text := f.ClassificationText()
	if text == "" {
		debug.Reason = ReasonNoText
		return Classification{Label: LabelUnknown, Source: SourceComputed, Debug: debug}
	}

	scorer := rs.Scorer
	if scorer == nil {
		scorer = HitScorer{}
	}

	candidates := make([]Candidate, 0, len(rs.Rules))
	for label, rule := range rs.Rules {
		score, matched := scorer.Score(rule, text)
		candidates = append(candidates, Candidate{Label: label, Score: score, Matched: matched})
	}
	// Score descending, then label ascending so equal scores order the
	// same way on every run.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Label < candidates[j].Label
	})
	topN := rs.TopN
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}
	debug.Candidates = candidates[:topN]

	top := candidates[0]
	if top.Score <= 0 || top.Score < debug.Threshold {
		debug.Reason = ReasonLowSignal
		return Classification{Label: LabelUnknown, Source: SourceComputed, Debug: debug}
	}

	if len(candidates) > 1 {
		runner := candidates[1]
		if top.Score-runner.Score < rs.TieMargin {
			// Hint may break the tie, but never overrides a clear win.
			if f.UseHint && f.Hint.Known() && (f.Hint == top.Label || f.Hint == runner.Label) {
				debug.HintApplied = true
				winner := top
				if f.Hint == runner.Label {
					winner = runner
				}
				return Classification{
					Label:      winner.Label,
					Confidence: confidenceFor(winner.Score),
					Source:     SourceComputed,
					Debug:      debug,
				}
			}
			debug.Reason = ReasonAmbiguousTie
			return Classification{Label: LabelUnknown, Source: SourceComputed, Debug: debug}
		}
	}

	return Classification{
		Label:      top.Label,
		Confidence: confidenceFor(top.Score),
		Source:     SourceComputed,
		Debug:      debug,
	}
}

func (rs Ruleset) thresholdFor(source SourceKind) float64 {
	if source == SourceVision {
		return rs.VisionThreshold
	}
	return rs.StructuredThreshold
}

// confidenceFor squashes an unbounded hit score into [0,1). Monotone in
// the score, so relative ordering of candidates survives.
func confidenceFor(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + 2)
}
