package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

// Section is the per-topic evidence rollup.
type Section struct {
	Key string `json:"key"`

	Support string `json:"support"`
	Claims  int    `json:"claims"`

	EvidenceLinked int         `json:"evidence_count_linked"`
	EvidenceTotal  int         `json:"evidence_count_total"`
	LinkedIDs      []uuid.UUID `json:"linked_evidence_ids,omitempty"`
	SampleIDs      []uuid.UUID `json:"sample_evidence_ids,omitempty"`

	// TraceCoveragePct = linked / total, clamped to [0,1].
	TraceCoveragePct float64 `json:"trace_coverage_pct"`
	// NodeCoveragePct = node-anchored linked / linked.
	NodeCoveragePct float64 `json:"node_coverage_pct"`

	Mismatch bool     `json:"mismatch"`
	Notes    []string `json:"notes,omitempty"`

	// CoverageGroup keys the trace audit's grouping; IntentionallyMissing
	// marks sections upstream declared missing on purpose.
	CoverageGroup        string `json:"coverage_group"`
	IntentionallyMissing bool   `json:"intentionally_missing"`
}

// Breakdown is the full scoring payload for one deal.
type Breakdown struct {
	Sections      []Section  `json:"sections"`
	EvidenceTotal int        `json:"evidence_total"`
	TraceAudit    TraceAudit `json:"trace_audit"`
	Warnings      []string   `json:"warnings,omitempty"`
}

const sampleEvidenceCap = 3

// BuildBreakdown rolls claims and their evidence references up into the
// eight canonical sections. snippets is the resolvable evidence set;
// refs pointing outside it count toward totals but not toward linked.
func BuildBreakdown(claims []*types.Claim, snippets map[uuid.UUID]*types.EvidenceSnippet) Breakdown {
	type acc struct {
		claims        int
		supports      []string
		coverages     []string
		linked        []uuid.UUID
		nodeAnchored  int
		total         int
		malformedRefs int
	}
	accs := map[string]*acc{}
	for _, key := range SectionKeys() {
		accs[key] = &acc{}
	}

	out := Breakdown{}
	for _, claim := range claims {
		if claim == nil {
			continue
		}
		section, ok := SectionFor(claim.Category, claim.Text)
		if !ok {
			// Malformed/unroutable claims are skipped, never fatal.
			out.Warnings = append(out.Warnings, fmt.Sprintf("skipped claim with unroutable category %q", claim.Category))
			continue
		}
		a := accs[section]
		a.claims++
		if claim.SupportValue != "" {
			a.supports = append(a.supports, claim.SupportValue)
		}
		if claim.CoverageStatus != "" {
			a.coverages = append(a.coverages, claim.CoverageStatus)
		}

		refs, ok := decodeRefs(claim.EvidenceRefs)
		if !ok {
			a.malformedRefs++
			continue
		}
		for _, ref := range refs {
			a.total++
			snip, found := snippets[ref]
			if !found {
				continue
			}
			a.linked = append(a.linked, ref)
			if snip.VisualAssetID != nil {
				a.nodeAnchored++
			}
		}
	}

	for _, key := range SectionKeys() {
		a := accs[key]
		section := Section{
			Key:           key,
			Claims:        a.claims,
			EvidenceTotal: a.total,
			LinkedIDs:     a.linked,
			CoverageGroup: key,
		}
		section.EvidenceLinked = len(a.linked)
		if n := len(a.linked); n > 0 {
			if n > sampleEvidenceCap {
				n = sampleEvidenceCap
			}
			section.SampleIDs = a.linked[:n]
		}
		if a.malformedRefs > 0 {
			section.Notes = append(section.Notes, fmt.Sprintf("%d claims had malformed evidence refs", a.malformedRefs))
		}

		coverage := strongestCoverage(a.coverages)
		section.IntentionallyMissing = coverage == types.CoverageMissing

		section.Support = resolveSupport(strongestSupport(a.supports), coverage, a.claims)
		missingConflict := section.Support == types.SupportMissing && section.EvidenceLinked > 0
		if missingConflict {
			// Never trust a "missing" verdict that contradicts linked
			// evidence; demote to weak and say so.
			section.Support = types.SupportWeak
			section.Notes = append(section.Notes,
				fmt.Sprintf("coverage reported missing but %d linked evidence items exist; demoted to weak", section.EvidenceLinked))
		}

		section.TraceCoveragePct = clamp01(ratio(section.EvidenceLinked, section.EvidenceTotal))
		section.NodeCoveragePct = clamp01(ratio(a.nodeAnchored, section.EvidenceLinked))

		section.Mismatch = (section.Support == types.SupportSupported && section.EvidenceLinked == 0) ||
			missingConflict ||
			(section.EvidenceTotal >= 3 && section.TraceCoveragePct < 0.4)

		out.Sections = append(out.Sections, section)
		out.EvidenceTotal += section.EvidenceTotal
	}

	out.TraceAudit = BuildTraceAudit(out.Sections)
	return out
}

// resolveSupport applies the support derivation order: explicit
// accountability value, then coverage mapping, then default weak. A
// section with no claims at all is unknown.
func resolveSupport(explicit, coverage string, claims int) string {
	if claims == 0 {
		return types.SupportUnknown
	}
	if explicit != "" {
		return explicit
	}
	switch coverage {
	case types.CoveragePresent:
		return types.SupportSupported
	case types.CoveragePartial:
		return types.SupportWeak
	case types.CoverageMissing:
		return types.SupportMissing
	}
	return types.SupportWeak
}

var supportRank = map[string]int{
	types.SupportSupported: 3,
	types.SupportWeak:      2,
	types.SupportMissing:   1,
}

func strongestSupport(values []string) string {
	best := ""
	for _, v := range values {
		if supportRank[v] > supportRank[best] {
			best = v
		}
	}
	return best
}

var coverageRank = map[string]int{
	types.CoveragePresent: 3,
	types.CoveragePartial: 2,
	types.CoverageMissing: 1,
}

func strongestCoverage(values []string) string {
	best := ""
	for _, v := range values {
		if coverageRank[v] > coverageRank[best] {
			best = v
		}
	}
	return best
}

func decodeRefs(raw []byte) ([]uuid.UUID, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
