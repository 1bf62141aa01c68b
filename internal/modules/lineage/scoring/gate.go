package scoring

// Gate statuses.
const (
	GateOK    = "ok"
	GateWarn  = "warn"
	GateBlock = "block"
)

// GatePayload is the stage-transition readiness signal. Block is
// advisory: callers decide whether to enforce it.
type GatePayload struct {
	Status          string  `json:"status"`
	NodeCoveragePct float64 `json:"node_coverage_pct"`
	EvidenceLinked  int     `json:"evidence_linked"`
	NodeAnchored    int     `json:"node_anchored"`
}

const (
	gateOKThreshold   = 0.6
	gateWarnThreshold = 0.3
)

// BuildGate measures what fraction of linked evidence is anchored to a
// locatable visual unit rather than free-floating text.
func BuildGate(sections []Section) GatePayload {
	linked := 0
	anchored := 0
	for _, s := range sections {
		linked += s.EvidenceLinked
		// NodeCoveragePct is anchored/linked per section.
		anchored += int(s.NodeCoveragePct*float64(s.EvidenceLinked) + 0.5)
	}

	gate := GatePayload{EvidenceLinked: linked, NodeAnchored: anchored}
	if linked == 0 {
		gate.Status = GateBlock
		return gate
	}
	gate.NodeCoveragePct = clamp01(float64(anchored) / float64(linked))
	switch {
	case gate.NodeCoveragePct >= gateOKThreshold:
		gate.Status = GateOK
	case gate.NodeCoveragePct >= gateWarnThreshold:
		gate.Status = GateWarn
	default:
		gate.Status = GateBlock
	}
	return gate
}
