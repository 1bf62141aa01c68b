package scoring

// TraceAudit statuses.
const (
	AuditOK      = "ok"
	AuditPartial = "partial"
	AuditPoor    = "poor"
)

type TraceAudit struct {
	Status      string   `json:"status"`
	GroupsTotal int      `json:"groups_total"`
	GroupsCited int      `json:"groups_cited"`
	Mismatches  int      `json:"mismatches"`
	Notes       []string `json:"notes,omitempty"`
}

// BuildTraceAudit reduces the sections to a single trace-health status.
// Sections that are intentionally missing and carry no evidence are left
// out of the denominator: an absent data-room section is not a citation
// failure.
func BuildTraceAudit(sections []Section) TraceAudit {
	type groupState struct {
		cited      bool
		mismatched bool
	}
	groups := map[string]*groupState{}
	order := []string{}
	mismatches := 0
	for _, s := range sections {
		if s.IntentionallyMissing && s.EvidenceTotal == 0 {
			continue
		}
		g, ok := groups[s.CoverageGroup]
		if !ok {
			g = &groupState{}
			groups[s.CoverageGroup] = g
			order = append(order, s.CoverageGroup)
		}
		if s.EvidenceLinked > 0 {
			g.cited = true
		}
		if s.Mismatch {
			g.mismatched = true
			mismatches++
		}
	}

	audit := TraceAudit{GroupsTotal: len(order), Mismatches: mismatches}
	for _, key := range order {
		if groups[key].cited {
			audit.GroupsCited++
		}
	}

	if audit.GroupsTotal == 0 {
		audit.Status = AuditPoor
		audit.Notes = append(audit.Notes, "no auditable sections")
		return audit
	}

	citedShare := float64(audit.GroupsCited) / float64(audit.GroupsTotal)
	switch {
	case citedShare >= 0.75 && mismatches == 0:
		audit.Status = AuditOK
	case citedShare < 0.4:
		audit.Status = AuditPoor
	default:
		audit.Status = AuditPartial
	}
	return audit
}
