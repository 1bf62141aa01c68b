// Package graph assembles the per-request lineage graph for a deal:
// documents, resolved segments, visual units (grouped where possible) and
// cited evidence. Graphs are ephemeral; nothing here is persisted.
package graph

// Node kinds.
const (
	NodeKindDeal     = "deal"
	NodeKindDocument = "document"
	NodeKindSegment  = "segment"
	NodeKindVisual   = "visual"
	NodeKindEvidence = "evidence"
)

// Edge types.
const (
	EdgeHasDocument    = "HAS_DOCUMENT"
	EdgeHasSegment     = "HAS_SEGMENT"
	EdgeHasVisualAsset = "HAS_VISUAL_ASSET"
	EdgeHasEvidence    = "HAS_EVIDENCE"
)

type Node struct {
	ID       string                 `json:"id"`
	Kind     string                 `json:"kind"`
	Label    string                 `json:"label"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Data     interface{}            `json:"data,omitempty"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Payload is the outbound graph shape consumed by the UI.
type Payload struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Warnings []string `json:"warnings"`
}
