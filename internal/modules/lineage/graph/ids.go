package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
)

// Node and edge ids are pure functions of the underlying records, so two
// builds over unchanged data produce byte-identical graphs. Callers rely
// on this for caching and UI diffing; never derive an id from processing
// order or the clock.

func DealNodeID(dealID uuid.UUID) string {
	return fmt.Sprintf("deal:%s", dealID)
}

func DocumentNodeID(docID uuid.UUID) string {
	return fmt.Sprintf("doc:%s", docID)
}

func SegmentNodeID(dealID uuid.UUID, label segment.Label) string {
	return fmt.Sprintf("seg:%s:%s", dealID, label)
}

func VisualNodeID(assetID uuid.UUID) string {
	return fmt.Sprintf("vis:%s", assetID)
}

// GroupNodeID wraps a synthetic group id (already deterministic: built
// from document id plus page/chunk index) into the visual-node namespace.
func GroupNodeID(groupID string) string {
	return fmt.Sprintf("vis:%s", groupID)
}

func EvidenceNodeID(snippetID uuid.UUID) string {
	return fmt.Sprintf("ev:%s", snippetID)
}

func EdgeID(edgeType, source, target string) string {
	return fmt.Sprintf("%s:%s:%s", edgeType, source, target)
}
