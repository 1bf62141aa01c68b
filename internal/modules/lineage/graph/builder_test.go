package graph_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/graph"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/grouping"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type stubStore struct {
	deal     *types.Deal
	docs     []*types.DealDocument
	assets   []*types.VisualAsset
	latest   map[uuid.UUID]*types.Extraction
	evidence []*types.EvidenceSnippet

	failAssets   bool
	failEvidence bool
}

func (s *stubStore) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Deal, error) {
	if s.deal == nil || s.deal.ID != id {
		return nil, errors.New("deal not found")
	}
	return s.deal, nil
}
func (s *stubStore) Create(_ dbctx.Context, d []*types.Deal) ([]*types.Deal, error) { return d, nil }
func (s *stubStore) UpdateStage(_ dbctx.Context, _ uuid.UUID, _ string) error       { return nil }

type stubDocs struct{ store *stubStore }

func (s stubDocs) Create(_ dbctx.Context, d []*types.DealDocument) ([]*types.DealDocument, error) {
	return d, nil
}
func (s stubDocs) GetByIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.DealDocument, error) {
	return s.store.docs, nil
}
func (s stubDocs) GetByDealID(_ dbctx.Context, _ uuid.UUID) ([]*types.DealDocument, error) {
	return s.store.docs, nil
}

type stubAssets struct{ store *stubStore }

func (s stubAssets) Create(_ dbctx.Context, a []*types.VisualAsset) ([]*types.VisualAsset, error) {
	return a, nil
}
func (s stubAssets) GetByIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.VisualAsset, error) {
	return s.store.assets, nil
}
func (s stubAssets) GetByDocumentIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.VisualAsset, error) {
	if s.store.failAssets {
		return nil, errors.New("asset query failed")
	}
	return s.store.assets, nil
}
func (s stubAssets) UpdateQualityFlags(_ dbctx.Context, _ uuid.UUID, _ []byte) (int64, error) {
	return 0, nil
}

type stubExtractions struct{ store *stubStore }

func (s stubExtractions) Create(_ dbctx.Context, e []*types.Extraction) ([]*types.Extraction, error) {
	return e, nil
}
func (s stubExtractions) LatestByAssetIDs(_ dbctx.Context, _ []uuid.UUID) (map[uuid.UUID]*types.Extraction, error) {
	return s.store.latest, nil
}

type stubEvidence struct{ store *stubStore }

func (s stubEvidence) Create(_ dbctx.Context, e []*types.EvidenceSnippet) ([]*types.EvidenceSnippet, error) {
	return e, nil
}
func (s stubEvidence) GetByIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.EvidenceSnippet, error) {
	return s.store.evidence, nil
}
func (s stubEvidence) GetByDocumentIDs(_ dbctx.Context, _ []uuid.UUID) ([]*types.EvidenceSnippet, error) {
	if s.store.failEvidence {
		return nil, errors.New("evidence query failed")
	}
	return s.store.evidence, nil
}
func (s stubEvidence) Present() bool { return true }

func newBuilder(t *testing.T, store *stubStore) *graph.Builder {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &graph.Builder{
		Deals:       store,
		Documents:   stubDocs{store},
		Assets:      stubAssets{store},
		Extractions: stubExtractions{store},
		Evidence:    stubEvidence{store},
		Ruleset:     segment.DefaultRuleset(),
		Log:         log,
	}
}

func structured(title string, bullets ...string) datatypes.JSON {
	raw, _ := json.Marshal(map[string]interface{}{"title": title, "bullets": bullets})
	return raw
}

func fixtureStore() *stubStore {
	dealID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	docID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	slideID := uuid.MustParse("00000000-0000-0000-0000-000000000003")
	visionID := uuid.MustParse("00000000-0000-0000-0000-000000000004")
	evidenceID := uuid.MustParse("00000000-0000-0000-0000-000000000005")

	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &stubStore{
		deal: &types.Deal{ID: dealID, Name: "Acme Robotics", Company: "Acme", Stage: "analysis"},
		docs: []*types.DealDocument{
			{ID: docID, DealID: dealID, Title: "deck.pptx", DocType: types.DocTypePPTX, PageCount: 12},
		},
		assets: []*types.VisualAsset{
			{ID: slideID, DocumentID: docID, PageIndex: 4, PositionIndex: 0, AssetKind: types.AssetKindSlide, CreatedAt: created},
			{ID: visionID, DocumentID: docID, PageIndex: 4, PositionIndex: 0, AssetKind: types.AssetKindVisionPage, CreatedAt: created},
		},
		latest: map[uuid.UUID]*types.Extraction{
			slideID: {VisualAssetID: slideID, StructuredContent: structured(
				"Traction", "arr grew 3x", "monthly active users doubled", "revenue growth accelerating")},
			visionID: {VisualAssetID: visionID, OCRText: "arr growth retention cohort customers revenue growth"},
		},
		evidence: []*types.EvidenceSnippet{
			{ID: evidenceID, DocumentID: docID, VisualAssetID: &visionID, Text: "ARR grew from 1M to 3M"},
		},
	}
	return store
}

func build(t *testing.T, b *graph.Builder, dealID uuid.UUID, opts graph.Options) *graph.Payload {
	t.Helper()
	payload, err := b.Build(dbctx.Context{Ctx: context.Background()}, dealID, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return payload
}

func TestBuildIsByteIdenticalAcrossRuns(t *testing.T) {
	store := fixtureStore()
	b := newBuilder(t, store)

	first := build(t, b, store.deal.ID, graph.Options{})
	second := build(t, b, store.deal.ID, graph.Options{})

	a, _ := json.Marshal(first)
	bb, _ := json.Marshal(second)
	if string(a) != string(bb) {
		t.Fatalf("two builds over unchanged data differ:\n%s\n%s", a, bb)
	}
}

func TestBuildPairsSlideAndRemapsEvidence(t *testing.T) {
	store := fixtureStore()
	b := newBuilder(t, store)

	payload := build(t, b, store.deal.ID, graph.Options{})

	var groupNode *graph.Node
	for i, n := range payload.Nodes {
		if n.Kind == graph.NodeKindVisual && strings.HasPrefix(n.ID, "vis:pair:") {
			groupNode = &payload.Nodes[i]
		}
		if n.Kind == graph.NodeKindVisual && strings.HasPrefix(n.ID, "vis:0000") {
			t.Fatalf("suppressed member %s still visible in default view", n.ID)
		}
	}
	if groupNode == nil {
		t.Fatalf("no paired-slide group node in graph")
	}

	// The evidence was anchored to the vision member; its edge must now
	// land on the group.
	found := false
	for _, e := range payload.Edges {
		if e.Type == graph.EdgeHasEvidence && e.Source == groupNode.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("evidence edge not remapped to group %s; edges: %+v", groupNode.ID, payload.Edges)
	}
}

func TestBuildRawViewKeepsMembers(t *testing.T) {
	store := fixtureStore()
	b := newBuilder(t, store)

	payload := build(t, b, store.deal.ID, graph.Options{RawView: true})

	rawVisible := 0
	for _, n := range payload.Nodes {
		if n.Kind == graph.NodeKindVisual && strings.HasPrefix(n.ID, "vis:0000") {
			rawVisible++
		}
	}
	if rawVisible != 2 {
		t.Fatalf("raw view shows %d raw members, want 2", rawVisible)
	}
}

func TestBuildGroupingCanBeFullyDisabled(t *testing.T) {
	store := fixtureStore()
	b := newBuilder(t, store)

	payload := build(t, b, store.deal.ID, graph.Options{Grouping: &grouping.Options{}})

	rawVisible := 0
	for _, n := range payload.Nodes {
		if n.Kind == graph.NodeKindVisual {
			if strings.HasPrefix(n.ID, "vis:pair:") || strings.HasPrefix(n.ID, "vis:sect:") {
				t.Fatalf("group node %s built with both strategies off", n.ID)
			}
			rawVisible++
		}
	}
	if rawVisible != 2 {
		t.Fatalf("ungrouped view shows %d raw members, want 2", rawVisible)
	}
}

func TestBuildDegradesOnAssetFailure(t *testing.T) {
	store := fixtureStore()
	store.failAssets = true
	b := newBuilder(t, store)

	payload := build(t, b, store.deal.ID, graph.Options{})

	kinds := map[string]int{}
	for _, n := range payload.Nodes {
		kinds[n.Kind]++
	}
	if kinds[graph.NodeKindDeal] != 1 || kinds[graph.NodeKindDocument] != 1 {
		t.Fatalf("degraded graph missing deal/document nodes: %+v", kinds)
	}
	if kinds[graph.NodeKindVisual] != 0 {
		t.Fatalf("degraded graph still has visual nodes")
	}
	if len(payload.Warnings) == 0 {
		t.Fatalf("degraded graph carries no warning")
	}
}

func TestBuildEvidenceFailureDegradesToWarning(t *testing.T) {
	store := fixtureStore()
	store.failEvidence = true
	b := newBuilder(t, store)

	payload := build(t, b, store.deal.ID, graph.Options{})

	for _, n := range payload.Nodes {
		if n.Kind == graph.NodeKindEvidence {
			t.Fatalf("evidence node present despite failed lookup")
		}
	}
	found := false
	for _, w := range payload.Warnings {
		if strings.Contains(w, "evidence") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no evidence warning recorded: %v", payload.Warnings)
	}
}

func TestDeterministicIDs(t *testing.T) {
	dealID := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	if graph.SegmentNodeID(dealID, segment.LabelTraction) != graph.SegmentNodeID(dealID, segment.LabelTraction) {
		t.Fatalf("segment id not stable")
	}
	if graph.EdgeID(graph.EdgeHasSegment, "a", "b") != "HAS_SEGMENT:a:b" {
		t.Fatalf("edge id format changed: %s", graph.EdgeID(graph.EdgeHasSegment, "a", "b"))
	}
}
