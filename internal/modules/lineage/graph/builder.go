package graph

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/grouping"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// Builder runs the staged graph assembly for one deal. Every stage after
// the deal lookup is best-effort: a failed lookup shrinks the graph and
// appends a warning instead of failing the request.
type Builder struct {
	Deals       repos.DealRepo
	Documents   repos.DealDocumentRepo
	Assets      repos.VisualAssetRepo
	Extractions repos.ExtractionRepo
	Evidence    repos.EvidenceRepo

	Ruleset segment.Ruleset
	Log     *logger.Logger
}

type Options struct {
	// RawView keeps suppressed group members visible as their own nodes.
	RawView bool

	// Debug attaches the full resolution trail (rule path, scored
	// candidates) to each visual node.
	Debug bool

	// DisableHints turns off upstream hint participation in tie-breaking,
	// for callers that need output independent of structured hints.
	DisableHints bool

	// Grouping overrides the default strategy set when non-nil. A zero
	// Options value disables both strategies.
	Grouping *grouping.Options
}

func (b *Builder) Build(dbc dbctx.Context, dealID uuid.UUID, opts Options) (*Payload, error) {
	deal, err := b.Deals.GetByID(dbc, dealID)
	if err != nil {
		return nil, err
	}

	payload := &Payload{Warnings: []string{}}
	payload.Nodes = append(payload.Nodes, Node{
		ID:    DealNodeID(deal.ID),
		Kind:  NodeKindDeal,
		Label: deal.Name,
		Metadata: map[string]interface{}{
			"company": deal.Company,
			"stage":   deal.Stage,
		},
	})

	docs, err := b.Documents.GetByDealID(dbc, deal.ID)
	if err != nil {
		b.Log.Warn("document lookup failed, degrading to deal-only graph", "deal_id", deal.ID, "error", err)
		payload.Warnings = append(payload.Warnings, "document lookup failed")
		finish(payload)
		return payload, nil
	}
	docIDs := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		docIDs = append(docIDs, doc.ID)
		payload.Nodes = append(payload.Nodes, Node{
			ID:    DocumentNodeID(doc.ID),
			Kind:  NodeKindDocument,
			Label: doc.Title,
			Metadata: map[string]interface{}{
				"doc_type":   doc.DocType,
				"page_count": doc.PageCount,
			},
		})
		payload.Edges = append(payload.Edges, edge(EdgeHasDocument, DealNodeID(deal.ID), DocumentNodeID(doc.ID)))
	}

	assets, err := b.Assets.GetByDocumentIDs(dbc, docIDs)
	if err != nil {
		b.Log.Warn("visual asset lookup failed, degrading to deal+documents graph", "deal_id", deal.ID, "error", err)
		payload.Warnings = append(payload.Warnings, "visual asset lookup failed")
		finish(payload)
		return payload, nil
	}
	assetIDs := make([]uuid.UUID, 0, len(assets))
	for _, a := range assets {
		assetIDs = append(assetIDs, a.ID)
	}

	// Extraction and evidence loads are independent; run them in parallel
	// and fold failures into warnings after both return.
	var latest map[uuid.UUID]*types.Extraction
	var snippets []*types.EvidenceSnippet
	var extractionErr, evidenceErr error
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() error {
		latest, extractionErr = b.Extractions.LatestByAssetIDs(dbctx.Context{Ctx: gctx, Tx: dbc.Tx}, assetIDs)
		return nil
	})
	g.Go(func() error {
		snippets, evidenceErr = b.Evidence.GetByDocumentIDs(dbctx.Context{Ctx: gctx, Tx: dbc.Tx}, docIDs)
		return nil
	})
	_ = g.Wait()
	if extractionErr != nil {
		b.Log.Warn("extraction lookup failed", "deal_id", deal.ID, "error", extractionErr)
		payload.Warnings = append(payload.Warnings, "extraction lookup failed")
		latest = map[uuid.UUID]*types.Extraction{}
	}
	if evidenceErr != nil {
		b.Log.Warn("evidence lookup failed", "deal_id", deal.ID, "error", evidenceErr)
		payload.Warnings = append(payload.Warnings, "evidence lookup failed")
		snippets = nil
	}

	units := b.resolveUnits(deal, docs, assets, latest, snippets, opts)

	gopts := grouping.DefaultOptions()
	if opts.Grouping != nil {
		gopts = *opts.Grouping
	}
	gopts.RawView = opts.RawView
	grouped := grouping.Build(b.Ruleset, units, gopts)
	payload.Warnings = append(payload.Warnings, grouped.Warnings...)

	b.assemble(payload, deal, units, grouped, snippets, opts)
	finish(payload)
	return payload, nil
}

// resolveUnits classifies every asset and resolves its effective label.
// Resolution is two-pass per document so the doc-hint fallback can see
// sibling labels.
func (b *Builder) resolveUnits(
	deal *types.Deal,
	docs []*types.DealDocument,
	assets []*types.VisualAsset,
	latest map[uuid.UUID]*types.Extraction,
	snippets []*types.EvidenceSnippet,
	opts Options,
) []grouping.Unit {
	docTitles := map[uuid.UUID]string{}
	for _, doc := range docs {
		docTitles[doc.ID] = doc.Title
	}
	evidenceByAsset := map[uuid.UUID][]string{}
	for _, s := range snippets {
		if s.VisualAssetID != nil {
			evidenceByAsset[*s.VisualAssetID] = append(evidenceByAsset[*s.VisualAssetID], s.Text)
		}
	}

	type pending struct {
		unit     grouping.Unit
		input    segment.ResolveInput
		docID    uuid.UUID
		nonEmpty bool
	}
	pendings := make([]pending, 0, len(assets))

	for _, asset := range assets {
		flags := segment.ParseQualityFlags(asset.QualityFlags)
		ex := latest[asset.ID]

		f := segment.Features{
			Evidence:   evidenceByAsset[asset.ID],
			BrandTerms: brandTerms(deal, docTitles[asset.DocumentID]),
		}
		structuredBlock := false
		switch asset.AssetKind {
		case types.AssetKindVisionPage:
			f.Source = segment.SourceVision
			if ex != nil {
				f.Snippet = ex.OCRText
				f.Summary = ex.Summary
			}
		default:
			f.Source = segment.SourceStructured
			structuredBlock = asset.AssetKind == types.AssetKindWordSection ||
				asset.AssetKind == types.AssetKindSheetBlock
			if ex != nil {
				title, body, hint := segment.ParseStructuredContent(ex.StructuredContent)
				f.Title = title
				f.Snippet = body
				f.Summary = ex.Summary
				if hint != "" && !opts.DisableHints {
					if label, ok := segment.ParseLabel(hint); ok {
						f.Hint = label
						f.UseHint = true
					}
				}
			}
		}

		unit := grouping.Unit{
			ID:            asset.ID,
			DocumentID:    asset.DocumentID,
			PageIndex:     asset.PageIndex,
			PositionIndex: asset.PositionIndex,
			AssetKind:     asset.AssetKind,
			Title:         f.Title,
			Summary:       f.Summary,
			Snippet:       f.Snippet,
			CreatedAt:     asset.CreatedAt,
		}
		pendings = append(pendings, pending{
			unit: unit,
			input: segment.ResolveInput{
				Flags:           flags,
				Features:        f,
				Computed:        segment.Classify(b.Ruleset, f),
				StructuredBlock: structuredBlock,
			},
			docID:    asset.DocumentID,
			nonEmpty: f.ClassificationText() != "",
		})
	}

	// Pass one established the computed label per unit; pass two hands each
	// structured block its siblings' best labels for the doc-hint fallback.
	nonEmptyByDoc := map[uuid.UUID]int{}
	indexesByDoc := map[uuid.UUID][]int{}
	bestLabels := make([]segment.Label, len(pendings))
	for i := range pendings {
		p := &pendings[i]
		if p.nonEmpty {
			nonEmptyByDoc[p.docID]++
		}
		label := p.input.Flags.PersistedLabel()
		if !label.Known() {
			label = p.input.Computed.Label
		}
		bestLabels[i] = label
		indexesByDoc[p.docID] = append(indexesByDoc[p.docID], i)
	}

	resolver := segment.NewResolver(b.Ruleset)
	units := make([]grouping.Unit, 0, len(pendings))
	for i := range pendings {
		p := &pendings[i]
		var siblings []segment.Label
		for _, j := range indexesByDoc[p.docID] {
			if j != i {
				siblings = append(siblings, bestLabels[j])
			}
		}
		p.input.Doc = segment.DocContext{
			SiblingLabels:  siblings,
			NonEmptyBlocks: nonEmptyByDoc[p.docID],
		}
		p.unit.Resolved = resolver.Resolve(p.input)
		units = append(units, p.unit)
	}
	return units
}

// assemble turns resolved units, groups and evidence into nodes and edges,
// remapping edges from suppressed members to their group and dropping
// anything left dangling.
func (b *Builder) assemble(
	payload *Payload,
	deal *types.Deal,
	units []grouping.Unit,
	grouped grouping.Result,
	snippets []*types.EvidenceSnippet,
	opts Options,
) {
	nodeIDs := map[string]bool{}
	for _, n := range payload.Nodes {
		nodeIDs[n.ID] = true
	}
	addNode := func(n Node) {
		if !nodeIDs[n.ID] {
			nodeIDs[n.ID] = true
			payload.Nodes = append(payload.Nodes, n)
		}
	}

	segmentsSeen := map[segment.Label]bool{}
	attachVisual := func(nodeID string, docID uuid.UUID, label segment.Label) {
		if label.Known() {
			segID := SegmentNodeID(deal.ID, label)
			if !segmentsSeen[label] {
				segmentsSeen[label] = true
				addNode(Node{ID: segID, Kind: NodeKindSegment, Label: string(label)})
				payload.Edges = append(payload.Edges, edge(EdgeHasSegment, DealNodeID(deal.ID), segID))
			}
			payload.Edges = append(payload.Edges, edge(EdgeHasVisualAsset, segID, nodeID))
			return
		}
		payload.Edges = append(payload.Edges, edge(EdgeHasVisualAsset, DocumentNodeID(docID), nodeID))
	}

	for _, u := range units {
		if _, suppressed := grouped.Suppressed[u.ID]; suppressed && !opts.RawView {
			continue
		}
		data := visualData(u.Resolved, opts.Debug)
		addNode(Node{
			ID:    VisualNodeID(u.ID),
			Kind:  NodeKindVisual,
			Label: u.Title,
			Metadata: map[string]interface{}{
				"asset_kind":     u.AssetKind,
				"page_index":     u.PageIndex,
				"position_index": u.PositionIndex,
			},
			Data: data,
		})
		attachVisual(VisualNodeID(u.ID), u.DocumentID, u.Resolved.Effective.Label)
	}

	for _, grp := range grouped.Groups {
		members := make([]string, 0, len(grp.MemberIDs))
		for _, m := range grp.MemberIDs {
			members = append(members, m.String())
		}
		addNode(Node{
			ID:    GroupNodeID(grp.ID),
			Kind:  NodeKindVisual,
			Label: grp.Kind,
			Metadata: map[string]interface{}{
				"group_kind": grp.Kind,
				"page_index": grp.PageIndex,
				"member_ids": members,
			},
			Data: map[string]interface{}{
				"label":      string(grp.Classification.Label),
				"source":     string(grp.Classification.Source),
				"confidence": grp.Classification.Confidence,
			},
		})
		attachVisual(GroupNodeID(grp.ID), grp.DocumentID, grp.Classification.Label)
	}

	// Evidence edges are built against the raw member first, then remapped
	// onto the group when the member is suppressed.
	remap := map[string]string{}
	for memberID, groupID := range grouped.Suppressed {
		remap[VisualNodeID(memberID)] = GroupNodeID(groupID)
	}
	for _, s := range snippets {
		addNode(Node{
			ID:    EvidenceNodeID(s.ID),
			Kind:  NodeKindEvidence,
			Label: excerptLabel(s.Text),
			Metadata: map[string]interface{}{
				"kind": s.Kind,
			},
		})
		source := DocumentNodeID(s.DocumentID)
		if s.VisualAssetID != nil {
			source = VisualNodeID(*s.VisualAssetID)
		}
		payload.Edges = append(payload.Edges, edge(EdgeHasEvidence, source, EvidenceNodeID(s.ID)))
	}

	payload.Edges, payload.Warnings = RemapEdges(payload.Edges, remap, nodeIDs, payload.Warnings)
}

// RemapEdges rewrites edge endpoints per the suppression map, then drops
// edges dangling to nonexistent nodes. Dropped edges are counted in a
// warning, never silently kept.
func RemapEdges(edges []Edge, remap map[string]string, nodeIDs map[string]bool, warnings []string) ([]Edge, []string) {
	kept := make([]Edge, 0, len(edges))
	dropped := 0
	seen := map[string]bool{}
	for _, e := range edges {
		if to, ok := remap[e.Source]; ok {
			e.Source = to
		}
		if to, ok := remap[e.Target]; ok {
			e.Target = to
		}
		e.ID = EdgeID(e.Type, e.Source, e.Target)
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			dropped++
			continue
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		kept = append(kept, e)
	}
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("dropped %d dangling edges", dropped))
	}
	return kept, warnings
}

func visualData(r segment.Resolved, debug bool) interface{} {
	if debug {
		return r
	}
	return map[string]interface{}{
		"label":      string(r.Effective.Label),
		"source":     string(r.Effective.Source),
		"confidence": r.Effective.Confidence,
	}
}

func edge(edgeType, source, target string) Edge {
	return Edge{ID: EdgeID(edgeType, source, target), Source: source, Target: target, Type: edgeType}
}

var kindRank = map[string]int{
	NodeKindDeal:     0,
	NodeKindDocument: 1,
	NodeKindSegment:  2,
	NodeKindVisual:   3,
	NodeKindEvidence: 4,
}

// finish applies the deterministic final ordering: explicit sort keys,
// not processing order.
func finish(p *Payload) {
	sort.Slice(p.Nodes, func(i, j int) bool {
		a, b := p.Nodes[i], p.Nodes[j]
		if kindRank[a.Kind] != kindRank[b.Kind] {
			return kindRank[a.Kind] < kindRank[b.Kind]
		}
		return a.ID < b.ID
	})
	sort.Slice(p.Edges, func(i, j int) bool {
		a, b := p.Edges[i], p.Edges[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
}

// brandTerms collects company/product names to strip before scoring, so a
// brand called "Traction Labs" never scores the traction label.
func brandTerms(deal *types.Deal, docTitle string) []string {
	terms := make([]string, 0, 3)
	if deal.Company != "" {
		terms = append(terms, deal.Company)
	}
	if deal.Name != "" && !strings.EqualFold(deal.Name, deal.Company) {
		terms = append(terms, deal.Name)
	}
	if base := titleBase(docTitle); base != "" {
		terms = append(terms, base)
	}
	return terms
}

func titleBase(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.LastIndex(title, "."); i > 0 {
		title = title[:i]
	}
	return title
}

func excerptLabel(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= 80 {
		return text
	}
	cut := 80
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
