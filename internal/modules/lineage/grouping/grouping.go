package grouping

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/domain/deals"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
)

// Unit is one raw visual asset with its resolved classification, as seen
// by the grouping engine.
type Unit struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	PageIndex     int
	PositionIndex int
	AssetKind     string

	Title   string
	Summary string
	Snippet string

	Resolved  segment.Resolved
	CreatedAt time.Time
}

const (
	GroupKindPairedSlide  = "paired_slide"
	GroupKindSectionChunk = "section_chunk"
)

// Group is a synthetic merge of raw units representing one logical slide
// or document section. Members are never deleted or hidden from the data:
// MemberIDs always lists every raw unit, and suppression only affects the
// default rendering view.
type Group struct {
	ID           string
	Kind         string
	DocumentID   uuid.UUID
	PageIndex    int
	Position     int
	MemberIDs    []uuid.UUID
	CapturedText string

	Classification segment.Classification
}

type Options struct {
	PairSlides    bool
	ChunkSections bool

	// RawView keeps every member visible alongside its group.
	RawView bool

	MaxSectionMembers int
	CharBudget        int
	OCRExcerptChars   int
}

func DefaultOptions() Options {
	return Options{
		PairSlides:        true,
		ChunkSections:     true,
		MaxSectionMembers: 8,
		CharBudget:        1200,
		OCRExcerptChars:   240,
	}
}

// Result is the grouping outcome. Suppressed maps raw member ids to the
// group that now represents them in the default view.
type Result struct {
	Groups     []Group
	Suppressed map[uuid.UUID]string
	Warnings   []string
}

// Build runs the enabled grouping strategies over the units of one deal.
// Units the strategies do not claim pass through untouched.
func Build(rs segment.Ruleset, units []Unit, opts Options) Result {
	if opts.MaxSectionMembers <= 0 {
		opts.MaxSectionMembers = DefaultOptions().MaxSectionMembers
	}
	if opts.CharBudget <= 0 {
		opts.CharBudget = DefaultOptions().CharBudget
	}
	if opts.OCRExcerptChars <= 0 {
		opts.OCRExcerptChars = DefaultOptions().OCRExcerptChars
	}

	out := Result{Suppressed: map[uuid.UUID]string{}}
	if opts.PairSlides {
		pairSlides(rs, units, opts, &out)
	}
	if opts.ChunkSections {
		chunkSections(rs, units, opts, &out)
	}
	if opts.RawView {
		// Members stay visible; groups still exist for traceability.
		out.Suppressed = map[uuid.UUID]string{}
	}
	sort.Slice(out.Groups, func(i, j int) bool {
		a, b := out.Groups[i], out.Groups[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID.String() < b.DocumentID.String()
		}
		if a.PageIndex != b.PageIndex {
			return a.PageIndex < b.PageIndex
		}
		return a.Position < b.Position
	})
	return out
}

// pairSlides merges a structured slide record with the vision render of
// the same document page into one logical slide.
func pairSlides(rs segment.Ruleset, units []Unit, opts Options, out *Result) {
	type pageKey struct {
		doc  uuid.UUID
		page int
	}
	byPage := map[pageKey][]Unit{}
	for _, u := range units {
		if u.AssetKind != deals.AssetKindSlide && u.AssetKind != deals.AssetKindVisionPage {
			continue
		}
		k := pageKey{doc: u.DocumentID, page: u.PageIndex}
		byPage[k] = append(byPage[k], u)
	}

	keys := make([]pageKey, 0, len(byPage))
	for k := range byPage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].doc != keys[j].doc {
			return keys[i].doc.String() < keys[j].doc.String()
		}
		return keys[i].page < keys[j].page
	})

	for _, k := range keys {
		members := byPage[k]
		var structured, vision *Unit
		for i := range members {
			switch members[i].AssetKind {
			case deals.AssetKindSlide:
				if structured == nil {
					structured = &members[i]
				}
			case deals.AssetKindVisionPage:
				if vision == nil {
					vision = &members[i]
				}
			}
		}
		if structured == nil || vision == nil {
			continue
		}

		var captured strings.Builder
		appendPart(&captured, structured.Title)
		appendPart(&captured, structured.Summary)
		appendPart(&captured, structured.Snippet)
		appendPart(&captured, excerpt(vision.Snippet, opts.OCRExcerptChars))
		text := truncate(captured.String(), opts.CharBudget)

		memberUnits := []Unit{*structured, *vision}
		group := Group{
			ID:           fmt.Sprintf("pair:%s:%d", k.doc, k.page),
			Kind:         GroupKindPairedSlide,
			DocumentID:   k.doc,
			PageIndex:    k.page,
			Position:     structured.PositionIndex,
			MemberIDs:    []uuid.UUID{structured.ID, vision.ID},
			CapturedText: text,
		}
		group.Classification = classifyGroup(rs, memberUnits, text)
		out.Groups = append(out.Groups, group)
		out.Suppressed[structured.ID] = group.ID
		out.Suppressed[vision.ID] = group.ID
	}
}

// chunkSections merges word-section blocks within a document into
// bounded-size groups, preserving document order.
func chunkSections(rs segment.Ruleset, units []Unit, opts Options, out *Result) {
	byDoc := map[uuid.UUID][]Unit{}
	for _, u := range units {
		if u.AssetKind != deals.AssetKindWordSection {
			continue
		}
		byDoc[u.DocumentID] = append(byDoc[u.DocumentID], u)
	}

	docs := make([]uuid.UUID, 0, len(byDoc))
	for d := range byDoc {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].String() < docs[j].String() })

	for _, doc := range docs {
		blocks := byDoc[doc]
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].PageIndex != blocks[j].PageIndex {
				return blocks[i].PageIndex < blocks[j].PageIndex
			}
			return blocks[i].PositionIndex < blocks[j].PositionIndex
		})
		if len(blocks) < 2 {
			continue
		}

		chunkIdx := 0
		var members []Unit
		var snippets []string
		var chars int
		flush := func() {
			if len(members) == 0 {
				return
			}
			text := truncate(strings.Join(snippets, "\n"), opts.CharBudget)
			group := Group{
				ID:           fmt.Sprintf("sect:%s:%d", doc, chunkIdx),
				Kind:         GroupKindSectionChunk,
				DocumentID:   doc,
				PageIndex:    members[0].PageIndex,
				Position:     members[0].PositionIndex,
				CapturedText: text,
			}
			for _, m := range members {
				group.MemberIDs = append(group.MemberIDs, m.ID)
			}
			group.Classification = classifyGroup(rs, members, text)
			out.Groups = append(out.Groups, group)
			for _, m := range members {
				out.Suppressed[m.ID] = group.ID
			}
			chunkIdx++
			members = nil
			snippets = nil
			chars = 0
		}

		for _, b := range blocks {
			snippet := blockText(b)
			if len(members) >= opts.MaxSectionMembers || (chars > 0 && chars+len(snippet) > opts.CharBudget) {
				flush()
			}
			members = append(members, b)
			if snippet != "" && !containsFold(snippets, snippet) {
				snippets = append(snippets, snippet)
				chars += len(snippet)
			}
		}
		flush()
	}
}

// classifyGroup derives the group-level classification from its members.
// A "persisted" group label requires a strict majority of persisted
// member labels; computed or hinted member data never fabricates one.
func classifyGroup(rs segment.Ruleset, members []Unit, capturedText string) segment.Classification {
	persistedCounts := map[segment.Label]int{}
	persistedConf := map[segment.Label]float64{}
	effectiveCounts := map[segment.Label]int{}
	for _, m := range members {
		eff := m.Resolved.Effective
		if eff.Label.Known() {
			effectiveCounts[eff.Label]++
		}
		if eff.Label.Known() && (eff.Source == segment.SourcePersisted || eff.Source == segment.SourceHumanOverride) {
			persistedCounts[eff.Label]++
			persistedConf[eff.Label] += eff.Confidence
		}
	}

	if label, n := majority(persistedCounts); n*2 > len(members) {
		return segment.Classification{
			Label:      label,
			Confidence: persistedConf[label] / float64(n),
			Source:     segment.SourcePersisted,
		}
	}

	hint, _ := majority(effectiveCounts)
	cls := segment.Classify(rs, segment.Features{
		Snippet: capturedText,
		Hint:    hint,
		UseHint: hint.Known(),
		Source:  segment.SourceStructured,
	})
	if cls.Label.Known() {
		return cls
	}
	if hint.Known() {
		return segment.Classification{
			Label:      hint,
			Confidence: float64(effectiveCounts[hint]) / float64(len(members)),
			Source:     segment.SourceGroupInherit,
			Debug:      cls.Debug,
		}
	}
	return cls
}

func majority(counts map[segment.Label]int) (segment.Label, int) {
	var best segment.Label
	bestCount := 0
	labels := make([]segment.Label, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	for _, l := range labels {
		if counts[l] > bestCount {
			best = l
			bestCount = counts[l]
		}
	}
	return best, bestCount
}

func blockText(u Unit) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.Title, u.Summary, u.Snippet} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func appendPart(b *strings.Builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(s)
}

func excerpt(s string, max int) string {
	return truncate(strings.TrimSpace(s), max)
}

// truncate cuts at the last rune boundary within max bytes so captured
// text stays valid UTF-8.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
