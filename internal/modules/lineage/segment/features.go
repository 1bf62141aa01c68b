package segment

import (
	"encoding/json"
	"strings"
)

// SourceKind is the provenance of a unit's text: structured-native office
// parsing or vision/OCR of a rendered page.
type SourceKind string

const (
	SourceStructured SourceKind = "structured"
	SourceVision     SourceKind = "vision"
)

// Features is the normalized per-unit input bundle for classification.
type Features struct {
	Title    string
	Summary  string
	Snippet  string
	Evidence []string

	// Hint is an optional label from an upstream structured source. It
	// only participates in tie-breaking, and only when UseHint is set;
	// callers wanting hint-independent output leave UseHint false.
	Hint    Label
	UseHint bool

	Source SourceKind

	// BrandTerms are company/product names stripped from the text before
	// matching; a brand called "Traction Labs" must not score traction.
	BrandTerms []string
}

// ClassificationText concatenates the textual features, lowercased, with
// brand terms removed.
func (f Features) ClassificationText() string {
	parts := make([]string, 0, 3+len(f.Evidence))
	for _, p := range []string{f.Title, f.Summary, f.Snippet} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	for _, e := range f.Evidence {
		if s := strings.TrimSpace(e); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.ToLower(strings.Join(parts, "\n"))
	for _, brand := range f.BrandTerms {
		brand = strings.ToLower(strings.TrimSpace(brand))
		if brand == "" {
			continue
		}
		text = strings.ReplaceAll(text, brand, " ")
	}
	return strings.TrimSpace(text)
}

// ParseStructuredContent flattens a structured-content payload into a
// title, a body string and an optional upstream segment hint. Malformed
// payloads yield empty output; the item is skipped, never fatal.
func ParseStructuredContent(raw []byte) (title, body, hint string) {
	if len(raw) == 0 {
		return "", "", ""
	}
	var content struct {
		Title       string   `json:"title"`
		Heading     string   `json:"heading"`
		Bullets     []string `json:"bullets"`
		Paragraphs  []string `json:"paragraphs"`
		Notes       string   `json:"notes"`
		Snippet     string   `json:"snippet"`
		SegmentHint string   `json:"segment_hint"`
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", "", ""
	}
	title = content.Title
	if title == "" {
		title = content.Heading
	}
	parts := make([]string, 0, len(content.Bullets)+len(content.Paragraphs)+2)
	parts = append(parts, content.Bullets...)
	parts = append(parts, content.Paragraphs...)
	if content.Notes != "" {
		parts = append(parts, content.Notes)
	}
	if content.Snippet != "" {
		parts = append(parts, content.Snippet)
	}
	return title, strings.Join(parts, "\n"), content.SegmentHint
}
