package segment

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseQualityFlags_UnknownKeysRoundTrip(t *testing.T) {
	raw := []byte(`{"segment_key":"market","segment_source":"persisted","segment_confidence":0.82,"ocr_quality":"low","custom":{"a":1}}`)
	q := ParseQualityFlags(raw)
	if q.SegmentKey != "market" || q.SegmentSource != "persisted" {
		t.Fatalf("unexpected parsed flags: %+v", q)
	}
	if q.SegmentConfidence != 0.82 {
		t.Fatalf("unexpected confidence %v", q.SegmentConfidence)
	}
	if len(q.Extra) != 2 {
		t.Fatalf("expected 2 passthrough keys, got %d", len(q.Extra))
	}

	encoded, err := q.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &m); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if string(m["ocr_quality"]) != `"low"` {
		t.Fatalf("ocr_quality dropped or mangled: %s", m["ocr_quality"])
	}
	if string(m["custom"]) != `{"a":1}` {
		t.Fatalf("custom dropped or mangled: %s", m["custom"])
	}
}

func TestParseQualityFlags_MalformedIsEmptyNotFatal(t *testing.T) {
	q := ParseQualityFlags([]byte(`{not json`))
	if q.SegmentKey != "" || q.Extra != nil {
		t.Fatalf("expected empty flags for malformed input, got %+v", q)
	}
}

func TestQualityFlags_PromotedVsOverride(t *testing.T) {
	at := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	promoted := QualityFlags{SegmentKey: "product", SegmentSource: string(SourcePersisted), SegmentPromotedAt: &at}
	if !promoted.Promoted() || promoted.HumanOverride() {
		t.Fatalf("expected promoted, got %+v", promoted)
	}

	override := QualityFlags{SegmentKey: "team", SegmentSource: string(SourceHumanOverride)}
	if !override.HumanOverride() || override.Promoted() {
		t.Fatalf("expected human override, got %+v", override)
	}

	if promoted.PersistedLabel() != LabelProduct {
		t.Fatalf("unexpected persisted label %q", promoted.PersistedLabel())
	}
}

func TestQualityFlags_EncodePromotedAtRFC3339(t *testing.T) {
	at := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	q := QualityFlags{SegmentKey: "market", SegmentSource: string(SourcePersisted), SegmentConfidence: 0.9, SegmentPromotedAt: &at}
	encoded, err := q.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back := ParseQualityFlags(encoded)
	if back.SegmentPromotedAt == nil || !back.SegmentPromotedAt.Equal(at) {
		t.Fatalf("promoted_at did not round-trip: %+v", back.SegmentPromotedAt)
	}
}
