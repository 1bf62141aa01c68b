package segment

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Known quality-flag keys on visual_asset.quality_flags. The promotion job
// writes the segment_* keys; extraction workers own the rest.
const (
	FlagSegmentKey        = "segment_key"
	FlagSegmentSource     = "segment_source"
	FlagSegmentConfidence = "segment_confidence"
	FlagSegmentPromotedAt = "segment_promoted_at"
)

// QualityFlags is a typed view over the free-form annotation map carried
// on a visual asset. Keys outside the documented set are preserved in
// Extra and round-trip untouched through Encode.
type QualityFlags struct {
	SegmentKey        string
	SegmentSource     string
	SegmentConfidence float64
	SegmentPromotedAt *time.Time

	Extra map[string]json.RawMessage
}

// HumanOverride reports whether an operator explicitly set the segment.
func (q QualityFlags) HumanOverride() bool {
	return q.SegmentSource == string(SourceHumanOverride) && q.SegmentKey != ""
}

// Promoted reports whether a prior promotion run persisted the segment.
func (q QualityFlags) Promoted() bool {
	return q.SegmentKey != "" && q.SegmentPromotedAt != nil && !q.HumanOverride()
}

// PersistedLabel returns the stored segment label, unknown when absent or
// outside the canonical set.
func (q QualityFlags) PersistedLabel() Label {
	if q.SegmentKey == "" {
		return LabelUnknown
	}
	label, ok := ParseLabel(q.SegmentKey)
	if !ok {
		return LabelUnknown
	}
	return label
}

// ParseQualityFlags decodes the raw annotation map. Malformed JSON yields
// empty flags rather than an error: a broken annotation must never take
// classification down with it.
func ParseQualityFlags(raw []byte) QualityFlags {
	var q QualityFlags
	if len(raw) == 0 {
		return q
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return q
	}
	for key, val := range m {
		switch key {
		case FlagSegmentKey:
			q.SegmentKey = decodeFlagString(val)
		case FlagSegmentSource:
			q.SegmentSource = decodeFlagString(val)
		case FlagSegmentConfidence:
			q.SegmentConfidence = decodeFlagFloat(val)
		case FlagSegmentPromotedAt:
			if ts := decodeFlagString(val); ts != "" {
				if t, err := time.Parse(time.RFC3339, ts); err == nil {
					q.SegmentPromotedAt = &t
				}
			}
		default:
			if q.Extra == nil {
				q.Extra = map[string]json.RawMessage{}
			}
			q.Extra[key] = val
		}
	}
	return q
}

// Encode serializes the flags back into the annotation map, merging known
// keys over the preserved Extra set.
func (q QualityFlags) Encode() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(q.Extra)+4)
	for k, v := range q.Extra {
		m[k] = v
	}
	setString := func(key, val string) error {
		if val == "" {
			delete(m, key)
			return nil
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		m[key] = raw
		return nil
	}
	if err := setString(FlagSegmentKey, q.SegmentKey); err != nil {
		return nil, err
	}
	if err := setString(FlagSegmentSource, q.SegmentSource); err != nil {
		return nil, err
	}
	if q.SegmentConfidence != 0 {
		raw, err := json.Marshal(q.SegmentConfidence)
		if err != nil {
			return nil, err
		}
		m[FlagSegmentConfidence] = raw
	} else {
		delete(m, FlagSegmentConfidence)
	}
	if q.SegmentPromotedAt != nil {
		if err := setString(FlagSegmentPromotedAt, q.SegmentPromotedAt.UTC().Format(time.RFC3339)); err != nil {
			return nil, err
		}
	} else {
		delete(m, FlagSegmentPromotedAt)
	}
	return json.Marshal(m)
}

func decodeFlagString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// Tolerate bare numbers and such written by older extractors.
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func decodeFlagFloat(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}
