package segment_promote

import (
	"github.com/kierolabs/dealdesk-backend/internal/platform/envutil"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// Thresholds split computed confidences into promoted / needs_review /
// rejected bands.
type Thresholds struct {
	RejectBelow  float64 `json:"reject_below"`
	ReviewAt     float64 `json:"review_at"`
	AutoAcceptAt float64 `json:"auto_accept_at"`
}

// Clamp enforces reject <= review <= auto_accept by pushing the later
// thresholds up, never down.
func (t Thresholds) Clamp() Thresholds {
	if t.ReviewAt < t.RejectBelow {
		t.ReviewAt = t.RejectBelow
	}
	if t.AutoAcceptAt < t.ReviewAt {
		t.AutoAcceptAt = t.ReviewAt
	}
	return t
}

// Valid reports whether the thresholds already satisfy the ordering.
// Request-supplied thresholds that fail this are rejected upstream with
// a client error; env defaults are clamped instead.
func (t Thresholds) Valid() bool {
	return t.RejectBelow <= t.ReviewAt && t.ReviewAt <= t.AutoAcceptAt
}

func DefaultThresholds(log *logger.Logger) Thresholds {
	return Thresholds{
		RejectBelow:  envutil.GetEnvAsFloat("PROMOTE_REJECT_BELOW", 0.35, log),
		ReviewAt:     envutil.GetEnvAsFloat("PROMOTE_REVIEW_AT", 0.65, log),
		AutoAcceptAt: envutil.GetEnvAsFloat("PROMOTE_AUTO_ACCEPT_AT", 0.85, log),
	}.Clamp()
}
