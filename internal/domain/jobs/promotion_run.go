package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PromotionRun records one full segment-promotion pass over a deal so the
// run can be audited and replayed. RunKey makes re-submissions of the same
// logical run detectable.
type PromotionRun struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	JobRunID *uuid.UUID `gorm:"type:uuid;index" json:"job_run_id,omitempty"`
	DealID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"deal_id"`
	RunKey   string     `gorm:"column:run_key;not null;uniqueIndex" json:"run_key"`

	RulesetVersion string  `gorm:"column:ruleset_version;not null" json:"ruleset_version"`
	RejectBelow    float64 `gorm:"column:reject_below;not null" json:"reject_below"`
	ReviewAt       float64 `gorm:"column:review_at;not null" json:"review_at"`
	AutoAcceptAt   float64 `gorm:"column:auto_accept_at;not null" json:"auto_accept_at"`

	Promoted    int `gorm:"column:promoted;not null;default:0" json:"promoted"`
	NeedsReview int `gorm:"column:needs_review;not null;default:0" json:"needs_review"`
	Rejected    int `gorm:"column:rejected;not null;default:0" json:"rejected"`
	Unchanged   int `gorm:"column:unchanged;not null;default:0" json:"unchanged"`

	Report      datatypes.JSON `gorm:"column:report;type:jsonb" json:"report"`
	ArtifactURL string         `gorm:"column:artifact_url" json:"artifact_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (PromotionRun) TableName() string { return "promotion_run" }

func (p *PromotionRun) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
