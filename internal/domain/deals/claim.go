package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CoveragePresent = "present"
	CoveragePartial = "partial"
	CoverageMissing = "missing"

	SupportSupported = "supported"
	SupportWeak      = "weak"
	SupportMissing   = "missing"
	SupportUnknown   = "unknown"
)

// Claim is an upstream topical assertion about a deal, optionally backed
// by evidence snippet references.
type Claim struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DealID uuid.UUID `gorm:"type:uuid;not null;index" json:"deal_id"`

	Category   string  `gorm:"column:category;not null;index" json:"category"`
	Text       string  `gorm:"column:text" json:"text"`
	Confidence float64 `gorm:"column:confidence" json:"confidence"`

	// EvidenceRefs is a JSON array of evidence_snippet IDs.
	EvidenceRefs datatypes.JSON `gorm:"column:evidence_refs;type:jsonb" json:"evidence_refs"`

	// Optional accountability inputs from the upstream analysis pass.
	CoverageStatus string `gorm:"column:coverage_status" json:"coverage_status,omitempty"`
	SupportValue   string `gorm:"column:support_value" json:"support_value,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Claim) TableName() string { return "claim" }

func (c *Claim) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
