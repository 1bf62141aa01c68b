package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvidenceSnippet is short supporting text attached to a document. A nil
// VisualAssetID means the snippet is free-floating text evidence rather
// than node-anchored.
type EvidenceSnippet struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"document_id"`
	VisualAssetID *uuid.UUID `gorm:"type:uuid;index" json:"visual_asset_id,omitempty"`

	Text string `gorm:"column:text;not null" json:"text"`
	Kind string `gorm:"column:kind" json:"kind"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (EvidenceSnippet) TableName() string { return "evidence_snippet" }

func (e *EvidenceSnippet) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
