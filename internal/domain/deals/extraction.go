package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Extraction is one OCR/structured parse attempt for a VisualAsset.
// Multiple attempts may exist per asset; readers use the most recent.
type Extraction struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	VisualAssetID uuid.UUID    `gorm:"type:uuid;not null;index" json:"visual_asset_id"`
	VisualAsset   *VisualAsset `gorm:"constraint:OnDelete:CASCADE;foreignKey:VisualAssetID;references:ID" json:"visual_asset,omitempty"`

	AttemptedAt       time.Time      `gorm:"column:attempted_at;not null;index" json:"attempted_at"`
	OCRText           string         `gorm:"column:ocr_text" json:"ocr_text"`
	StructuredContent datatypes.JSON `gorm:"column:structured_content;type:jsonb" json:"structured_content"`
	Summary           string         `gorm:"column:summary" json:"summary"`
	Units             int            `gorm:"column:units" json:"units"`
	Confidence        float64        `gorm:"column:confidence" json:"confidence"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Extraction) TableName() string { return "extraction" }

func (e *Extraction) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.AttemptedAt.IsZero() {
		e.AttemptedAt = time.Now().UTC()
	}
	return nil
}
