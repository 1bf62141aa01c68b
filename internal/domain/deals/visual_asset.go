package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssetKindVisionPage  = "vision_page"
	AssetKindSlide       = "slide"
	AssetKindWordSection = "word_section"
	AssetKindSheetBlock  = "sheet_block"
)

// VisualAsset is one atomic extracted artifact: a rendered page image with
// its OCR pass, or one structured sub-object (slide, section, sheet block)
// from a native office format. Rows are created once by the extraction
// workers; the only mutation path afterwards is the promotion job updating
// QualityFlags in place.
type VisualAsset struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID     `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *DealDocument `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	PageIndex     int    `gorm:"column:page_index;not null;default:0;index" json:"page_index"`
	PositionIndex int    `gorm:"column:position_index;not null;default:0" json:"position_index"`
	AssetKind     string `gorm:"column:asset_kind;not null;index" json:"asset_kind"`

	ExtractorVersion string         `gorm:"column:extractor_version" json:"extractor_version"`
	Confidence       float64        `gorm:"column:confidence" json:"confidence"`
	ImageURL         string         `gorm:"column:image_url" json:"image_url,omitempty"`
	BoundingBox      datatypes.JSON `gorm:"column:bounding_box;type:jsonb" json:"bounding_box,omitempty"`
	QualityFlags     datatypes.JSON `gorm:"column:quality_flags;type:jsonb" json:"quality_flags"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VisualAsset) TableName() string { return "visual_asset" }

func (v *VisualAsset) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
