package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocTypePDF   = "pdf"
	DocTypePPTX  = "pptx"
	DocTypeDOCX  = "docx"
	DocTypeXLSX  = "xlsx"
	DocTypeImage = "image"
)

type DealDocument struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DealID uuid.UUID `gorm:"type:uuid;not null;index" json:"deal_id"`
	Deal   *Deal     `gorm:"constraint:OnDelete:CASCADE;foreignKey:DealID;references:ID" json:"deal,omitempty"`

	Title      string     `gorm:"column:title;not null" json:"title"`
	DocType    string     `gorm:"column:doc_type;not null" json:"doc_type"`
	PageCount  int        `gorm:"column:page_count" json:"page_count"`
	UploadedAt *time.Time `gorm:"column:uploaded_at" json:"uploaded_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DealDocument) TableName() string { return "deal_document" }

func (d *DealDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
