package deals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deal struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"column:name;not null" json:"name"`
	Company string    `gorm:"column:company" json:"company"`
	Stage   string    `gorm:"column:stage;not null;default:'intake'" json:"stage"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Deal) TableName() string { return "deal" }

// IDs are assigned client-side so inserts work on any dialect.
func (d *Deal) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
