package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Price is one currency price of a variant.
type Price struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;index" json:"variant_id"`
	Variant   *Variant  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariantID;references:ID" json:"variant,omitempty"`
	Amount    float64   `gorm:"column:amount;not null;default:0" json:"amount"`
	Currency  string    `gorm:"column:currency;not null;default:USD" json:"currency"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Price) TableName() string { return "prices" }

func (p *Price) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
