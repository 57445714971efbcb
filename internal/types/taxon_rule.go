package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxonRule is one declarative membership predicate on an automatic taxon.
// Type and MatchPolicy vocabularies live in internal/rules. Any mutation of
// a rule marks the owning taxon for product regeneration.
type TaxonRule struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TaxonID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"taxon_id"`
	Taxon        *Taxon         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaxonID;references:ID" json:"taxon,omitempty"`
	Type         string         `gorm:"column:type;not null" json:"type"`
	Value        string         `gorm:"column:value;not null" json:"value"`
	MatchPolicy  string         `gorm:"column:match_policy;not null" json:"match_policy"`
	PropertyName *string        `gorm:"column:property_name" json:"property_name,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TaxonRule) TableName() string { return "taxon_rules" }

func (r *TaxonRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SameShape reports whether two rules express the identical predicate.
// Duplicate shapes on one taxon are rejected.
func (r *TaxonRule) SameShape(other *TaxonRule) bool {
	if other == nil {
		return false
	}
	if r.Type != other.Type || r.Value != other.Value || r.MatchPolicy != other.MatchPolicy {
		return false
	}
	rp, op := "", ""
	if r.PropertyName != nil {
		rp = *r.PropertyName
	}
	if other.PropertyName != nil {
		op = *other.PropertyName
	}
	return rp == op
}
