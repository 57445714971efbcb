// Package events carries the typed domain events crossing aggregate
// boundaries: structural taxon changes and the regeneration trigger for
// automatic classification. Producers append events to an Outbox during a
// command; the outbox publishes to a Bus only after the surrounding
// transaction commits. Consumers must be idempotent — delivery is
// at-least-once.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	NameTaxonCreated       = "taxon.created"
	NameTaxonUpdated       = "taxon.updated"
	NameTaxonMoved         = "taxon.moved"
	NameTaxonDeleted       = "taxon.deleted"
	NameRegenerateProducts = "taxon.regenerate_products"
	NameProductsChanged    = "catalog.products_changed"
)

type Event interface {
	EventName() string
}

type TaxonCreated struct {
	TaxonID    uuid.UUID `json:"taxon_id"`
	TaxonomyID uuid.UUID `json:"taxonomy_id"`
}

func (TaxonCreated) EventName() string { return NameTaxonCreated }

type TaxonUpdated struct {
	TaxonID                   uuid.UUID `json:"taxon_id"`
	TaxonomyID                uuid.UUID `json:"taxonomy_id"`
	NameOrPresentationChanged bool      `json:"name_or_presentation_changed"`
}

func (TaxonUpdated) EventName() string { return NameTaxonUpdated }

type TaxonMoved struct {
	TaxonID     uuid.UUID  `json:"taxon_id"`
	TaxonomyID  uuid.UUID  `json:"taxonomy_id"`
	OldParentID *uuid.UUID `json:"old_parent_id,omitempty"`
	NewParentID *uuid.UUID `json:"new_parent_id,omitempty"`
	NewIndex    int        `json:"new_index"`
}

func (TaxonMoved) EventName() string { return NameTaxonMoved }

type TaxonDeleted struct {
	TaxonID    uuid.UUID `json:"taxon_id"`
	TaxonomyID uuid.UUID `json:"taxonomy_id"`
}

func (TaxonDeleted) EventName() string { return NameTaxonDeleted }

// RegenerateProducts is the sole trigger for rule-driven classification
// regeneration. Exactly one asynchronous handler consumes it.
type RegenerateProducts struct {
	TaxonID uuid.UUID `json:"taxon_id"`
}

func (RegenerateProducts) EventName() string { return NameRegenerateProducts }

// ProductsChanged flags products whose membership changed so downstream
// consumers (search index, caches) can refresh them.
type ProductsChanged struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

func (ProductsChanged) EventName() string { return NameProductsChanged }

// Envelope is the wire form used by cross-process buses.
type Envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

func Wrap(ev Event) (Envelope, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Name: ev.EventName(), Payload: raw}, nil
}

func (e Envelope) Decode() (Event, error) {
	switch e.Name {
	case NameTaxonCreated:
		var ev TaxonCreated
		return ev, json.Unmarshal(e.Payload, &ev)
	case NameTaxonUpdated:
		var ev TaxonUpdated
		return ev, json.Unmarshal(e.Payload, &ev)
	case NameTaxonMoved:
		var ev TaxonMoved
		return ev, json.Unmarshal(e.Payload, &ev)
	case NameTaxonDeleted:
		var ev TaxonDeleted
		return ev, json.Unmarshal(e.Payload, &ev)
	case NameRegenerateProducts:
		var ev RegenerateProducts
		return ev, json.Unmarshal(e.Payload, &ev)
	case NameProductsChanged:
		var ev ProductsChanged
		return ev, json.Unmarshal(e.Payload, &ev)
	default:
		return nil, fmt.Errorf("unknown event %q", e.Name)
	}
}
