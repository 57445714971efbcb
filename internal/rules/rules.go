// Package rules defines the closed vocabulary of taxon rule types and
// translates simple rules into generic query filters. Collection rules
// (variant price, variant sku, cross-taxon membership) never compile into a
// plain filter; each has bespoke query logic in the rule engine service.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/query"
	"github.com/resys-shop/backend/internal/types"
)

type Type string

const (
	TypeProductName        Type = "product_name"
	TypeProductSKU         Type = "product_sku"
	TypeProductDescription Type = "product_description"
	TypeProductPrice       Type = "product_price"
	TypeProductWeight      Type = "product_weight"
	TypeProductAvailable   Type = "product_available"
	TypeProductArchived    Type = "product_archived"
	TypeProductProperty    Type = "product_property"
	TypeVariantPrice       Type = "variant_price"
	TypeVariantSKU         Type = "variant_sku"
	TypeTaxon              Type = "taxon"
)

// ErrNotSimple marks a rule that cannot compile into a single scalar filter
// and must be routed to the collection path.
var ErrNotSimple = errors.New("rule has no simple filter form")

// Valid reports whether t belongs to the closed type vocabulary.
func (t Type) Valid() bool {
	switch t {
	case TypeProductName, TypeProductSKU, TypeProductDescription, TypeProductPrice,
		TypeProductWeight, TypeProductAvailable, TypeProductArchived,
		TypeProductProperty, TypeVariantPrice, TypeVariantSKU, TypeTaxon:
		return true
	}
	return false
}

// IsCollection reports whether t requires a relational join to evaluate.
func (t Type) IsCollection() bool {
	switch t {
	case TypeVariantPrice, TypeVariantSKU, TypeTaxon:
		return true
	}
	return false
}

// RequiresPropertyName reports whether rules of this type must carry a
// non-empty PropertyName.
func (t Type) RequiresPropertyName() bool {
	return t == TypeProductProperty
}

// fieldFor maps scalar rule types onto product columns. Property and
// collection types have no scalar field and fall out of this map.
func fieldFor(t Type) (string, bool) {
	switch t {
	case TypeProductName:
		return "name", true
	case TypeProductSKU:
		return "master_sku", true
	case TypeProductDescription:
		return "description", true
	case TypeProductPrice:
		return "master_price", true
	case TypeProductWeight:
		return "weight", true
	case TypeProductAvailable:
		return "available", true
	case TypeProductArchived:
		return "archived", true
	}
	return "", false
}

func (t Type) isNumeric() bool {
	return t == TypeProductPrice || t == TypeProductWeight || t == TypeVariantPrice
}

func (t Type) isBool() bool {
	return t == TypeProductAvailable || t == TypeProductArchived
}

// ParseValue coerces the string-encoded comparand into the operand shape
// the operator expects: slices for in/not_in, nil for null checks, floats
// and bools for numeric/flag types.
func ParseValue(t Type, op query.Operator, raw string) (any, error) {
	if op == query.OpIsNull || op == query.OpIsNotNull {
		return nil, nil
	}
	raw = strings.TrimSpace(raw)
	if op == query.OpIn || op == query.OpNotIn {
		parts := splitList(raw)
		if t.isNumeric() {
			out := make([]float64, 0, len(parts))
			for _, p := range parts {
				f, err := strconv.ParseFloat(p, 64)
				if err != nil {
					return nil, fmt.Errorf("rule value %q: %w", p, err)
				}
				out = append(out, f)
			}
			return out, nil
		}
		if t == TypeTaxon {
			out := make([]uuid.UUID, 0, len(parts))
			for _, p := range parts {
				id, err := uuid.Parse(p)
				if err != nil {
					return nil, fmt.Errorf("rule value %q: %w", p, err)
				}
				out = append(out, id)
			}
			return out, nil
		}
		return parts, nil
	}
	switch {
	case t.isNumeric():
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("rule value %q: %w", raw, err)
		}
		return f, nil
	case t.isBool():
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("rule value %q: %w", raw, err)
		}
		return b, nil
	case t == TypeTaxon:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("rule value %q: %w", raw, err)
		}
		return id, nil
	default:
		return raw, nil
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CompileSimple translates a scalar rule into one generic filter. Property
// and collection rules return ErrNotSimple; the mapping is total otherwise.
func CompileSimple(r *types.TaxonRule) (query.Filter, error) {
	t := Type(r.Type)
	field, ok := fieldFor(t)
	if !ok {
		return query.Filter{}, fmt.Errorf("rule type %q: %w", r.Type, ErrNotSimple)
	}
	op := query.Operator(r.MatchPolicy)
	if !op.Valid() {
		return query.Filter{}, fmt.Errorf("unsupported rule operator %q", r.MatchPolicy)
	}
	value, err := ParseValue(t, op, r.Value)
	if err != nil {
		return query.Filter{}, err
	}
	return query.Filter{Field: field, Op: op, Value: value}, nil
}

// ValueFilter compiles the operator/value half of a rule against an
// arbitrary column. Used by the property and collection query builders.
func ValueFilter(r *types.TaxonRule, field string) (query.Filter, error) {
	op := query.Operator(r.MatchPolicy)
	if !op.Valid() {
		return query.Filter{}, fmt.Errorf("unsupported rule operator %q", r.MatchPolicy)
	}
	value, err := ParseValue(Type(r.Type), op, r.Value)
	if err != nil {
		return query.Filter{}, err
	}
	return query.Filter{Field: field, Op: op, Value: value}, nil
}

// Validate checks a rule's vocabulary fields. Returned errors are plain
// sentinels; the taxon service wraps them into typed domain errors.
var (
	ErrInvalidType         = errors.New("invalid rule type")
	ErrInvalidMatchPolicy  = errors.New("invalid rule match policy")
	ErrPropertyNameMissing = errors.New("property name required")
)

func Validate(r *types.TaxonRule) error {
	t := Type(r.Type)
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if !query.Operator(r.MatchPolicy).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMatchPolicy, r.MatchPolicy)
	}
	if t.RequiresPropertyName() && (r.PropertyName == nil || strings.TrimSpace(*r.PropertyName) == "") {
		return ErrPropertyNameMissing
	}
	return nil
}
