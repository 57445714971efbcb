// Package query is a small generic field/operator/value filter builder over
// gorm. The rule engine compiles declarative taxon rules into Filter values
// and applies them here; nothing in this package knows about rules.
package query

import (
	"fmt"

	"gorm.io/gorm"
)

type Operator string

const (
	OpEqual          Operator = "equal"
	OpNotEqual       Operator = "not_equal"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpGreater        Operator = "greater"
	OpLess           Operator = "less"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
	OpIsNull         Operator = "is_null"
	OpIsNotNull      Operator = "is_not_null"
)

// Valid reports whether op belongs to the closed operator vocabulary.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual, OpIn, OpNotIn,
		OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

type Combine string

const (
	CombineAnd Combine = "and"
	CombineOr  Combine = "or"
)

// Filter is one field/operator/value predicate. Field names come from the
// closed rule vocabulary, never from raw input. Value may be a scalar, a
// slice (for in/not_in) or a *gorm.DB subquery.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

func (f Filter) clause() (string, []any, error) {
	switch f.Op {
	case OpEqual:
		return f.Field + " = ?", []any{f.Value}, nil
	case OpNotEqual:
		return f.Field + " <> ?", []any{f.Value}, nil
	case OpContains:
		return f.Field + " LIKE ?", []any{"%" + stringValue(f.Value) + "%"}, nil
	case OpNotContains:
		return f.Field + " NOT LIKE ?", []any{"%" + stringValue(f.Value) + "%"}, nil
	case OpStartsWith:
		return f.Field + " LIKE ?", []any{stringValue(f.Value) + "%"}, nil
	case OpEndsWith:
		return f.Field + " LIKE ?", []any{"%" + stringValue(f.Value)}, nil
	case OpGreater:
		return f.Field + " > ?", []any{f.Value}, nil
	case OpLess:
		return f.Field + " < ?", []any{f.Value}, nil
	case OpGreaterOrEqual:
		return f.Field + " >= ?", []any{f.Value}, nil
	case OpLessOrEqual:
		return f.Field + " <= ?", []any{f.Value}, nil
	case OpIn:
		if _, ok := f.Value.(*gorm.DB); ok {
			return f.Field + " IN (?)", []any{f.Value}, nil
		}
		return f.Field + " IN ?", []any{f.Value}, nil
	case OpNotIn:
		if _, ok := f.Value.(*gorm.DB); ok {
			return f.Field + " NOT IN (?)", []any{f.Value}, nil
		}
		return f.Field + " NOT IN ?", []any{f.Value}, nil
	case OpIsNull:
		return f.Field + " IS NULL", nil, nil
	case OpIsNotNull:
		return f.Field + " IS NOT NULL", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Apply composes filters onto base under the given combination mode.
// CombineAnd chains conjunctive Where clauses; CombineOr builds one grouped
// disjunction so surrounding conjuncts keep their meaning.
func Apply(base *gorm.DB, filters []Filter, mode Combine) (*gorm.DB, error) {
	if len(filters) == 0 {
		return base, nil
	}
	if mode == CombineOr {
		var group *gorm.DB
		for _, f := range filters {
			cond, args, err := f.clause()
			if err != nil {
				return nil, err
			}
			if group == nil {
				group = base.Session(&gorm.Session{NewDB: true}).Where(cond, args...)
			} else {
				group = group.Or(cond, args...)
			}
		}
		return base.Where(group), nil
	}
	q := base
	for _, f := range filters {
		cond, args, err := f.clause()
		if err != nil {
			return nil, err
		}
		q = q.Where(cond, args...)
	}
	return q, nil
}
