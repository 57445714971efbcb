package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes failure semantics across the catalog domain.
type ErrorCode string

const (
	CodeValidation ErrorCode = "validation"
	CodeNotFound   ErrorCode = "not_found"
	CodeConflict   ErrorCode = "conflict"
	CodeInternal   ErrorCode = "internal"
)

// Reason constants name the individual failure conditions so callers can
// branch on them without string matching on messages.
const (
	ReasonNameRequired           = "name_required"
	ReasonHasTaxons              = "has_taxons"
	ReasonSelfParenting          = "self_parenting"
	ReasonParentTaxonomyMismatch = "parent_taxonomy_mismatch"
	ReasonHasChildren            = "has_children"
	ReasonRootConflict           = "root_conflict"
	ReasonNoRootTaxon            = "no_root_taxon"
	ReasonInvalidParent          = "invalid_parent"
	ReasonCycleDetected          = "cycle_detected"
	ReasonRootUndeletable        = "root_undeletable"
	ReasonRuleRequired           = "rule_required"
	ReasonRuleTaxonMismatch      = "rule_taxon_mismatch"
	ReasonInvalidRuleType        = "invalid_rule_type"
	ReasonInvalidMatchPolicy     = "invalid_match_policy"
	ReasonPropertyNameRequired   = "property_name_required"
	ReasonDuplicateRule          = "duplicate_rule"
	ReasonDuplicateName          = "duplicate_name"
)

// Error is the canonical domain error wrapper. Validation, conflict and
// not-found conditions are returned as values of this type, never panicked.
type Error struct {
	Code   ErrorCode
	Reason string
	Op     string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	reason := strings.TrimSpace(e.Reason)
	switch {
	case op != "" && reason != "":
		return fmt.Sprintf("%s: %s (%s)", op, reason, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case reason != "":
		return fmt.Sprintf("%s (%s)", reason, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, reason string, cause error) error {
	return &Error{
		Code:   code,
		Op:     strings.TrimSpace(op),
		Reason: strings.TrimSpace(reason),
		Cause:  cause,
	}
}

func ValidationError(op, reason string) error {
	return NewError(CodeValidation, op, reason, nil)
}

func ConflictError(op, reason string) error {
	return NewError(CodeConflict, op, reason, nil)
}

func NotFoundError(op, reason string) error {
	return NewError(CodeNotFound, op, reason, nil)
}

// InternalError wraps an unexpected failure so the transport layer renders
// it as a 5xx without leaking the cause classification.
func InternalError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return NewError(CodeInternal, op, cause.Error(), cause)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return false
	}
	return domErr.Code == code
}

// ReasonOf extracts the named reason when available.
func ReasonOf(err error) string {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return ""
	}
	return domErr.Reason
}

// CodeOf extracts the domain error code, defaulting to internal.
func CodeOf(err error) ErrorCode {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return CodeInternal
	}
	return domErr.Code
}
