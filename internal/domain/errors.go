package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for errors.Is() checking. Every business rule unwraps to
// exactly one of the first four kinds.
var (
	ErrValidation = errors.New("validation error")
	ErrInvariant  = errors.New("invariant violation")
	ErrNotFound   = errors.New("not found")
	ErrNoChanges  = errors.New("no changes")

	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// MsgRequired is the validation message for mandatory fields.
const MsgRequired = "is required"

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Rule identifies a single business rule. Rules are declared as package-level
// sentinels so callers can match a failure with errors.Is(err, pkg.ErrRule);
// the rule itself unwraps to its kind (ErrValidation, ErrInvariant, ...).
type Rule struct {
	name string
	kind error
}

// NewRule declares a rule of the given kind.
func NewRule(kind error, name string) *Rule {
	return &Rule{name: name, kind: kind}
}

// Name returns the stable rule identifier, e.g. "InactiveMember".
func (r *Rule) Name() string { return r.name }

func (r *Rule) Error() string { return r.name }

func (r *Rule) Unwrap() error { return r.kind }

// Violation returns a failure of this rule carrying a human-readable message.
func (r *Rule) Violation(msg string) error {
	return &RuleError{Rule: r, Message: msg}
}

// Violationf is Violation with fmt.Sprintf formatting.
func (r *Rule) Violationf(format string, args ...any) error {
	return &RuleError{Rule: r, Message: fmt.Sprintf(format, args...)}
}

// RuleError is a business-rule failure. Error returns only the message so it
// can be rendered to end users as-is.
type RuleError struct {
	Rule    *Rule
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func (e *RuleError) Unwrap() error { return e.Rule }

// RuleName returns the name of the rule behind err, or "" when err is not a
// business-rule failure.
func RuleName(err error) string {
	var rerr *RuleError
	if errors.As(err, &rerr) && rerr.Rule != nil {
		return rerr.Rule.name
	}
	return ""
}
