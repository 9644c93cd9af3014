package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Validator collects field errors
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator. The first error of a field wins.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns the collected errors as one error, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Fields: v.Errors}
}

// Required checks if a string is not empty
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// MinInt checks that value is at least min
func (v *Validator) MinInt(field string, value, min int64) {
	v.Check(value >= min, field, fmt.Sprintf("must be greater than or equal to %d", min))
}

// MaxInt checks that value is at most max
func (v *Validator) MaxInt(field string, value, max int64) {
	v.Check(value <= max, field, fmt.Sprintf("must be less than or equal to %d", max))
}

// Currency checks for an upper case code such as EUR or sat
func (v *Validator) Currency(field, value string) {
	ok := len(value) >= 3 && len(value) <= MaxCurrencyLength
	for _, r := range value {
		ok = ok && r <= unicode.MaxASCII && unicode.IsLetter(r)
	}
	v.Check(ok, field, "must be a currency code")
}

// Error is returned by Validator.Err.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e.Fields[f]
	}
	return strings.Join(parts, "; ")
}
