package common

import (
	"fmt"
	"sort"
	"strings"
)

type ValidationError struct {
	Errors map[string]string
}

// Error joins every violated rule so the caller sees the full list at once,
// not just the first failure.
func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}

	return "validation errors: " + strings.Join(msgs, "; ")
}

type Validator struct {
	Errors   map[string]string
	Warnings map[string]string
}

func NewValidator() *Validator {
	return &Validator{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) AddWarning(field, message string) {
	if _, ok := v.Warnings[field]; !ok {
		v.Warnings[field] = message
	}
}

// Warn records an advisory that never fails validation.
func (v *Validator) Warn(ok bool, field, message string) {
	if !ok {
		v.AddWarning(field, message)
	}
}

func (v *Validator) CheckStringLength(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}

// PermittedValue reports whether value is a member of the permitted list.
func PermittedValue[T comparable](value T, permitted ...T) bool {
	for _, p := range permitted {
		if value == p {
			return true
		}
	}
	return false
}

func (v *Validator) ValidationError() error {
	return ValidationError{Errors: v.Errors}
}
