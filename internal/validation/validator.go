// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton. Top-level operations validate their
// inputs here and fail fast before any catalog work is attempted.
//
//	type cycleInput struct {
//	    Owner     string `validate:"required"`
//	    Library   string `validate:"required"`
//	    MaxPoints int    `validate:"min=1"`
//	}
//
//	if err := validation.ValidateStruct(&in); err != nil { return err }
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InputError is a collection of field validation failures on an operation's
// input. It is a terminal error: no partial work was attempted.
type InputError struct {
	fields []string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	return "invalid input: " + strings.Join(e.fields, "; ")
}

// Fields returns the per-field failure messages.
func (e *InputError) Fields() []string {
	return e.fields
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using the singleton validator. Returns
// nil on success, or an *InputError describing every failed field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &InputError{fields: []string{err.Error()}}
	}

	fields := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = translateError(fe)
	}
	return &InputError{fields: fields}
}

// translateError converts a validator.FieldError to a readable message.
func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
