// Package validation runs struct-tag rules and reduces the result to a single
// human-readable message for the first failing field.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/tweeter-be/internal/apperr"
)

// Messages maps "Field.tag" to the message reported when that rule fails.
type Messages map[string]string

// Validator wraps a go-playground validator with a message table.
type Validator struct {
	v        *validator.Validate
	messages Messages
}

// New returns a Validator. Rules without an entry in messages fall back to a generic message.
func New(messages Messages) *Validator {
	return &Validator{
		v:        validator.New(validator.WithRequiredStructEnabled()),
		messages: messages,
	}
}

// Check validates s. Fields are checked in declaration order and only the
// first violation is reported, as an apperr.Validation error.
func (v *Validator) Check(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.Internal, "validation failed", err)
	}

	first := fieldErrs[0]
	if msg, ok := v.messages[first.Field()+"."+first.Tag()]; ok {
		return apperr.New(apperr.Validation, msg)
	}
	return apperr.New(apperr.Validation, fmt.Sprintf("%s is invalid", first.Field()))
}
