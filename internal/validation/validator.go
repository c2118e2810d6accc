// Package validation checks request payloads with validator/v10 and reports
// failures as domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/fabricaapp/fabrica-server/internal/errors"
)

// MsgInvalidRequest is the message of a failed payload validation. Field
// messages are in the error details.
const MsgInvalidRequest = "Los datos enviados no son válidos."

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator. Besides the built-in tags it knows "notblank"
// (non-empty after trimming spaces).
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(field.String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error whose
// details map each failing field to a message.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails(MsgInvalidRequest, fieldErrors)
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read as "artisan_ids[0]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "es obligatorio"
	case "min":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Array {
			return fmt.Sprintf("debe tener al menos %s elementos", e.Param())
		}
		return fmt.Sprintf("debe tener al menos %s caracteres", e.Param())
	case "max":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Array {
			return fmt.Sprintf("no puede tener más de %s elementos", e.Param())
		}
		return fmt.Sprintf("no puede superar %s caracteres", e.Param())
	case "oneof":
		return "debe ser uno de: " + e.Param()
	case "gte":
		return "debe ser mayor o igual que " + e.Param()
	case "lte":
		return "debe ser menor o igual que " + e.Param()
	default:
		return "no es válido"
	}
}
