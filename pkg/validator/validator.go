// Package validator wraps go-playground/validator for DTO validation.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

var validate = validator.New()

func init() {
	// uuid_required rejects the zero UUID on required id fields.
	_ = validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

// ValidateStruct validates struct tags and returns the list of failures.
func ValidateStruct(data any) []FieldError {
	return FieldErrors(validate.Struct(data))
}

// FieldErrors converts a validation error into field-level failures.
// Returns nil if err is nil, and a single generic entry if err is not a
// validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "struct", Tag: "invalid"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: fe.StructNamespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
