package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse describes one failed validation rule.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

// RegisterRule installs a custom validation tag. Packages register their
// domain rules (e.g. expense categories) from init, so a bad registration is
// a programming error and panics rather than leaving the tag silently unbound.
func RegisterRule(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: failed to register rule %q: %v", tag, err))
	}
}

// ValidateStruct runs the struct tags and returns one entry per failed field.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
