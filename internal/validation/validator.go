package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with the custom tags the request
// types use registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// "notblank" rejects strings that are empty after trimming, which
	// plain "required" lets through (e.g. a tenant of "   ").
	_ = v.RegisterValidation("notblank", func(fl validatorv10.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}
