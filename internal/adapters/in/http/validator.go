package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// requestValidator plugs go-playground/validator into echo's Context.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// fieldErrors maps each failed field to the tag that rejected it.
func fieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	result := make(map[string]string, len(ve))
	for _, fe := range ve {
		result[fe.Namespace()] = fe.Tag()
	}
	return result
}
