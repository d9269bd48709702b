// Package v1 holds request validation shared by the v1 route handlers.
package v1

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the provided value against its declared `validate` tags
// and returns a single formatted error combining every failed field.
func Validate(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var msgs []string
		for _, verror := range verrors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", verror.Field(), verror.Tag()))
		}

		return fmt.Errorf("validation failed: %s", strings.Join(msgs, ", "))
	}

	return nil
}
