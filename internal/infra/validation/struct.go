// Package validation adapts go-playground/validator to the bus middleware.
package validation

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"

	"staycal/internal/app/middleware"
)

// StructValidator checks `validate` tags on commands and queries. Messages
// that are not structs pass through.
type StructValidator struct {
	v *validator.Validate
}

func New() StructValidator {
	return StructValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (s StructValidator) Validate(ctx context.Context, message any) error {
	rv := reflect.ValueOf(message)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return s.v.StructCtx(ctx, message)
}

var _ middleware.Validator = StructValidator{}
