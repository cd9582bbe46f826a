// Package validate wraps go-playground/validator and reports the first failed
// field as a domain.ValidationError named after its json tag.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"koperasi-storefront/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("dorm", func(fl validator.FieldLevel) bool {
		return domain.IsDorm(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCategory(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Struct validates s and converts the first failure into a ValidationError.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "required_if":
		return "is required for this delivery method"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "dorm":
		return "must be one of " + strings.Join(domain.Dorms, ", ")
	case "category":
		return "unknown category"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}
