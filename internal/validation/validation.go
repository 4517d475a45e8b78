// Package validation holds the struct-tag validator shared by the record
// parse boundaries.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/go-playground/validator/v10"
)

// Identifier patterns.
var (
	StudentIDPattern   = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{3}$`)
	CompanyIDPattern   = regexp.MustCompile(`^COMP-\d{3}$`)
	PlacementIDPattern = regexp.MustCompile(`^PL-\d{3}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "student_id", StudentIDPattern)
	mustRegister(v, "company_id", CompanyIDPattern)
	mustRegister(v, "placement_id", PlacementIDPattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Struct validates s and converts the first failure into a
// *repository.ValidationError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &repository.ValidationError{Field: fe.Field(), Reason: describe(fe)}
	}
	return &repository.ValidationError{Reason: err.Error()}
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + e.Param()
	case "numeric", "number":
		return "must be a number"
	case "student_id":
		return "must look like XX-YYYY-NNN"
	case "company_id":
		return "must look like COMP-###"
	case "placement_id":
		return "must look like PL-###"
	case "datetime":
		return "must be a date formatted " + e.Param()
	default:
		return "failed " + e.Tag() + " check"
	}
}
