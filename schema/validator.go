package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with JSON-aware field naming.
// Field errors report the `json` tag name so that clients see the same
// names they sent.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator. Custom rules can be registered on the
// underlying instance through Engine.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{validate: v}
}

// Engine returns the underlying validator instance.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates a struct (or pointer to struct) and converts validator
// failures into field errors. Errors that are not field failures are returned
// as-is.
func (v *Validator) Struct(s any) ([]FieldError, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: errorMessage(fe),
			Value:   formatValue(fe.Value()),
		})
	}
	return fieldErrors, nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		v = rv.Elem().Interface()
	}
	return fmt.Sprintf("%v", v)
}

func errorMessage(fe validator.FieldError) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s%s", fe.Field(), fe.Param(), unit)
	case "lt":
		return fmt.Sprintf("%s must be less than %s%s", fe.Field(), fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s", fe.Field(), fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
