// Package schema provides the validation capability used to bind request data
// and handler results to typed Go structs.
//
// A Schema turns raw input (query values, path captures, decoded JSON bodies,
// handler results) into a validated value or a list of field errors. Textual
// sources are converted field by field; structured sources go through
// encoding/json so the struct's `json` tags define the wire names. Struct
// rules are expressed with go-playground/validator `validate` tags.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Schema validates raw data and returns the coerced value or every failure
// found.
type Schema interface {
	// Name identifies the schema in logs and error messages.
	Name() string
	// Type is the Go type produced by a successful validation.
	Type() reflect.Type
	// Validate coerces raw into the schema type. On failure the value is nil
	// and the returned slice is non-empty.
	Validate(raw any) (any, []FieldError)
}

// Option configures an Object schema.
type Option func(*objectOptions)

type objectOptions struct {
	name      string
	nullable  bool
	validator *Validator
}

// Nullable accepts a nil input and yields a nil value instead of failing.
func Nullable() Option {
	return func(o *objectOptions) { o.nullable = true }
}

// Named overrides the schema name, which defaults to the Go type name.
func Named(name string) Option {
	return func(o *objectOptions) { o.name = name }
}

// WithValidator uses v instead of the package default validator.
func WithValidator(v *Validator) Option {
	return func(o *objectOptions) { o.validator = v }
}

var defaultValidator = NewValidator()

// ObjectSchema validates input into a struct of type T.
type ObjectSchema[T any] struct {
	typ  reflect.Type
	opts objectOptions
}

// Object returns a schema for the struct type T. It panics when T is not a
// struct, which only happens for programming errors at registration time.
func Object[T any](opts ...Option) *ObjectSchema[T] {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("schema: Object requires a struct type, got %s", typ))
	}

	o := objectOptions{name: typ.Name(), validator: defaultValidator}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = typ.String()
	}
	return &ObjectSchema[T]{typ: typ, opts: o}
}

// Name returns the schema name.
func (s *ObjectSchema[T]) Name() string { return s.opts.name }

// Type returns the struct type T.
func (s *ObjectSchema[T]) Type() reflect.Type { return s.typ }

// Validate implements Schema. The returned value has type T, or is nil for a
// nil input on a nullable schema.
func (s *ObjectSchema[T]) Validate(raw any) (any, []FieldError) {
	out, ok, errs := s.Decode(raw)
	if len(errs) > 0 {
		return nil, errs
	}
	if !ok {
		return nil, nil
	}
	return out, nil
}

// Decode is the typed form of Validate. ok is false when a nullable schema
// received nil.
func (s *ObjectSchema[T]) Decode(raw any) (T, bool, []FieldError) {
	var out T

	switch data := raw.(type) {
	case nil:
		if s.opts.nullable {
			return out, false, nil
		}
		return out, false, []FieldError{{Message: "input is required"}}
	case T:
		out = data
	case *T:
		if data == nil {
			if s.opts.nullable {
				return out, false, nil
			}
			return out, false, []FieldError{{Message: "input is required"}}
		}
		out = *data
	case url.Values:
		if errs := bindText(reflect.ValueOf(&out).Elem(), data); len(errs) > 0 {
			return out, false, errs
		}
	case map[string]string:
		values := make(url.Values, len(data))
		for k, v := range data {
			values.Set(k, v)
		}
		if errs := bindText(reflect.ValueOf(&out).Elem(), values); len(errs) > 0 {
			return out, false, errs
		}
	default:
		if errs := bindStructured(reflect.ValueOf(&out).Elem(), data); len(errs) > 0 {
			return out, false, errs
		}
	}

	errs, err := s.opts.validator.Struct(&out)
	if err != nil {
		return out, false, []FieldError{{Message: err.Error()}}
	}
	if len(errs) > 0 {
		return out, false, errs
	}
	return out, true, nil
}

// bindStructured decodes each field separately so that one bad field does
// not hide the others.
func bindStructured(target reflect.Value, data any) []FieldError {
	encoded, err := json.Marshal(data)
	if err != nil {
		return []FieldError{{Message: fmt.Sprintf("input cannot be encoded: %v", err)}}
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &object); err != nil || object == nil {
		return []FieldError{{Message: "input should be a valid object"}}
	}

	var errs []FieldError
	for _, f := range fieldsOf(target.Type()) {
		rawField, ok := object[f.name]
		if !ok {
			continue
		}
		dst := target.FieldByIndex(f.index)
		if err := json.Unmarshal(rawField, dst.Addr().Interface()); err != nil {
			errs = append(errs, decodeError(f.name, rawField, err))
		}
	}
	return errs
}

func decodeError(name string, raw json.RawMessage, err error) FieldError {
	fe := FieldError{Field: name, Value: string(raw)}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			fe.Field = name + "." + typeErr.Field
		}
		fe.Message = fmt.Sprintf("%s must be %s", fe.Field, typeLabel(typeErr.Type))
		return fe
	}

	fe.Message = fmt.Sprintf("%s is invalid: %v", name, err)
	return fe
}
