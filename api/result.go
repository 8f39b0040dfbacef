package api

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/gaborage/go-arcstack/schema"
)

// processResult checks a handler's return value and converts it to the
// form that is serialized. Response schema failures stop processing at once.
func processResult(endpoint string, verb Verb, value any, response schema.Schema) (any, error) {
	if isNil(value) {
		return nil, nil
	}

	if verb.bodyless() {
		if isEmpty(value) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s handlers must not return a body, got %T", ErrInvalidResult, verb.Method(), value)
	}

	if !acceptedShape(value) {
		return nil, fmt.Errorf("%w: %T is not a map, list or schema instance", ErrInvalidResult, value)
	}

	if response != nil {
		validated, errs := response.Validate(value)
		if len(errs) > 0 {
			return nil, &ReturnValidationError{
				Endpoint: endpoint,
				Verb:     verb,
				Schema:   response.Name(),
				Errors:   errs,
			}
		}
		value = validated
	}

	return Canonical(value)
}

// Canonical converts schema instances (structs) to their mapping form.
// Maps and lists are returned unchanged.
func Canonical(value any) (any, error) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return value, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	var mapping map[string]any
	if err := json.Unmarshal(encoded, &mapping); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return mapping, nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func isEmpty(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

func acceptedShape(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array, reflect.Struct:
		return true
	case reflect.Ptr:
		return rv.Type().Elem().Kind() == reflect.Struct
	default:
		return false
	}
}
