package schema

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

type fieldInfo struct {
	name  string
	index []int
}

var fieldCache sync.Map // reflect.Type -> []fieldInfo

// fieldsOf lists the exported, JSON-visible fields of a struct type,
// including fields promoted from embedded structs.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous && f.Tag.Get("json") == "" {
			continue
		}
		if throughPointer(t, f.Index) {
			continue
		}
		name := jsonFieldName(f)
		if name == "" {
			continue
		}
		fields = append(fields, fieldInfo{name: name, index: f.Index})
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]fieldInfo)
}

func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Ptr {
			return true
		}
		t = f.Type
	}
	return false
}

// bindText fills target from string values. Slice fields take every value for
// their key; all other fields take the first one.
func bindText(target reflect.Value, values url.Values) []FieldError {
	var errs []FieldError
	for _, f := range fieldsOf(target.Type()) {
		raw, ok := values[f.name]
		if !ok || len(raw) == 0 {
			continue
		}

		field := target.FieldByIndex(f.index)
		var err error
		if field.Kind() == reflect.Slice && field.Type().Elem().Kind() != reflect.Uint8 {
			err = setSliceValue(field, raw)
		} else {
			err = setFieldValue(field, raw[0])
		}
		if err != nil {
			errs = append(errs, FieldError{
				Field:   f.name,
				Message: fmt.Sprintf("%s must be %s", f.name, typeLabel(field.Type())),
				Value:   strings.Join(raw, ","),
			})
		}
	}
	return errs
}

type valueSetter func(reflect.Value, string) error

var (
	timeType = reflect.TypeOf(time.Time{})

	kindSetters = map[reflect.Kind]valueSetter{
		reflect.String:  setStringValue,
		reflect.Int:     setSignedIntValue,
		reflect.Int8:    setSignedIntValue,
		reflect.Int16:   setSignedIntValue,
		reflect.Int32:   setSignedIntValue,
		reflect.Int64:   setSignedIntValue,
		reflect.Uint:    setUnsignedIntValue,
		reflect.Uint8:   setUnsignedIntValue,
		reflect.Uint16:  setUnsignedIntValue,
		reflect.Uint32:  setUnsignedIntValue,
		reflect.Uint64:  setUnsignedIntValue,
		reflect.Float32: setFloatValue,
		reflect.Float64: setFloatValue,
		reflect.Bool:    setBoolValue,
	}
)

func setSliceValue(field reflect.Value, raw []string) error {
	slice := reflect.MakeSlice(field.Type(), len(raw), len(raw))
	for i, item := range raw {
		if err := setFieldValue(slice.Index(i), item); err != nil {
			return err
		}
	}
	field.Set(slice)
	return nil
}

// setFieldValue converts a single string into the field's type.
func setFieldValue(field reflect.Value, value string) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setFieldValue(field.Elem(), value)
	}

	if field.Type() == timeType {
		t, err := parseTime(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	if setter, ok := kindSetters[field.Kind()]; ok {
		return setter(field, value)
	}
	if field.Kind() == reflect.Interface && field.NumMethod() == 0 {
		field.Set(reflect.ValueOf(value))
		return nil
	}
	return fmt.Errorf("unsupported field type: %s", field.Type())
}

func setStringValue(field reflect.Value, value string) error {
	field.SetString(value)
	return nil
}

func setSignedIntValue(field reflect.Value, value string) error {
	v, err := strconv.ParseInt(value, 10, field.Type().Bits())
	if err != nil {
		return err
	}
	field.SetInt(v)
	return nil
}

func setUnsignedIntValue(field reflect.Value, value string) error {
	v, err := strconv.ParseUint(value, 10, field.Type().Bits())
	if err != nil {
		return err
	}
	field.SetUint(v)
	return nil
}

func setFloatValue(field reflect.Value, value string) error {
	v, err := strconv.ParseFloat(value, field.Type().Bits())
	if err != nil {
		return err
	}
	field.SetFloat(v)
	return nil
}

func setBoolValue(field reflect.Value, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	field.SetBool(v)
	return nil
}

func parseTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		time.DateTime,
		time.DateOnly,
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// typeLabel names a Go type the way a JSON client thinks about it.
func typeLabel(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return "a valid timestamp"
	}

	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "a list of " + strings.TrimPrefix(strings.TrimPrefix(typeLabel(t.Elem()), "a "), "an ")
	case reflect.Map, reflect.Struct:
		return "an object"
	default:
		return "a valid " + t.String()
	}
}
