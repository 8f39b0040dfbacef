package schema

import (
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testName = "alice"
	fieldFoo = "foo"
)

type greeting struct {
	Foo   string   `json:"foo" validate:"required,max=3"`
	Count int      `json:"count,omitempty" validate:"gte=0"`
	Tags  []string `json:"tags,omitempty"`
}

type search struct {
	Query string    `json:"q" validate:"required"`
	Page  int       `json:"page"`
	Limit *int      `json:"limit"`
	Since time.Time `json:"since"`
	IDs   []int     `json:"ids"`
	Debug bool      `json:"debug"`
}

type audit struct {
	CreatedBy string `json:"created_by"`
}

type withEmbedded struct {
	audit
	Name string `json:"name"`
}

func TestObjectPanicsOnNonStruct(t *testing.T) {
	assert.Panics(t, func() { Object[string]() })
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "greeting", Object[greeting]().Name())
	assert.Equal(t, "Greeting", Object[greeting](Named("Greeting")).Name())
}

func TestValidateStructuredInput(t *testing.T) {
	s := Object[greeting]()

	tests := []struct {
		name       string
		input      any
		want       greeting
		wantFields []string
	}{
		{
			name:  "map input",
			input: map[string]any{"foo": "bar", "count": 2},
			want:  greeting{Foo: "bar", Count: 2},
		},
		{
			name:  "unknown keys are ignored",
			input: map[string]any{"foo": "bar", "extra": true},
			want:  greeting{Foo: "bar"},
		},
		{
			name:  "struct value",
			input: greeting{Foo: "abc"},
			want:  greeting{Foo: "abc"},
		},
		{
			name:  "struct pointer",
			input: &greeting{Foo: "abc"},
			want:  greeting{Foo: "abc"},
		},
		{
			name:       "wrong types are reported per field",
			input:      map[string]any{"foo": 1, "count": "many"},
			wantFields: []string{"foo", "count"},
		},
		{
			name:       "rule violation",
			input:      map[string]any{"foo": "something_long"},
			wantFields: []string{"foo"},
		},
		{
			name:       "missing required",
			input:      map[string]any{},
			wantFields: []string{"foo"},
		},
		{
			name:       "list input",
			input:      []any{1, 2},
			wantFields: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := s.Validate(tt.input)
			if tt.wantFields != nil {
				require.Len(t, errs, len(tt.wantFields))
				for i, field := range tt.wantFields {
					assert.Equal(t, field, errs[i].Field)
					assert.NotEmpty(t, errs[i].Message)
				}
				assert.Nil(t, got)
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateErrorMessages(t *testing.T) {
	_, errs := Object[greeting]().Validate(map[string]any{"foo": 1})
	require.Len(t, errs, 1)
	assert.Equal(t, "foo must be a string", errs[0].Message)
	assert.Equal(t, "1", errs[0].Value)

	_, errs = Object[greeting]().Validate(map[string]any{"foo": "toolong"})
	require.Len(t, errs, 1)
	assert.Equal(t, "foo must be at most 3 characters", errs[0].Message)
	assert.Equal(t, "toolong", errs[0].Value)
}

func TestValidateTextInput(t *testing.T) {
	s := Object[search]()

	values := url.Values{
		"q":     {"golang", "ignored"},
		"page":  {"2"},
		"limit": {"10"},
		"since": {"2024-05-01"},
		"ids":   {"1", "2", "3"},
		"debug": {"true"},
	}

	got, errs := s.Validate(values)
	require.Empty(t, errs)

	result := got.(search)
	assert.Equal(t, "golang", result.Query)
	assert.Equal(t, 2, result.Page)
	require.NotNil(t, result.Limit)
	assert.Equal(t, 10, *result.Limit)
	assert.Equal(t, 2024, result.Since.Year())
	assert.Equal(t, []int{1, 2, 3}, result.IDs)
	assert.True(t, result.Debug)
}

func TestValidateTextInputAggregatesErrors(t *testing.T) {
	_, errs := Object[search]().Validate(url.Values{
		"page":  {"two"},
		"ids":   {"1", "x"},
		"debug": {"maybe"},
	})

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"page", "ids", "debug"}, fields)
}

func TestValidateRequiredAfterTextBinding(t *testing.T) {
	_, errs := Object[search]().Validate(url.Values{"page": {"1"}})
	require.Len(t, errs, 1)
	assert.Equal(t, "q", errs[0].Field)
	assert.Equal(t, "q is required", errs[0].Message)
}

func TestValidatePathCaptures(t *testing.T) {
	type who struct {
		Who string `json:"who" validate:"required"`
	}

	got, errs := Object[who]().Validate(map[string]string{"who": testName})
	require.Empty(t, errs)
	assert.Equal(t, who{Who: testName}, got)
}

func TestValidateEmbeddedFields(t *testing.T) {
	got, errs := Object[withEmbedded]().Validate(map[string]any{"name": "n", "created_by": testName})
	require.Empty(t, errs)
	assert.Equal(t, testName, got.(withEmbedded).CreatedBy)
}

func TestValidateNil(t *testing.T) {
	_, errs := Object[greeting]().Validate(nil)
	require.Len(t, errs, 1)

	got, errs := Object[greeting](Nullable()).Validate(nil)
	assert.Empty(t, errs)
	assert.Nil(t, got)

	var ptr *greeting
	got, errs = Object[greeting](Nullable()).Validate(ptr)
	assert.Empty(t, errs)
	assert.Nil(t, got)
}

func TestDecodeTyped(t *testing.T) {
	out, ok, errs := Object[greeting]().Decode(map[string]any{fieldFoo: "hey"})
	require.Empty(t, errs)
	assert.True(t, ok)
	assert.Equal(t, "hey", out.Foo)
}

func TestCustomValidator(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Engine().RegisterValidation("shout", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "HEY"
	}))

	type loud struct {
		Word string `json:"word" validate:"shout"`
	}

	_, errs := Object[loud](WithValidator(v)).Validate(map[string]any{"word": "hey"})
	require.Len(t, errs, 1)
	assert.Equal(t, "word failed shout validation", errs[0].Message)
}
