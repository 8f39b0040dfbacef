package api

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/gaborage/go-arcstack/internal/reflection"
	"github.com/gaborage/go-arcstack/logger"
)

// Built-in option names understood by every endpoint.
const (
	OptionLoginRequired = "login_required"
	OptionCSRFExempt    = "csrf_exempt"
)

// reservedOptions name per-call state and can never be overridden.
var reservedOptions = []string{"request", "response", "args", "kwargs", "signature", "http_method"}

// Options are construction-time overrides applied to every handler
// instance of an endpoint.
type Options map[string]any

// Descriptor is the immutable description of an endpoint.
type Descriptor struct {
	Name          string
	Type          reflect.Type
	Verbs         []Verb
	Signatures    map[Verb]*MethodSignature
	Options       Options
	LoginRequired bool
	CSRFExempt    bool
}

// Signature returns the declaration for verb.
func (d *Descriptor) Signature(verb Verb) (*MethodSignature, bool) {
	sig, ok := d.Signatures[verb]
	return sig, ok
}

// Endpoint is the single entry point built from a handler type.
type Endpoint struct {
	desc     *Descriptor
	settings Settings
	log      logger.Logger
	dispatch func(req *Request) (*Response, error)
}

// NewEndpoint builds an endpoint for the handler type H. Every option must
// name an overridable field of H or a built-in option; reserved names and
// verb names are rejected. Signature and option problems are returned as
// *SignatureError and *ConfigError.
func NewEndpoint[H any](settings Settings, opts Options) (*Endpoint, error) {
	res, err := resolve[H]()
	if err != nil {
		return nil, err
	}

	settings = settings.normalized()
	typ := reflect.TypeFor[H]()
	desc := &Descriptor{
		Name:          reflection.TypeName(typ),
		Type:          typ,
		Verbs:         res.verbs,
		Signatures:    res.sigs,
		Options:       maps.Clone(opts),
		LoginRequired: settings.LoginRequired,
		CSRFExempt:    settings.CSRFExempt,
	}

	settled, err := applyOptions(desc, typ, opts)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{
		desc:     desc,
		settings: settings,
		log:      settings.Logger.WithFields(map[string]any{"endpoint": desc.Name}),
	}
	e.dispatch = func(req *Request) (*Response, error) {
		return serve(e, res, newHandler[H](settled), req)
	}

	e.log.Debug().
		Strs("verbs", verbNames(desc.Verbs)).
		Bool(OptionLoginRequired, desc.LoginRequired).
		Interface("options", map[string]any(desc.Options)).
		Msg("Endpoint created")

	return e, nil
}

// MustEndpoint is like NewEndpoint but panics on error. It is meant for
// package-level route tables.
func MustEndpoint[H any](settings Settings, opts Options) *Endpoint {
	e, err := NewEndpoint[H](settings, opts)
	if err != nil {
		panic(err)
	}
	return e
}

// Serve runs the dispatch sequence for one call.
func (e *Endpoint) Serve(req *Request) (*Response, error) {
	return e.dispatch(req)
}

// Descriptor returns the endpoint description.
func (e *Endpoint) Descriptor() *Descriptor {
	return e.desc
}

// Name returns the handler type name.
func (e *Endpoint) Name() string {
	return e.desc.Name
}

// Debug reports whether the endpoint returns unexpected errors instead of
// answering 500.
func (e *Endpoint) Debug() bool {
	return e.settings.Debug
}

// fieldOption is an option value already converted to its field type.
type fieldOption struct {
	index []int
	value reflect.Value
}

// newHandler builds the handler for one call: a zero H, its defaults, then
// the endpoint options.
func newHandler[H any](settled []fieldOption) *H {
	h := new(H)
	if d, ok := any(h).(Defaulter); ok {
		d.SetDefaults()
	}
	target := reflect.ValueOf(h).Elem()
	for _, o := range settled {
		target.FieldByIndex(o.index).Set(o.value)
	}
	return h
}

// applyOptions checks opts against the handler type and returns the field
// assignments to replay on every handler instance.
func applyOptions(desc *Descriptor, typ reflect.Type, opts Options) ([]fieldOption, error) {
	fields := optionFields(typ)
	var settled []fieldOption

	keys := slices.Sorted(maps.Keys(opts))
	for _, key := range keys {
		value := opts[key]
		fail := func(format string, args ...any) error {
			return &ConfigError{Endpoint: desc.Name, Key: key, Reason: fmt.Sprintf(format, args...)}
		}

		switch {
		case slices.Contains(reservedOptions, key):
			return nil, fail("is a reserved name")
		case ParseVerb(key).Allowed() || ParseVerb(key) == CONNECT:
			return nil, fail("is an HTTP verb; declare verb handlers in Methods")
		case key == OptionLoginRequired || key == OptionCSRFExempt:
			flag, ok := value.(bool)
			if !ok {
				return nil, fail("expects bool, got %T", value)
			}
			if key == OptionLoginRequired {
				desc.LoginRequired = flag
			} else {
				desc.CSRFExempt = flag
			}
		default:
			index, ok := fields[key]
			if !ok {
				return nil, fail("is not an option of %s; only existing fields can be set", desc.Name)
			}
			converted, err := convertOption(typ.FieldByIndex(index).Type, value)
			if err != nil {
				return nil, fail("%v", err)
			}
			settled = append(settled, fieldOption{index: index, value: converted})
		}
	}
	return settled, nil
}

// optionFields maps option names to exported fields. The name comes from
// the `option` tag, or the Go field name when the tag is absent. A tag of
// "-" hides the field.
func optionFields(t reflect.Type) map[string][]int {
	fields := map[string][]int{}
	if t.Kind() != reflect.Struct {
		return fields
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || embeddedPointer(t, f.Index) {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("option"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		fields[name] = f.Index
	}
	return fields
}

// embeddedPointer reports whether the field is promoted through an embedded
// pointer, which is nil in a fresh handler.
func embeddedPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Ptr {
			return true
		}
		t = f.Type
	}
	return false
}

func convertOption(ft reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		switch ft.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(ft), nil
		default:
			return reflect.Value{}, fmt.Errorf("expects %s, got nil", ft)
		}
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(ft):
		return v, nil
	case isNumber(v.Kind()) && isNumber(ft.Kind()) && v.Type().ConvertibleTo(ft):
		return v.Convert(ft), nil
	case v.Kind() == ft.Kind() && v.Type().ConvertibleTo(ft):
		return v.Convert(ft), nil
	default:
		return reflect.Value{}, fmt.Errorf("expects %s, got %T", ft, value)
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func verbNames(verbs []Verb) []string {
	names := make([]string, len(verbs))
	for i, v := range verbs {
		names[i] = string(v)
	}
	return names
}
