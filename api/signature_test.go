package api

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-arcstack/schema"
)

var countedDeclarations atomic.Int32

type countedHandler struct{}

func (countedHandler) Methods(m *Methods[countedHandler]) {
	countedDeclarations.Add(1)
	m.Get((*countedHandler).get, Query("q", schema.Object[pageQuery]()))
}

func (*countedHandler) get(_ *Call) (any, error) { return nil, nil }

type noSourceHandler struct{}

func (noSourceHandler) Methods(m *Methods[noSourceHandler]) {
	m.Get((*noSourceHandler).get, Param("q", 0, schema.Object[pageQuery]()))
}

func (*noSourceHandler) get(_ *Call) (any, error) { return nil, nil }

type noSchemaHandler struct{}

func (noSchemaHandler) Methods(m *Methods[noSchemaHandler]) {
	var typedNil *schema.ObjectSchema[pageQuery]
	m.Get((*noSchemaHandler).get, Query("q", nil))
	m.Post((*noSchemaHandler).get, Body("payload", typedNil))
}

func (*noSchemaHandler) get(_ *Call) (any, error) { return nil, nil }

type duplicateHandler struct{}

func (duplicateHandler) Methods(m *Methods[duplicateHandler]) {
	s := schema.Object[pageQuery]()
	m.Get((*duplicateHandler).get, Query("q", s), Path("q", s))
	m.Put((*duplicateHandler).get)
	m.Put((*duplicateHandler).get)
	m.Handle(CONNECT, (*duplicateHandler).get)
	m.Delete(nil)
	m.Patch((*duplicateHandler).get, Param("", SourceQuery, s))
}

func (*duplicateHandler) get(_ *Call) (any, error) { return nil, nil }

type bareHandler struct{}

func TestResolveCallsMethodsOnce(t *testing.T) {
	for range 3 {
		_, err := NewEndpoint[countedHandler](testSettings(false), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), countedDeclarations.Load())
}

func TestResolveDescribesVerbs(t *testing.T) {
	e, err := NewEndpoint[simpleHandler](testSettings(false), nil)
	require.NoError(t, err)

	desc := e.Descriptor()
	assert.Equal(t, "simpleHandler", desc.Name)
	assert.Equal(t, []Verb{GET, POST}, desc.Verbs)

	post, ok := desc.Signature(POST)
	require.True(t, ok)
	assert.Equal(t, "post", post.Handler)
	require.Len(t, post.Params, 1)
	assert.Equal(t, bodyParam, post.Params[0].Name)
	assert.Equal(t, SourceBody, post.Params[0].Source)
	require.NotNil(t, post.Response)
	assert.Equal(t, "message", post.Response.Name())

	get, ok := desc.Signature(GET)
	require.True(t, ok)
	assert.Empty(t, get.Params)
	assert.Nil(t, get.Response)

	_, ok = desc.Signature(DELETE)
	assert.False(t, ok)
}

func TestResolveRejectsParamWithoutSource(t *testing.T) {
	_, err := NewEndpoint[noSourceHandler](testSettings(false), nil)
	require.Error(t, err)

	var sigErr *SignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "q", sigErr.Param)
	assert.Equal(t, GET, sigErr.Verb)
	assert.Contains(t, err.Error(), `noSourceHandler.get parameter "q"`)
}

func TestResolveRejectsParamWithoutSchema(t *testing.T) {
	_, err := NewEndpoint[noSchemaHandler](testSettings(false), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "q": parameter has no schema`)
	assert.Contains(t, err.Error(), `parameter "payload": parameter has no schema`)
}

func TestResolveCollectsEveryDeclarationError(t *testing.T) {
	_, err := NewEndpoint[duplicateHandler](testSettings(false), nil)
	require.Error(t, err)

	for _, want := range []string{
		"parameter declared twice",
		"duplicateHandler.put: verb declared twice",
		"duplicateHandler.connect: verb is not allowed",
		"duplicateHandler.delete: handler is nil",
		"parameter name is empty",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestResolveCachesErrors(t *testing.T) {
	_, first := NewEndpoint[noSourceHandler](testSettings(false), nil)
	_, second := NewEndpoint[noSourceHandler](testSettings(false), nil)
	assert.Same(t, first, second)
}

func TestResolveRequiresMethods(t *testing.T) {
	_, err := NewEndpoint[bareHandler](testSettings(false), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bareHandler: type does not declare Methods")
}

func TestArgLookup(t *testing.T) {
	c := &Call{Args: Args{"body": message{Message: "x"}}}

	got, ok := LookupArg[message](c, "body")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Message)

	_, ok = LookupArg[message](c, "missing")
	assert.False(t, ok)
	assert.Equal(t, "", Arg[message](c, "missing").Message)
	assert.Equal(t, 0, Arg[int](c, "body"))
}
