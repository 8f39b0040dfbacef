// Package testing holds helpers for testing applications built on
// go-arcstack.
//
// The apitest subpackage builds requests for endpoints, serves them with or
// without a middleware chain, decodes JSON responses and captures spans and
// metrics in memory:
//
//	import "github.com/gaborage/go-arcstack/testing/apitest"
//
//	ep := api.MustEndpoint[Greeter](api.DefaultSettings(), nil)
//	resp := apitest.Serve(t, ep, apitest.Get("/greet").Query("name", "bob").Build())
//	body := apitest.DecodeJSON(t, resp)
package testing
