// Package api turns Go types that describe HTTP-verb handlers into callable
// endpoints.
//
// A handler type declares, once, which verbs it implements and how each
// verb's parameters are bound:
//
//	type Greeter struct {
//		Greeting string `option:"greeting"`
//	}
//
//	func (Greeter) Methods(m *api.Methods[Greeter]) {
//		m.Get((*Greeter).get, api.Query("q", schema.Object[SearchQuery]()))
//		m.Post((*Greeter).post, api.Body("body", schema.Object[Message]()), api.Returns(schema.Object[Message]()))
//	}
//
//	func (g *Greeter) get(c *api.Call) (any, error) {
//		q := api.Arg[SearchQuery](c, "q")
//		return map[string]any{"message": g.Greeting + " " + q.Name}, nil
//	}
//
// NewEndpoint validates construction options against the type's fields and
// returns an Endpoint whose Serve method runs the dispatch sequence: login
// check, setup, verb check, parameter validation (all failures reported
// together), handler invocation, result validation and JSON serialization.
package api
