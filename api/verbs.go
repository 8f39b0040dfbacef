package api

import "strings"

// Verb is a lowercase HTTP method name.
type Verb string

// HTTP verbs.
const (
	GET     Verb = "get"
	POST    Verb = "post"
	PUT     Verb = "put"
	PATCH   Verb = "patch"
	DELETE  Verb = "delete"
	HEAD    Verb = "head"
	OPTIONS Verb = "options"
	TRACE   Verb = "trace"
	CONNECT Verb = "connect"
)

// allowedVerbs are the verbs a handler type may implement, in the order
// they are reported.
var allowedVerbs = []Verb{GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS, TRACE}

// AllowedVerbs returns the verbs handler types may implement.
func AllowedVerbs() []Verb {
	return append([]Verb(nil), allowedVerbs...)
}

// ParseVerb converts an HTTP method such as "GET" to a Verb.
func ParseVerb(method string) Verb {
	return Verb(strings.ToLower(method))
}

// Allowed reports whether handlers may implement v.
func (v Verb) Allowed() bool {
	for _, allowed := range allowedVerbs {
		if v == allowed {
			return true
		}
	}
	return false
}

// Method returns the uppercase HTTP method.
func (v Verb) Method() string {
	return strings.ToUpper(string(v))
}

func (v Verb) String() string {
	return string(v)
}

// bodyless verbs must not produce a response body.
func (v Verb) bodyless() bool {
	return v == HEAD || v == TRACE || v == CONNECT
}
