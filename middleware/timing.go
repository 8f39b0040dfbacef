package middleware

import (
	"time"

	"github.com/gaborage/go-arcstack/api"
)

// HeaderXResponseTime carries the time spent inside the chain.
const HeaderXResponseTime = "X-Response-Time"

type timing struct {
	next Handler
}

// Timing adds an X-Response-Time header to every response.
func Timing(next Handler, _ Env) Outcome {
	return Use(&timing{next: next})
}

func (m *timing) Handle(req *api.Request) (*api.Response, error) {
	start := time.Now()
	resp, err := m.next(req)
	if resp != nil {
		resp.SetHeader(HeaderXResponseTime, time.Since(start).String())
	}
	return resp, err
}
