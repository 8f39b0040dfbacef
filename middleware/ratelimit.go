package middleware

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-arcstack/api"
)

const (
	BurstMultiplier  = 2
	RateLimitCleanup = time.Minute * 3
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimit struct {
	next  Handler
	limit rate.Limit
	burst int

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

// RateLimit applies a token bucket per caller, keyed by identity when the
// request is authenticated and by client address otherwise. It steps aside
// when api.rate.limit is not positive.
func RateLimit(next Handler, env Env) Outcome {
	cfg := env.API().Rate
	if cfg.Limit <= 0 {
		return NotUsed("api.rate.limit is not set")
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit * BurstMultiplier
	}
	return Use(newRateLimit(next, rate.Limit(cfg.Limit), burst, time.Now))
}

func newRateLimit(next Handler, limit rate.Limit, burst int, now func() time.Time) *rateLimit {
	return &rateLimit{
		next:      next,
		limit:     limit,
		burst:     burst,
		visitors:  make(map[string]*visitor),
		lastSweep: now(),
		now:       now,
	}
}

func (m *rateLimit) Handle(req *api.Request) (*api.Response, error) {
	if !m.allow(callerKey(req)) {
		return api.ErrorResponse(api.NewTooManyRequestsError())
	}
	return m.next(req)
}

func (m *rateLimit) allow(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) > RateLimitCleanup {
		for k, v := range m.visitors {
			if now.Sub(v.lastSeen) > RateLimitCleanup {
				delete(m.visitors, k)
			}
		}
		m.lastSweep = now
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func callerKey(req *api.Request) string {
	if identity, ok := api.IdentityFrom(req.Context()); ok {
		return fmt.Sprintf("id:%v", identity)
	}
	if req.RemoteIP != "" {
		return "ip:" + req.RemoteIP
	}
	return "anonymous"
}
