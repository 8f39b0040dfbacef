package server

import "time"

// Defaults used when the server section leaves a timeout unset.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultBodyLimit       = "10M"
)

const (
	// HeaderXCSRFToken carries the CSRF token for endpoints that are not
	// exempt.
	HeaderXCSRFToken = "X-CSRF-Token"
	// CSRFCookieName holds the token issued on safe requests.
	CSRFCookieName = "_csrf"
	// UserContextKey is where authentication middleware stores the caller.
	UserContextKey = "user"
)
