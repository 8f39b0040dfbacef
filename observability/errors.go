package observability

import "errors"

var (
	ErrMissingServiceName = errors.New("observability: service name is required when observability is enabled")
	ErrInvalidSampleRate  = errors.New("observability: trace sample rate must be between 0.0 and 1.0")
	ErrInvalidProtocol    = errors.New("observability: protocol must be either 'http' or 'grpc'")
)
