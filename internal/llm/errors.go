package llm

import "errors"

var (
	// ErrGateway wraps any failed completion call.
	ErrGateway = errors.New("completion gateway failed")

	// ErrGatewayTimeout is returned when a call exceeds its deadline.
	ErrGatewayTimeout = errors.New("completion gateway timed out")

	// ErrGatewayUnavailable means no provider could be constructed.
	ErrGatewayUnavailable = errors.New("completion gateway not initialized")

	errEmptyReply = errors.New("empty reply")
)
