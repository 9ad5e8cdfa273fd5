// Package services defines the business logic of the chat relay: the
// conversation store, the WhatsApp activation registry, prompt assembly and
// the web and WhatsApp channel flows. This file centralizes service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-chat-relay/internal/llm"
)

var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidSession is returned when a web request carries no usable
	// session id.
	ErrInvalidSession = fmt.Errorf("%w: invalid session", ErrValidation)

	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = fmt.Errorf("%w: message is empty", ErrValidation)

	// ErrMissingSender is returned when a WhatsApp payload has no "from".
	ErrMissingSender = fmt.Errorf("%w: sender is required", ErrValidation)

	// ErrStorage wraps any persistence fault.
	ErrStorage = errors.New("storage failure")
)

// Completion errors are owned by the llm package and re-exported here so
// handlers only need to know about services.
var (
	ErrGateway            = llm.ErrGateway
	ErrGatewayTimeout     = llm.ErrGatewayTimeout
	ErrGatewayUnavailable = llm.ErrGatewayUnavailable
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
