package ws

import (
	"errors"
	"fmt"
)

// ErrConnectionNotOpen is returned when sending on a client whose websocket
// has not reached the open state.
var ErrConnectionNotOpen = errors.New("connection not open")

// ErrConnectionClosed is returned when the connection closes under a pending
// operation.
var ErrConnectionClosed = errors.New("connection closed")

// ProtocolError reports a subscription that terminated without a required
// message, or a frame with an unexpected discriminant.
type ProtocolError struct {
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Message
}

// PublishRejectedError carries the relay's free-form rejection message
// verbatim so operators can diagnose rate-limited:, blocked:, invalid: and
// friends.
type PublishRejectedError struct {
	Reason string
}

// Error implements the error interface.
func (e *PublishRejectedError) Error() string {
	return fmt.Sprintf("publish rejected: %s", e.Reason)
}
