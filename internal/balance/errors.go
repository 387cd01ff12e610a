package balance

import "errors"

// Domain errors for the balance package.
var (
	// ErrMalformedMessage is returned when a wire payload cannot be decoded.
	ErrMalformedMessage = errors.New("balance: malformed message")

	// ErrUnknownMessageType is returned for an lb value no handler recognises.
	ErrUnknownMessageType = errors.New("balance: unknown message type")

	// ErrNoGateway is returned when the configured grid-link device is missing.
	ErrNoGateway = errors.New("balance: gateway device not registered")
)
