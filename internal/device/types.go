package device

import (
	"fmt"
	"strings"
)

// Type classifies a physical device by its role in the node's power flow.
type Type string

// Device type constants.
const (
	// TypeDRER is a distributed renewable energy resource (e.g. a PV panel).
	TypeDRER Type = "drer"

	// TypeDESD is a distributed energy storage device (battery).
	TypeDESD Type = "desd"

	// TypeLoad is a consumer of power.
	TypeLoad Type = "load"

	// TypeDG is a dispatchable diesel generator.
	TypeDG Type = "dg"

	// TypeGrid is the breaker/link connecting the node to the main AC grid.
	TypeGrid Type = "grid"
)

// AllTypes returns all valid device type values.
func AllTypes() []Type {
	return []Type{TypeDRER, TypeDESD, TypeLoad, TypeDG, TypeGrid}
}

// ParseType converts a config string to a Type.
//
// Returns:
//   - Type: The parsed device type
//   - error: ErrInvalidType if the string is not recognised
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(s))
	switch t {
	case TypeDRER, TypeDESD, TypeLoad, TypeDG, TypeGrid:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Device is a read-and-actuate reference to a physical device.
//
// Devices are externally owned: readings reflect an external simulator and
// may fail transiently. The per-device lock must be held across a
// TurnOn/TurnOff sequence when actuation must not interleave with the
// device manager's own writes.
type Device interface {
	// ID returns the unique device identifier.
	ID() string

	// Type returns the device classification.
	Type() Type

	// PowerLevel returns the device's current raw power reading.
	// For the grid link the value is signed: positive readings mean the
	// node is donating to the main grid, negative means receiving.
	PowerLevel() (float64, error)

	// TurnOn opens the breaker so power flows.
	TurnOn() error

	// TurnOff closes the breaker so power stops flowing.
	TurnOff() error

	// Lock acquires the device's actuation lock.
	Lock()

	// TryLock attempts to acquire the lock without blocking.
	TryLock() bool

	// Unlock releases the actuation lock.
	Unlock()
}
