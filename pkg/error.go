package pkg

import "errors"

// Driver errors.
var (
	// ErrNotSupported indicates an option this controller does not implement.
	ErrNotSupported = errors.New("not supported")

	// ErrEndpointNotActive indicates a transfer was issued on an endpoint
	// that is not currently activated.
	ErrEndpointNotActive = errors.New("endpoint not active")

	// ErrNoFreeEndpoint indicates no unassigned endpoint of the requested
	// direction remains.
	ErrNoFreeEndpoint = errors.New("no free endpoint")

	// ErrFIFOExhausted indicates the transmit FIFO memory cannot fit
	// another region of the requested size.
	ErrFIFOExhausted = errors.New("FIFO memory exhausted")

	// ErrHardwareFault indicates a register handshake did not complete
	// within its bound.
	ErrHardwareFault = errors.New("hardware handshake fault")

	// ErrInvalidConfig indicates an invalid controller configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidEndpoint indicates an invalid endpoint number, direction,
	// or transfer type for the operation.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// FaultClass categorizes driver errors for callers that dispatch on the
// broad failure mode rather than the individual sentinel.
type FaultClass int

// Fault classes.
const (
	FaultNone        FaultClass = iota // No fault
	FaultUnsupported                   // Unsupported option
	FaultInactive                      // Endpoint not active
	FaultResource                      // Endpoint or FIFO exhaustion
	FaultHardware                      // Handshake non-termination
	FaultConfig                        // Invalid configuration
)

// String returns a string representation of the fault class.
func (f FaultClass) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultUnsupported:
		return "unsupported"
	case FaultInactive:
		return "inactive"
	case FaultResource:
		return "resource"
	case FaultHardware:
		return "hardware"
	case FaultConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Classify returns the fault class of err.
func Classify(err error) FaultClass {
	switch {
	case err == nil:
		return FaultNone
	case errors.Is(err, ErrNotSupported):
		return FaultUnsupported
	case errors.Is(err, ErrEndpointNotActive):
		return FaultInactive
	case errors.Is(err, ErrNoFreeEndpoint), errors.Is(err, ErrFIFOExhausted):
		return FaultResource
	case errors.Is(err, ErrHardwareFault):
		return FaultHardware
	default:
		return FaultConfig
	}
}
