package provision

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidConfig matches any *ConfigError.
	ErrInvalidConfig = errors.New("provision: invalid trunk config")

	// ErrDomainConflict is returned by a CarrierClient when the carrier
	// rejects a generated domain name as already taken.
	ErrDomainConflict = errors.New("provision: carrier domain name already taken")

	// ErrIdentifierNotFound is returned by a Gateway when the inbound trunk
	// was reported created but no ST_ identifier could be extracted.
	ErrIdentifierNotFound = errors.New("provision: inbound trunk identifier not found in gateway output")

	// ErrBusy means another run holds the lock for the same trunk name.
	ErrBusy = errors.New("provision: another run for this trunk is in progress")
)

type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "provision: invalid trunk config: " + strings.Join(e.Problems, ", ")
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// CarrierError is fatal to the whole run. No partial carrier state exists
// because each carrier call is atomic.
type CarrierError struct {
	Op  string
	Err error
}

func (e *CarrierError) Error() string { return "provision: carrier " + e.Op + ": " + e.Err.Error() }
func (e *CarrierError) Unwrap() error { return e.Err }

// GatewayError aborts the remaining gateway steps. The carrier trunk stays in
// place for the next run to reuse.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return "provision: gateway " + e.Op + ": " + e.Err.Error() }
func (e *GatewayError) Unwrap() error { return e.Err }

// IsCarrierError reports whether err aborted the run at the carrier step.
func IsCarrierError(err error) bool {
	var ce *CarrierError
	return errors.As(err, &ce)
}

// IsGatewayError reports whether err left the run partially complete.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
