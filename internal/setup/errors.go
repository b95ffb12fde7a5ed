package setup

import (
	"github.com/pkg/errors"
)

// ErrInvalidTransition is returned when a session stage is used out of order, more than once,
// or after the session has failed or completed.
var ErrInvalidTransition = errors.New("invalid setup session transition")

// NoCompatibleVehicleError is returned when the account has no vehicle usable with the API.
type NoCompatibleVehicleError struct{}

func (e *NoCompatibleVehicleError) Error() string {
	return "No vehicle in your account is compatible with this API, your vehicle is probably too old..."
}
