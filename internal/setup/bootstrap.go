package setup

import (
	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
)

// Bootstrap creates default charge controls for every vehicle.
func Bootstrap(vehicles []*account.Vehicle) (charge.Controls, error) {
	if len(vehicles) == 0 {
		return nil, &NoCompatibleVehicleError{}
	}

	controls := make(charge.Controls, len(vehicles))
	for _, v := range vehicles {
		controls.Set(charge.NewDefaultControl(v.VIN))
	}

	return controls, nil
}
