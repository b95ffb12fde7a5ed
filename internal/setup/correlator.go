package setup

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/api"
)

// Correlate backfills unresolved account vehicle labels from the profile short labels,
// matching vehicles by VIN. It returns the number of labels changed.
func Correlate(profile []api.ProfileVehicle, vehicles account.VehicleFinder) int {
	changed := 0

	for _, pv := range profile {
		if pv.VIN == "" {
			continue
		}

		v, ok := vehicles.VehicleByVIN(pv.VIN)
		if !ok || v.Label != account.UnknownLabel {
			continue
		}

		label, ok := shortLabel(pv.ShortLabel)
		if !ok {
			continue
		}

		log.WithField("vin", v.VIN).WithField("label", label).Debug("setup: vehicle label resolved")

		v.Label = label
		changed++
	}

	return changed
}

// shortLabel drops marketing prefixes such as "new" by keeping the last word of the label.
func shortLabel(s string) (string, bool) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return "", false
	}

	return words[len(words)-1], true
}
