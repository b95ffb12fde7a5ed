package charge

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
)

const (
	// DefaultPercentage is the charge target of a newly configured vehicle.
	DefaultPercentage = 100
)

// Control holds the charge-control settings of one vehicle.
type Control struct {
	VIN        string `json:"vin"`
	Percentage int    `json:"percentage_threshold"`
	// StopHour is the [hour, minute] at which charging stops. [0, 0] disables the schedule.
	StopHour [2]int `json:"stop_hour"`
}

// NewDefaultControl returns the default settings for a vehicle.
func NewDefaultControl(vin string) Control {
	return Control{
		VIN:        vin,
		Percentage: DefaultPercentage,
		StopHour:   [2]int{0, 0},
	}
}

// Validate checks the settings are within range.
func (c Control) Validate() error {
	if c.VIN == "" {
		return errors.New("charge control vin is required")
	}

	if c.Percentage < 0 || c.Percentage > 100 {
		return errors.Errorf("charge control percentage %d of %s is out of range", c.Percentage, c.VIN)
	}

	if c.StopHour[0] < 0 || c.StopHour[0] > 23 || c.StopHour[1] < 0 || c.StopHour[1] > 59 {
		return errors.Errorf("charge control stop hour %v of %s is invalid", c.StopHour, c.VIN)
	}

	return nil
}

// Controls maps VINs to their charge-control settings.
type Controls map[string]Control

// Set stores c under its VIN, replacing earlier settings of the same vehicle.
func (cs Controls) Set(c Control) {
	cs[c.VIN] = c
}

// VINs returns the configured VINs in ascending order.
func (cs Controls) VINs() []string {
	if len(cs) == 0 {
		return nil
	}

	vins, _ := funk.Keys(map[string]Control(cs)).([]string)
	sort.Strings(vins)

	return vins
}

// Validate checks every control and that each is stored under its own VIN.
func (cs Controls) Validate() error {
	for vin, c := range cs {
		if vin != c.VIN {
			return errors.Errorf("charge control of %s is stored under %s", c.VIN, vin)
		}

		if err := c.Validate(); err != nil {
			return err
		}
	}

	return nil
}
