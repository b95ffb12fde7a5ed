package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/account"
	"github.com/futurehomeno/edge-psa-setup/internal/charge"
)

// remoteController hands the persisted configuration over to the remote-control service.
type remoteController struct {
	workDir string
	prefix  string

	config   *account.Config
	vehicles []*account.Vehicle
	controls charge.Controls
}

func newRemoteController(workDir, prefix string) *remoteController {
	return &remoteController{
		workDir: workDir,
		prefix:  prefix,
	}
}

// LoadApp reloads everything the setup persisted, failing if any document is missing or invalid.
func (c *remoteController) LoadApp() error {
	cfg, err := account.LoadConfig(c.workDir, c.prefix+"config.json")
	if err != nil {
		return err
	}

	vehicles, err := account.LoadVehicles(c.workDir, c.prefix)
	if err != nil {
		return err
	}

	controls, err := charge.NewStore(c.workDir, c.prefix).Load()
	if err != nil {
		return err
	}

	for _, v := range vehicles {
		if _, ok := controls[v.VIN]; !ok {
			return errors.Errorf("no charge control configured for vehicle %s", v.VIN)
		}
	}

	c.config, c.vehicles, c.controls = cfg, vehicles, controls

	return nil
}

// StartRemoteControl announces the configured vehicles to the remote-control service.
func (c *remoteController) StartRemoteControl() error {
	if c.config == nil {
		return errors.New("remote control cannot start before the configuration is loaded")
	}

	for _, v := range c.vehicles {
		log.WithField("vin", v.VIN).
			WithField("label", v.Label).
			WithField("percentage", c.controls[v.VIN].Percentage).
			Info("remote control: vehicle enabled")
	}

	log.WithField("customer_id", c.config.Params.CustomerID).
		WithField("vehicles", len(c.vehicles)).
		Info("remote control: started")

	return nil
}
