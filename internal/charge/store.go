package charge

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/futurehomeno/edge-psa-setup/internal/storage"
)

const configFile = "charge_config.json"

// Store persists charge controls as a single document.
type Store interface {
	// Save atomically replaces the persisted controls.
	Save(controls Controls) error
	// Load returns the persisted controls.
	Load() (Controls, error)
	// Path returns the location of the persisted document.
	Path() string
}

type fileStore struct {
	file *storage.File
}

// NewStore creates a store writing {prefix}charge_config.json in workDir.
func NewStore(workDir, prefix string) Store {
	return &fileStore{
		file: storage.NewFile(workDir, prefix+configFile),
	}
}

func (s *fileStore) Save(controls Controls) error {
	if err := controls.Validate(); err != nil {
		return errors.Wrap(err, "invalid charge controls")
	}

	if err := s.file.Save(controls); err != nil {
		return errors.Wrap(err, "failed to save charge controls")
	}

	log.WithField("path", s.file.Path()).
		WithField("vehicles", len(controls)).
		Info("charge: controls saved")

	return nil
}

func (s *fileStore) Load() (Controls, error) {
	controls := Controls{}

	if err := s.file.Load(&controls); err != nil {
		return nil, errors.Wrap(err, "failed to load charge controls")
	}

	return controls, nil
}

func (s *fileStore) Path() string {
	return s.file.Path()
}
